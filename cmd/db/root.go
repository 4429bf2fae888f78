package db

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/isam"
	"github.com/ValentinKolb/isam/lib/jet"
	"github.com/spf13/cobra"
)

var (
	// DatabaseCommands represents the database command group
	DatabaseCommands = &cobra.Command{
		Use:   "db",
		Short: "Create and inspect databases",
	}
	createCmd = &cobra.Command{
		Use:   "create [name]",
		Short: "Creates a new database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := util.DatabaseArg(args, 0)
			return util.WithWorkspace(func(ws *util.Workspace) error {
				db, err := ws.CreateDatabase(name)
				if err != nil {
					return err
				}
				defer db.Dispose()
				fmt.Printf("database %s created (%s)\n", db.Name(), db.Dbid())
				return nil
			})
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info [name]",
		Short: "Prints the header information of a database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.WithDatabase(util.DatabaseArg(args, 0), false, func(db *isam.Database) error {
				info, err := db.Info()
				if err != nil {
					return err
				}
				tables, err := db.Tables()
				if err != nil {
					return err
				}
				names, err := tables.Names()
				if err != nil {
					return err
				}
				fmt.Print(formatInfo(info, names))
				return nil
			})
		},
	}
)

func init() {
	DatabaseCommands.AddCommand(createCmd)
	DatabaseCommands.AddCommand(infoCmd)
}

// formatInfo renders the database header the way common.Config renders the configuration
func formatInfo(info jet.DbInfo, tables []string) string {
	var sb strings.Builder

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	sb.WriteString("DATABASE\n")
	addField("Name", info.Name)
	addField("Dbid", info.Dbid.String())
	addField("Signature", info.Signature.String())
	addField("Created", info.LogtimeCreate.String())
	addField("Last Commit", info.LgposLastCommit.String())
	addField("Tables", fmt.Sprintf("%d", info.TableCount))
	for _, name := range tables {
		addField("", name)
	}
	return sb.String()
}
