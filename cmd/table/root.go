package table

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/isam"
	"github.com/spf13/cobra"
)

var (
	// TableCommands represents the table command group
	TableCommands = &cobra.Command{
		Use:   "table",
		Short: "Create, drop and inspect tables",
	}
	createCmd = &cobra.Command{
		Use:   "create [db] [table]",
		Short: "Creates a table with the given columns and indexes",
		Example: `  isam table create people.edb people \
    --column id:int32:notnull \
    --column name:text:100 \
    --column visits:int32:escrow:default=0 \
    --index pk:+id:primary \
    --index by_name:+name-id:unique:64`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			columns, _ := cmd.Flags().GetStringArray("column")
			indexes, _ := cmd.Flags().GetStringArray("index")

			def, err := tableDefinition(args[1], columns, indexes)
			if err != nil {
				return err
			}
			return util.WithDatabase(args[0], true, func(db *isam.Database) error {
				if err := db.CreateTable(def); err != nil {
					return err
				}
				fmt.Printf("table %s created (schema version %d)\n", def.Name, db.SchemaVersion())
				return nil
			})
		},
	}
	dropCmd = &cobra.Command{
		Use:   "drop [db] [table]",
		Short: "Drops a table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.WithDatabase(args[0], true, func(db *isam.Database) error {
				if err := db.DropTable(args[1]); err != nil {
					return err
				}
				fmt.Printf("table %s dropped\n", args[1])
				return nil
			})
		},
	}
	listCmd = &cobra.Command{
		Use:   "list [db]",
		Short: "Lists the tables of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.WithDatabase(args[0], false, func(db *isam.Database) error {
				tables, err := db.Tables()
				if err != nil {
					return err
				}
				names, err := tables.Names()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Println(name)
				}
				return nil
			})
		},
	}
	existsCmd = &cobra.Command{
		Use:   "exists [db] [table]",
		Short: "Checks if a table exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.WithDatabase(args[0], false, func(db *isam.Database) error {
				if found, err := db.Exists(args[1]); err != nil {
					return err
				} else {
					fmt.Printf("table=%s, found=%t\n", args[1], found)
				}
				return nil
			})
		},
	}
	describeCmd = &cobra.Command{
		Use:   "describe [db] [table]",
		Short: "Prints the columns and indexes of a table as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return util.WithDatabase(args[0], false, func(db *isam.Database) error {
				tables, err := db.Tables()
				if err != nil {
					return err
				}
				info, err := tables.Get(args[1])
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			})
		},
	}
)

func init() {
	key := "column"
	createCmd.Flags().StringArray(key, nil, util.WrapString("Column as name:type[:maxlen][:flag|flag][:default=value]. Types: bool, byte, int16, uint16, int32, uint32, int64, uint64, float32, float64, datetime, guid, text, binary. Flags: fixed, variable, sparse, notnull, version, autoincrement, updatable, multivalued, escrow, finalize, deleteonzero"))

	key = "index"
	createCmd.Flags().StringArray(key, nil, util.WrapString("Index as name:+col-col[:flag|flag][:maxkey]. Flags: unique, primary, disallownull, ignorenull, ignoreanynull, ignorefirstnull, sortnullshigh, allowtruncation"))

	TableCommands.AddCommand(createCmd)
	TableCommands.AddCommand(dropCmd)
	TableCommands.AddCommand(listCmd)
	TableCommands.AddCommand(existsCmd)
	TableCommands.AddCommand(describeCmd)
}

// tableDefinition builds a table definition from the --column and --index flags
func tableDefinition(name string, columns, indexes []string) (isam.TableDefinition, error) {
	def := isam.TableDefinition{Name: name}
	if len(columns) == 0 {
		return def, fmt.Errorf("table %s needs at least one --column", name)
	}
	for _, spec := range columns {
		column, err := ParseColumnSpec(spec)
		if err != nil {
			return def, err
		}
		def.Columns = append(def.Columns, column)
	}
	for _, spec := range indexes {
		index, err := ParseIndexSpec(spec)
		if err != nil {
			return def, err
		}
		def.Indexes = append(def.Indexes, index)
	}
	return def, nil
}
