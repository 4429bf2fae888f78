package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/isam/cmd/db"
	"github.com/ValentinKolb/isam/cmd/encode"
	"github.com/ValentinKolb/isam/cmd/perf"
	"github.com/ValentinKolb/isam/cmd/row"
	"github.com/ValentinKolb/isam/cmd/table"
	"github.com/ValentinKolb/isam/cmd/util"
	"github.com/ValentinKolb/isam/lib/common"
	"github.com/ValentinKolb/isam/lib/isam"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "isam",
		Short: "managed ISAM tables on an embedded engine",
		Long: fmt.Sprintf(`isam (v%s)

A command line front end for the managed ISAM layer. Databases, tables
and rows are kept in an embedded engine whose state is stored in a
snapshot file between invocations.`, Version),
		PersistentPreRunE: setup,
		SilenceUsage:      true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of isam",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("isam v%s\n", Version)
		},
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Run: func(cmd *cobra.Command, args []string) {
			config := util.GetConfig()
			fmt.Print(config.String())
		},
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Print the metrics of this invocation in the Prometheus text format",
		Long: `Print the metrics of this invocation in the Prometheus text format.
The snapshot is loaded and a session is opened and closed, so the output
shows the counters of a complete engine round trip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := util.OpenWorkspace(util.GetConfig())
			if err != nil {
				return err
			}
			if err := ws.Close(); err != nil {
				return err
			}
			isam.WriteMetrics(cmd.OutOrStdout())
			return nil
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(db.DatabaseCommands)
	RootCmd.AddCommand(table.TableCommands)
	RootCmd.AddCommand(row.RowCommands)
	RootCmd.AddCommand(encode.EncodeCommands)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(statsCmd)

	// Add Flags
	util.SetupEngineFlags(RootCmd)
}

// setup binds the flags to viper and configures the loggers before any command runs
func setup(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return common.InitLoggers(util.GetConfig())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	common.SyncLoggers()
	if err != nil {
		os.Exit(1)
	}
}
