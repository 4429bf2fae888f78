package util

import (
	"strings"

	"github.com/ValentinKolb/isam/lib/common"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var log = logger.GetLogger("cmd")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupEngineFlags adds the flags shared by all commands that touch the engine state
func SetupEngineFlags(cmd *cobra.Command) {
	defaults := common.DefaultConfig()

	key := "data-file"
	cmd.PersistentFlags().String(key, defaults.DataFile, WrapString("Snapshot file holding all databases between invocations. It is created on the first write"))

	key = "instance"
	cmd.PersistentFlags().String(key, defaults.InstanceName, WrapString("Name of the engine instance"))

	key = "computer-name"
	cmd.PersistentFlags().String(key, "", WrapString("Computer name stored in the signature of new databases (default: hostname)"))

	key = "database"
	cmd.PersistentFlags().String(key, defaults.Database, WrapString("Database used by db commands when no name is given"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("isam")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetConfig reads the configuration from viper
func GetConfig() common.Config {
	return common.Config{
		LogLevel:     viper.GetString("log-level"),
		DataFile:     viper.GetString("data-file"),
		InstanceName: viper.GetString("instance"),
		ComputerName: viper.GetString("computer-name"),
		Database:     viper.GetString("database"),
	}
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// DatabaseArg returns args[i] or the configured default database
func DatabaseArg(args []string, i int) string {
	if i < len(args) && args[i] != "" {
		return args[i]
	}
	return viper.GetString("database")
}
