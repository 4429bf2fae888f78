package common

import (
	"fmt"
	"strings"
)

// Config holds the configuration of the command line tool
type Config struct {
	// Logging configuration
	LogLevel string

	// Snapshot file holding the engine state between invocations
	DataFile string

	// Engine parameters
	InstanceName string
	ComputerName string

	// Default database for commands that take one
	Database string
}

// DefaultConfig returns the configuration used when nothing else is set
func DefaultConfig() Config {
	return Config{
		LogLevel:     "warn",
		DataFile:     "isam.snapshot",
		InstanceName: "isam",
		Database:     "isam.edb",
	}
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orDefault := func(value string) string {
		if value == "" {
			return "(default)"
		}
		return value
	}

	addSection("Engine")
	addField("Instance Name", c.InstanceName)
	addField("Computer Name", orDefault(c.ComputerName))

	addSection("Storage")
	addField("Data File", c.DataFile)
	addField("Database", c.Database)

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
