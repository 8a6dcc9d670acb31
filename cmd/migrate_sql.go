package cmd

import (
	"github.com/spf13/cobra"
)

// migrateSQLCmd represents the migrate sql command
var migrateSQLCmd = &cobra.Command{
	Use:   "sql [database-url]",
	Short: "Create the session registry schema and apply migration plans",
	Long:  "Applies db/migrations to the given database, or to DATABASE_URL when no URL is given.",
	Args:  cobra.MaximumNArgs(1),
	Run:   cmdHandler.Migration.MigrateSQL,
}

func init() {
	migrateCmd.AddCommand(migrateSQLCmd)
}
