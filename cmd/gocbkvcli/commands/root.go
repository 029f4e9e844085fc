// Package commands implements the CLI commands for gocbkvcli.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "gocbkvcli",
	Short: "Couchbase KV client - diagnostic and operational CLI",
	Long: `gocbkvcli is a command-line client for a Couchbase cluster's key-value
service, speaking the memcached binary protocol directly through
gocbcorex.

Use it to read and write documents, inspect subdocument paths, and manage
saved cluster contexts during development and incident response.

Use "gocbkvcli [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cmdutil.Flags.ConfigPath, _ = cmd.Flags().GetString("config")
		cmdutil.Flags.Seeds, _ = cmd.Flags().GetStringSlice("seeds")
		cmdutil.Flags.Bucket, _ = cmd.Flags().GetString("bucket")
		cmdutil.Flags.Username, _ = cmd.Flags().GetString("username")
		cmdutil.Flags.Password, _ = cmd.Flags().GetString("password")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (defaults to ~/.config/gocbkvcli/config.yaml)")
	rootCmd.PersistentFlags().StringSlice("seeds", nil, "Seed node addresses, host:port (overrides context and config file)")
	rootCmd.PersistentFlags().String("bucket", "", "Bucket name (overrides context and config file)")
	rootCmd.PersistentFlags().String("username", "", "Username for password auth (overrides context and config file)")
	rootCmd.PersistentFlags().String("password", "", "Password for password auth (overrides context and config file)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(touchCmd)
	rootCmd.AddCommand(incrCmd)
	rootCmd.AddCommand(decrCmd)
	rootCmd.AddCommand(lookupInCmd)
	rootCmd.AddCommand(mutateInCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
