// Package cmdutil provides shared utilities for gocbkvcli commands.
package cmdutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchbase/gocbcorex/internal/cli/credentials"
	"github.com/couchbase/gocbcorex/internal/cli/output"
	"github.com/couchbase/gocbcorex/internal/cli/prompt"
	"github.com/couchbase/gocbcorex/pkg/gocbcorex"
	"github.com/couchbase/gocbcorex/pkg/kvconfig"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigPath string
	Seeds      []string
	Bucket     string
	Username   string
	Password   string
	Output     string
	NoColor    bool
	Verbose    bool
}

// LoadConfig starts from kvconfig.Load (config file, environment, defaults),
// fills seeds, bucket, username and password that are still empty from the
// current context (if one is selected), ORs in the context's TLS switches,
// and then applies any explicit flags, which always win.
func LoadConfig() (*kvconfig.Config, error) {
	cfg, err := kvconfig.Load(Flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	store, serr := credentials.NewStore()
	if serr == nil {
		if ctx, cerr := store.GetCurrentContext(); cerr == nil {
			if len(cfg.Connection.Seeds) == 0 {
				cfg.Connection.Seeds = ctx.Seeds
			}
			if cfg.Connection.Bucket == "" {
				cfg.Connection.Bucket = ctx.Bucket
			}
			if ctx.AuthType != "" && cfg.Auth.Type == "" {
				cfg.Auth.Type = ctx.AuthType
			}
			if cfg.Auth.Password.Username == "" {
				cfg.Auth.Password.Username = ctx.Username
			}
			if cfg.Auth.Password.Password == "" {
				cfg.Auth.Password.Password = ctx.Password
			}
			cfg.TLS.Enabled = cfg.TLS.Enabled || ctx.TLSEnabled
			cfg.TLS.InsecureSkipVerify = cfg.TLS.InsecureSkipVerify || ctx.InsecureSkipVerify
		}
	}

	if len(Flags.Seeds) > 0 {
		cfg.Connection.Seeds = Flags.Seeds
	}
	if Flags.Bucket != "" {
		cfg.Connection.Bucket = Flags.Bucket
	}
	if Flags.Username != "" {
		cfg.Auth.Password.Username = Flags.Username
	}
	if Flags.Password != "" {
		cfg.Auth.Password.Password = Flags.Password
	}
	if cfg.Auth.Type == "" {
		cfg.Auth.Type = "password"
	}

	kvconfig.ApplyDefaults(cfg)
	if err := kvconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetAgent loads the effective configuration and bootstraps a connected
// gocbcorex.Agent against it.
func GetAgent(ctx context.Context) (*gocbcorex.Agent, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logLevel := slog.LevelInfo
	if Flags.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	agent, err := gocbcorex.CreateAgent(ctx, cfg, gocbcorex.CreateOptions{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return agent, nil
}

// GetOutputFormat returns the raw output format flag value.
func GetOutputFormat() string {
	return Flags.Output
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// IsColorDisabled returns whether color output is disabled.
func IsColorDisabled() bool {
	return Flags.NoColor
}

// IsVerbose returns whether verbose output is enabled.
func IsVerbose() bool {
	return Flags.Verbose
}

// PrintOutput prints data in the specified format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses
// the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	printer := output.NewPrinter(os.Stdout, format, !IsColorDisabled())
	printer.Success(msg)
}

// PrintResource prints a resource in the specified format. For table
// format, it uses the provided tableRenderer. For JSON/YAML, it outputs
// the resource directly.
func PrintResource(w io.Writer, data any, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		return output.PrintTable(w, tableRenderer)
	}
}

// RunDeleteWithConfirmation prompts for confirmation (unless force is true)
// and runs deleteFn.
func RunDeleteWithConfirmation(resourceType, name string, force bool, deleteFn func() error) error {
	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete %s '%s'?", resourceType, name), force)
	if err != nil {
		if prompt.IsAborted(err) {
			fmt.Println("\nAborted.")
			return nil
		}
		return err
	}
	if !confirmed {
		fmt.Println("Aborted.")
		return nil
	}

	if err := deleteFn(); err != nil {
		return err
	}

	PrintSuccess(fmt.Sprintf("%s '%s' deleted successfully", resourceType, name))
	return nil
}

// ParseCommaSeparatedList parses a comma-separated string into a slice of
// trimmed strings.
func ParseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}

// BoolToYesNo converts a boolean to "yes" or "no" string.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns value if not empty, otherwise fallback. Useful for table
// display where empty fields should show "-".
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// HandleAbort checks if err is an abort (Ctrl+C) and prints a message.
// Returns nil for abort (user cancelled), otherwise returns the original
// error.
func HandleAbort(err error) error {
	if prompt.IsAborted(err) {
		fmt.Println("\nAborted.")
		return nil
	}
	return err
}
