package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
	"github.com/couchbase/gocbcorex/internal/cli/credentials"
	"github.com/couchbase/gocbcorex/internal/cli/output"
	"github.com/couchbase/gocbcorex/internal/cli/prompt"
)

// contextCmd groups subcommands for managing saved cluster contexts,
// similar to kubectl contexts.
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage saved cluster connection contexts",
	Long: `Manage connection contexts for multiple Couchbase clusters/buckets.

Contexts save a seed list, bucket, and credentials under a name so you can
switch between clusters without repeating flags.

Subcommands:
  add      Save a new context
  list     List all saved contexts
  use      Switch to a different context
  current  Show the current context
  rename   Rename a context
  delete   Delete a context`,
}

var (
	ctxAddSeeds    []string
	ctxAddBucket   string
	ctxAddUsername string
	ctxAddPassword string
	ctxAddTLS      bool
	ctxAddInsecure bool
	ctxDeleteForce bool
)

var contextAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Save a new context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextAdd,
}

var contextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved contexts",
	Args:  cobra.NoArgs,
	RunE:  runContextList,
}

var contextUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a different context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextUse,
}

var contextCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current context",
	Args:  cobra.NoArgs,
	RunE:  runContextCurrent,
}

var contextRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a context",
	Args:  cobra.ExactArgs(2),
	RunE:  runContextRename,
}

var contextDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE:  runContextDelete,
}

func init() {
	contextAddCmd.Flags().StringSliceVar(&ctxAddSeeds, "seeds", nil, "Seed node addresses, host:port (required)")
	contextAddCmd.Flags().StringVar(&ctxAddBucket, "bucket", "", "Bucket name (required)")
	contextAddCmd.Flags().StringVar(&ctxAddUsername, "username", "", "Username for password auth")
	contextAddCmd.Flags().StringVar(&ctxAddPassword, "password", "", "Password for password auth (will prompt if omitted and username is set)")
	contextAddCmd.Flags().BoolVar(&ctxAddTLS, "tls", false, "Use TLS when dialing seed nodes")
	contextAddCmd.Flags().BoolVar(&ctxAddInsecure, "insecure-skip-verify", false, "Skip TLS certificate verification")
	_ = contextAddCmd.MarkFlagRequired("seeds")
	_ = contextAddCmd.MarkFlagRequired("bucket")

	contextDeleteCmd.Flags().BoolVarP(&ctxDeleteForce, "force", "f", false, "Skip the confirmation prompt")

	contextCmd.AddCommand(contextAddCmd)
	contextCmd.AddCommand(contextListCmd)
	contextCmd.AddCommand(contextUseCmd)
	contextCmd.AddCommand(contextCurrentCmd)
	contextCmd.AddCommand(contextRenameCmd)
	contextCmd.AddCommand(contextDeleteCmd)
}

func runContextAdd(cmd *cobra.Command, args []string) error {
	name := args[0]

	password := ctxAddPassword
	if password == "" && ctxAddUsername != "" {
		var err error
		password, err = prompt.Password(fmt.Sprintf("Password for %s", ctxAddUsername))
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initialize credential store: %w", err)
	}

	ctx := &credentials.Context{
		Seeds:              ctxAddSeeds,
		Bucket:             ctxAddBucket,
		Username:           ctxAddUsername,
		Password:           password,
		AuthType:           "password",
		TLSEnabled:         ctxAddTLS,
		InsecureSkipVerify: ctxAddInsecure,
	}

	if err := store.SetContext(name, ctx); err != nil {
		return fmt.Errorf("save context: %w", err)
	}
	if err := store.UseContext(name); err != nil {
		return fmt.Errorf("switch to new context: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("context %q saved and selected", name))
	return nil
}

type contextRow struct {
	Name    string `json:"name" yaml:"name"`
	Seeds   string `json:"seeds" yaml:"seeds"`
	Bucket  string `json:"bucket" yaml:"bucket"`
	Current bool   `json:"current" yaml:"current"`
}

type contextListView []contextRow

func (v contextListView) Headers() []string { return []string{"CURRENT", "NAME", "SEEDS", "BUCKET"} }
func (v contextListView) Rows() [][]string {
	rows := make([][]string, len(v))
	for i, r := range v {
		marker := ""
		if r.Current {
			marker = "*"
		}
		rows[i] = []string{marker, r.Name, r.Seeds, r.Bucket}
	}
	return rows
}

var _ output.TableRenderer = contextListView{}

func runContextList(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initialize credential store: %w", err)
	}

	current := store.GetCurrentContextName()
	names := store.ListContexts()

	view := make(contextListView, 0, len(names))
	for _, name := range names {
		ctx, err := store.GetContext(name)
		if err != nil {
			continue
		}
		view = append(view, contextRow{
			Name:    name,
			Seeds:   cmdutil.EmptyOr(joinSeeds(ctx.Seeds), "-"),
			Bucket:  ctx.Bucket,
			Current: name == current,
		})
	}

	return cmdutil.PrintOutput(os.Stdout, view, len(view) == 0, "No contexts configured.", view)
}

func runContextUse(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initialize credential store: %w", err)
	}

	if err := store.UseContext(name); err != nil {
		return fmt.Errorf("switch context: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("switched to context %q", name))
	return nil
}

func runContextCurrent(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initialize credential store: %w", err)
	}

	ctx, err := store.GetCurrentContext()
	if err != nil {
		return fmt.Errorf("no current context: %w", err)
	}

	row := contextRow{
		Name:    store.GetCurrentContextName(),
		Seeds:   joinSeeds(ctx.Seeds),
		Bucket:  ctx.Bucket,
		Current: true,
	}
	return cmdutil.PrintResource(os.Stdout, row, contextListView{row})
}

func runContextRename(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initialize credential store: %w", err)
	}

	if err := store.RenameContext(oldName, newName); err != nil {
		return fmt.Errorf("rename context: %w", err)
	}

	cmdutil.PrintSuccess(fmt.Sprintf("context %q renamed to %q", oldName, newName))
	return nil
}

func runContextDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("initialize credential store: %w", err)
	}

	return cmdutil.RunDeleteWithConfirmation("context", name, ctxDeleteForce, func() error {
		return store.DeleteContext(name)
	})
}

func joinSeeds(seeds []string) string {
	out := ""
	for i, s := range seeds {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
