package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
	"github.com/couchbase/gocbcorex/pkg/gocbcorex"
)

var (
	setFlags, addFlags, replaceFlags uint32
	setExpiry, addExpiry, repExpiry  uint32
	setCAS, repCAS                   uint64
)

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Create or overwrite a document unconditionally",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

var addCmd = &cobra.Command{
	Use:   "add <key> <value>",
	Short: "Create a document, failing if it already exists",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

var replaceCmd = &cobra.Command{
	Use:   "replace <key> <value>",
	Short: "Overwrite an existing document, optionally under CAS",
	Args:  cobra.ExactArgs(2),
	RunE:  runReplace,
}

func init() {
	setCmd.Flags().Uint32Var(&setFlags, "flags", 0, "Document flags")
	setCmd.Flags().Uint32Var(&setExpiry, "expiry", 0, "Expiry in seconds (0 = never)")
	setCmd.Flags().Uint64Var(&setCAS, "cas", 0, "Require this CAS to succeed")

	addCmd.Flags().Uint32Var(&addFlags, "flags", 0, "Document flags")
	addCmd.Flags().Uint32Var(&addExpiry, "expiry", 0, "Expiry in seconds (0 = never)")

	replaceCmd.Flags().Uint32Var(&replaceFlags, "flags", 0, "Document flags")
	replaceCmd.Flags().Uint32Var(&repExpiry, "expiry", 0, "Expiry in seconds (0 = never)")
	replaceCmd.Flags().Uint64Var(&repCAS, "cas", 0, "Require this CAS to succeed")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(replaceCmd)
}

func printStoreResult(key string, cas uint64) error {
	cmdutil.PrintSuccess(fmt.Sprintf("document %q stored, cas=%d", key, cas))
	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format.String() != "table" {
		return cmdutil.PrintResource(os.Stdout, documentView{Key: key, CAS: cas}, documentView{Key: key, CAS: cas})
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key, value := args[0], args[1]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Set(ctx, []byte(key), []byte(value), gocbcorex.StoreOptions{
		Flags: setFlags, Expiry: setExpiry, CAS: setCAS,
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return printStoreResult(key, result.CAS)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key, value := args[0], args[1]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Add(ctx, []byte(key), []byte(value), gocbcorex.StoreOptions{
		Flags: addFlags, Expiry: addExpiry,
	})
	if err != nil {
		return fmt.Errorf("add %q: %w", key, err)
	}
	return printStoreResult(key, result.CAS)
}

func runReplace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key, value := args[0], args[1]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Replace(ctx, []byte(key), []byte(value), gocbcorex.StoreOptions{
		Flags: replaceFlags, Expiry: repExpiry, CAS: repCAS,
	})
	if err != nil {
		return fmt.Errorf("replace %q: %w", key, err)
	}
	return printStoreResult(key, result.CAS)
}
