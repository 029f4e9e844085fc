package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
	"github.com/couchbase/gocbcorex/pkg/gocbcorex"
)

var touchExpiry uint32

var touchCmd = &cobra.Command{
	Use:   "touch <key>",
	Short: "Update a document's expiry without fetching its value",
	Args:  cobra.ExactArgs(1),
	RunE:  runTouch,
}

func init() {
	touchCmd.Flags().Uint32Var(&touchExpiry, "expiry", 0, "New expiry in seconds (0 = never)")
}

func runTouch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Touch(ctx, []byte(key), gocbcorex.TouchOptions{Expiry: touchExpiry})
	if err != nil {
		return fmt.Errorf("touch %q: %w", key, err)
	}

	view := documentView{Key: key, CAS: result.CAS}
	return cmdutil.PrintResource(os.Stdout, view, view)
}
