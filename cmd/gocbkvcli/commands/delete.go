package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
	"github.com/couchbase/gocbcorex/pkg/gocbcorex"
)

var (
	deleteCAS   uint64
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:     "delete <key>",
	Aliases: []string{"rm"},
	Short:   "Remove a document",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	deleteCmd.Flags().Uint64Var(&deleteCAS, "cas", 0, "Require this CAS to succeed")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip the confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	return cmdutil.RunDeleteWithConfirmation("document", key, deleteForce, func() error {
		_, err := agent.Delete(ctx, []byte(key), gocbcorex.DeleteOptions{CAS: deleteCAS})
		if err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
		return nil
	})
}
