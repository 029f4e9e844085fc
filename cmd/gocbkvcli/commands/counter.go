package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
	"github.com/couchbase/gocbcorex/internal/cli/output"
	"github.com/couchbase/gocbcorex/pkg/gocbcorex"
)

var (
	incrDelta, decrDelta     uint64
	incrInitial, decrInitial uint64
	incrExpiry, decrExpiry   uint32
)

var incrCmd = &cobra.Command{
	Use:   "incr <key>",
	Short: "Add to a counter document, creating it if absent",
	Args:  cobra.ExactArgs(1),
	RunE:  runIncr,
}

var decrCmd = &cobra.Command{
	Use:   "decr <key>",
	Short: "Subtract from a counter document, creating it if absent",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecr,
}

func init() {
	incrCmd.Flags().Uint64Var(&incrDelta, "delta", 1, "Amount to add")
	incrCmd.Flags().Uint64Var(&incrInitial, "initial", 0, "Initial value if the counter does not exist")
	incrCmd.Flags().Uint32Var(&incrExpiry, "expiry", 0, "Expiry in seconds (0 = never)")

	decrCmd.Flags().Uint64Var(&decrDelta, "delta", 1, "Amount to subtract")
	decrCmd.Flags().Uint64Var(&decrInitial, "initial", 0, "Initial value if the counter does not exist")
	decrCmd.Flags().Uint32Var(&decrExpiry, "expiry", 0, "Expiry in seconds (0 = never)")
}

type counterView struct {
	Key   string `json:"key" yaml:"key"`
	Value uint64 `json:"value" yaml:"value"`
	CAS   uint64 `json:"cas" yaml:"cas"`
}

func (c counterView) Headers() []string { return []string{"KEY", "VALUE", "CAS"} }
func (c counterView) Rows() [][]string {
	return [][]string{{c.Key, fmt.Sprintf("%d", c.Value), fmt.Sprintf("%d", c.CAS)}}
}

var _ output.TableRenderer = counterView{}

func runIncr(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Increment(ctx, []byte(key), gocbcorex.CounterOptions{
		Delta: incrDelta, Initial: incrInitial, Expiry: incrExpiry,
	})
	if err != nil {
		return fmt.Errorf("incr %q: %w", key, err)
	}

	view := counterView{Key: key, Value: result.Value, CAS: result.CAS}
	return cmdutil.PrintResource(os.Stdout, view, view)
}

func runDecr(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Decrement(ctx, []byte(key), gocbcorex.CounterOptions{
		Delta: decrDelta, Initial: decrInitial, Expiry: decrExpiry,
	})
	if err != nil {
		return fmt.Errorf("decr %q: %w", key, err)
	}

	view := counterView{Key: key, Value: result.Value, CAS: result.CAS}
	return cmdutil.PrintResource(os.Stdout, view, view)
}
