package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchbase/gocbcorex/cmd/gocbkvcli/cmdutil"
	"github.com/couchbase/gocbcorex/internal/cli/output"
	"github.com/couchbase/gocbcorex/pkg/gocbcorex"
)

var getRaw bool

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Fetch a document's value, flags, and CAS",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().BoolVar(&getRaw, "raw", false, "Print only the raw document value, no metadata")
}

// documentView is the table/JSON/YAML-renderable shape shared by get,
// set/add/replace, touch and mutate-in results; counter results use
// counterView.
type documentView struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Flags uint32 `json:"flags,omitempty" yaml:"flags,omitempty"`
	CAS   uint64 `json:"cas" yaml:"cas"`
}

func (d documentView) Headers() []string { return []string{"KEY", "FLAGS", "CAS", "VALUE"} }
func (d documentView) Rows() [][]string {
	return [][]string{{d.Key, fmt.Sprintf("%d", d.Flags), fmt.Sprintf("%d", d.CAS), d.Value}}
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	key := args[0]

	agent, err := cmdutil.GetAgent(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = agent.Close() }()

	result, err := agent.Get(ctx, []byte(key), gocbcorex.GetOptions{})
	if err != nil {
		return fmt.Errorf("get %q: %w", key, err)
	}

	if getRaw {
		_, err := os.Stdout.Write(result.Value)
		return err
	}

	view := documentView{Key: key, Value: string(result.Value), Flags: result.Flags, CAS: result.CAS}
	return cmdutil.PrintResource(os.Stdout, view, view)
}

var _ output.TableRenderer = documentView{}
