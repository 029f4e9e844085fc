package cmdutil

import (
	"bytes"
	"testing"

	"github.com/couchbase/gocbcorex/internal/cli/output"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "empty string", input: "", expected: nil},
		{name: "single item", input: "foo", expected: []string{"foo"}},
		{name: "multiple items", input: "foo,bar,baz", expected: []string{"foo", "bar", "baz"}},
		{name: "items with spaces", input: "foo, bar , baz", expected: []string{"foo", "bar", "baz"}},
		{name: "empty items filtered out", input: "foo,,bar,", expected: []string{"foo", "bar"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCommaSeparatedList(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("ParseCommaSeparatedList(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("ParseCommaSeparatedList(%q)[%d] = %q, want %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}

func TestBoolToYesNo(t *testing.T) {
	if BoolToYesNo(true) != "yes" {
		t.Error("expected yes")
	}
	if BoolToYesNo(false) != "no" {
		t.Error("expected no")
	}
}

func TestEmptyOr(t *testing.T) {
	if got := EmptyOr("", "-"); got != "-" {
		t.Errorf("EmptyOr(\"\", \"-\") = %q, want \"-\"", got)
	}
	if got := EmptyOr("value", "-"); got != "value" {
		t.Errorf("EmptyOr(\"value\", \"-\") = %q, want \"value\"", got)
	}
}

type testTableRenderer struct {
	headers []string
	rows    [][]string
}

func (t testTableRenderer) Headers() []string { return t.headers }
func (t testTableRenderer) Rows() [][]string  { return t.rows }

func TestPrintOutputJSON(t *testing.T) {
	Flags.Output = "json"
	defer func() { Flags.Output = "" }()

	var buf bytes.Buffer
	data := map[string]string{"key": "value"}
	if err := PrintOutput(&buf, data, false, "empty", testTableRenderer{}); err != nil {
		t.Fatalf("PrintOutput: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty JSON output")
	}
}

func TestPrintOutputTableEmpty(t *testing.T) {
	Flags.Output = "table"
	defer func() { Flags.Output = "" }()

	var buf bytes.Buffer
	if err := PrintOutput(&buf, nil, true, "nothing here", testTableRenderer{}); err != nil {
		t.Fatalf("PrintOutput: %v", err)
	}
	if buf.String() != "nothing here\n" {
		t.Errorf("PrintOutput empty = %q, want %q", buf.String(), "nothing here\n")
	}
}

func TestPrintResourceTable(t *testing.T) {
	Flags.Output = "table"
	defer func() { Flags.Output = "" }()

	var buf bytes.Buffer
	renderer := testTableRenderer{headers: []string{"A"}, rows: [][]string{{"1"}}}
	if err := PrintResource(&buf, renderer, renderer); err != nil {
		t.Fatalf("PrintResource: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected rendered table output")
	}
}

func TestGetOutputFormatParsedInvalid(t *testing.T) {
	Flags.Output = "xml"
	defer func() { Flags.Output = "" }()

	if _, err := GetOutputFormatParsed(); err == nil {
		t.Fatal("expected error for invalid output format")
	}
}

var _ output.TableRenderer = testTableRenderer{}
