package commands

import "testing"

func TestSplitPathValue(t *testing.T) {
	path, value, err := splitPathValue(`foo.bar="baz"`)
	if err != nil {
		t.Fatalf("splitPathValue: %v", err)
	}
	if path != "foo.bar" || value != `"baz"` {
		t.Errorf("splitPathValue = (%q, %q), want (%q, %q)", path, value, "foo.bar", `"baz"`)
	}
}

func TestSplitPathValueMissingEquals(t *testing.T) {
	if _, _, err := splitPathValue("foo.bar"); err == nil {
		t.Fatal("expected error for missing '='")
	}
}
