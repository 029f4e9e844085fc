package memdx

import (
	"testing"

	"github.com/couchbase/gocbcorex/internal/kverrors"
)

func TestClassifyStatusNotStored(t *testing.T) {
	cases := []struct {
		name string
		opts ClassifyOpts
		want kverrors.Kind
	}{
		{"default maps to CasMismatch", ClassifyOpts{}, kverrors.KindCasMismatch},
		{"AddOnly MutateIn maps to KeyExists", ClassifyOpts{IsAddOnly: true}, kverrors.KindKeyExists},
		{"Append/Prepend maps to KeyNotFound", ClassifyOpts{IsAppendPrepend: true}, kverrors.KindKeyNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ClassifyStatus(StatusNotStored, "op", c.opts)
			if err == nil || err.Kind != c.want {
				t.Fatalf("ClassifyStatus(StatusNotStored, %+v) kind = %v, want %v", c.opts, err, c.want)
			}
		})
	}
}

func TestClassifyStatusKeyExists(t *testing.T) {
	if err := ClassifyStatus(StatusKeyExists, "op", ClassifyOpts{HadCAS: true}); err == nil || err.Kind != kverrors.KindCasMismatch {
		t.Fatalf("KeyExists with HadCAS = %v, want CasMismatch", err)
	}
	if err := ClassifyStatus(StatusKeyExists, "op", ClassifyOpts{}); err == nil || err.Kind != kverrors.KindKeyExists {
		t.Fatalf("KeyExists without HadCAS = %v, want KeyExists", err)
	}
}

func TestClassifyStatusSuccess(t *testing.T) {
	if err := ClassifyStatus(StatusSuccess, "op", ClassifyOpts{}); err != nil {
		t.Fatalf("StatusSuccess should classify to nil, got %v", err)
	}
}
