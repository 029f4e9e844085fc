package memdx

import (
	"encoding/binary"
	"testing"

	"github.com/couchbase/gocbcorex/internal/kverrors"
)

func mutateInFailurePacket(status Status, opIndex int) Packet {
	value := make([]byte, 3)
	value[0] = byte(opIndex)
	binary.BigEndian.PutUint16(value[1:3], uint16(status))
	return Packet{Status: StatusSubDocMultiPathFailure, Value: value}
}

func TestDecodeMutateInResponseAddDocNotStoredIsKeyExists(t *testing.T) {
	p := mutateInFailurePacket(StatusNotStored, 0)

	_, err := DecodeMutateInResponse(p, true)
	if err == nil || err.Kind != kverrors.KindKeyExists {
		t.Fatalf("AddDoc MutateIn NotStored kind = %v, want KeyExists", err)
	}
}

func TestDecodeMutateInResponseNotStoredWithoutAddDocIsCasMismatch(t *testing.T) {
	p := mutateInFailurePacket(StatusNotStored, 0)

	_, err := DecodeMutateInResponse(p, false)
	if err == nil || err.Kind != kverrors.KindCasMismatch {
		t.Fatalf("non-AddDoc MutateIn NotStored kind = %v, want CasMismatch", err)
	}
}

func TestDecodeMutateInResponseCommonPathHonorsAddDoc(t *testing.T) {
	p := Packet{Status: StatusNotStored}

	_, err := DecodeMutateInResponse(p, true)
	if err == nil || err.Kind != kverrors.KindKeyExists {
		t.Fatalf("common-path AddDoc MutateIn NotStored kind = %v, want KeyExists", err)
	}
}

func TestDecodeMutateInResponseSuccess(t *testing.T) {
	p := Packet{Status: StatusSuccess, CAS: 42}

	resp, err := DecodeMutateInResponse(p, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CAS != 42 {
		t.Errorf("CAS = %d, want 42", resp.CAS)
	}
}
