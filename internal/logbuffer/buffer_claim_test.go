package logbuffer

import (
	"bytes"
	"testing"
)

func TestBufferClaimCommitPublishesLength(t *testing.T) {
	buf := make([]byte, 128)
	header := NewHeaderWriter(defaultHeaderTemplate(1, 1))

	header.Write(buf, 0, 96, 5)

	var claim BufferClaim
	claim.wrap(buf, 0, 96)

	payload := []byte("hello, exclusive publication")
	copy(claim.Buffer()[claim.Offset():claim.Offset()+int32(len(payload))], payload)
	claim.SetReservedValue(0xBEEF)

	if err := claim.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if got := FrameLengthVolatile(buf, 0); got != 96 {
		t.Fatalf("expected published length 96, got %d", got)
	}
	if got := claim.ReservedValue(); got != 0xBEEF {
		t.Fatalf("expected reserved value preserved after commit, got %#x", got)
	}
	got := buf[HeaderLength : HeaderLength+int32(len(payload))]
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch: got %q", got)
	}
}

func TestBufferClaimAbortWritesPadding(t *testing.T) {
	buf := make([]byte, 128)
	header := NewHeaderWriter(defaultHeaderTemplate(1, 1))
	header.Write(buf, 0, 96, 5)

	var claim BufferClaim
	claim.wrap(buf, 0, 96)

	if err := claim.Abort(); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	if !IsPaddingFrame(buf, 0) {
		t.Fatalf("expected padding frame type after abort")
	}
	if got := FrameLengthVolatile(buf, 0); got != 96 {
		t.Fatalf("expected published length 96 after abort, got %d", got)
	}
}

func TestBufferClaimSecondReleaseIsAnError(t *testing.T) {
	buf := make([]byte, 128)
	header := NewHeaderWriter(defaultHeaderTemplate(1, 1))
	header.Write(buf, 0, 64, 1)

	var claim BufferClaim
	claim.wrap(buf, 0, 64)

	if err := claim.Commit(); err != nil {
		t.Fatalf("first Commit failed: %v", err)
	}
	if err := claim.Commit(); err == nil {
		t.Fatalf("expected error on second Commit")
	}
	if err := claim.Abort(); err == nil {
		t.Fatalf("expected error calling Abort after Commit")
	}
}
