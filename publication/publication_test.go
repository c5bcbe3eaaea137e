package publication

import (
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/real-logic/aeron-go/internal/logbuffer"
	"github.com/real-logic/aeron-go/localconductor"
)

// Frame header field offsets, duplicated from the external wire layout
// (not logbuffer internals), so safe to hardcode here.
const (
	hdrSessionIDOffset = 12
	hdrStreamIDOffset  = 16
)

func headerTemplate(sessionID, streamID int32) []byte {
	h := make([]byte, logbuffer.HeaderLength)
	binary.LittleEndian.PutUint32(h[hdrSessionIDOffset:], uint32(sessionID))
	binary.LittleEndian.PutUint32(h[hdrStreamIDOffset:], uint32(streamID))
	return h
}

type testFixture struct {
	pub        *ExclusivePublication
	logBuffers *logbuffer.LogBuffers
	conductor  *localconductor.Conductor
	limit      *AtomicPosition
}

func newFixture(t *testing.T, termLength, mtuLength int32, positionLimit int64) *testFixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "pub.log")

	lb, err := logbuffer.CreateLogBuffers(path, termLength, 1, mtuLength, headerTemplate(7, 42))
	if err != nil {
		t.Fatalf("CreateLogBuffers: %v", err)
	}
	t.Cleanup(func() { lb.Close() })

	conductor := localconductor.New(nil, time.Hour)
	conductor.Register(1, lb)

	limit := NewAtomicPosition(positionLimit)

	pub, err := NewExclusivePublication("aeron:ipc", 42, 7, 1, lb, limit, conductor)
	if err != nil {
		t.Fatalf("NewExclusivePublication: %v", err)
	}

	return &testFixture{pub: pub, logBuffers: lb, conductor: conductor, limit: limit}
}

func TestOfferSingleFrame(t *testing.T) {
	f := newFixture(t, 64*1024, 4096, 1<<40)

	msg := make([]byte, 100)
	pos := f.pub.Offer(msg, 0, int32(len(msg)), nil)
	if pos != 160 {
		t.Fatalf("expected position 160, got %d", pos)
	}

	term := f.logBuffers.TermBuffers()[0]
	if got := logbuffer.FrameLengthVolatile(term, 0); got != 100+logbuffer.HeaderLength {
		t.Fatalf("expected frame length %d, got %d", 100+logbuffer.HeaderLength, got)
	}
	if got := logbuffer.Flags(term, 0); got != logbuffer.UnfragmentedFlags {
		t.Fatalf("expected BEGIN|END flags, got %#x", got)
	}
}

func TestOfferFillsTermThenRotates(t *testing.T) {
	termLength := int32(64 * 1024)
	f := newFixture(t, termLength, 4096, 1<<40)

	msg := make([]byte, 4064)
	var last int64
	for i := 0; i < 16; i++ {
		last = f.pub.Offer(msg, 0, int32(len(msg)), nil)
		if last <= 0 {
			t.Fatalf("offer %d failed unexpectedly: %d", i, last)
		}
	}
	if last != 65536 {
		t.Fatalf("expected 16th offer to land at position 65536, got %d", last)
	}

	// The term is now exactly full; the next offer must trip and rotate.
	if got := f.pub.Offer(msg, 0, int32(len(msg)), nil); got != AdminAction {
		t.Fatalf("expected AdminAction on the trip, got %d", got)
	}

	// Retrying immediately succeeds in the newly active (second) partition.
	if got := f.pub.Offer(msg, 0, int32(len(msg)), nil); got != 69632 {
		t.Fatalf("expected retry to land at position 69632, got %d", got)
	}
	if f.pub.SessionID() != 7 || f.pub.StreamID() != 42 {
		t.Fatalf("accessors out of sync with constructor args")
	}
}

func TestOfferFragmentsLargeMessage(t *testing.T) {
	f := newFixture(t, 64*1024, 1408, 1<<40)

	if got := f.pub.MaxPayloadLength(); got != 1376 {
		t.Fatalf("expected maxPayloadLength 1376, got %d", got)
	}

	msg := make([]byte, 4000)
	for i := range msg {
		msg[i] = byte(i)
	}

	pos := f.pub.Offer(msg, 0, int32(len(msg)), nil)
	if pos <= 0 {
		t.Fatalf("fragmented offer failed: %d", pos)
	}

	term := f.logBuffers.TermBuffers()[0]
	var reassembled []byte
	walked := int32(0)
	fragCount := 0
	for walked < int32(pos) {
		length := logbuffer.FrameLengthVolatile(term, walked)
		fragCount++
		start := walked + logbuffer.HeaderLength
		reassembled = append(reassembled, term[start:start+length-logbuffer.HeaderLength]...)
		walked += logbuffer.AlignedLength(length - logbuffer.HeaderLength)
	}
	if fragCount != 3 {
		t.Fatalf("expected 3 fragments, got %d", fragCount)
	}
	if len(reassembled) != len(msg) {
		t.Fatalf("reassembled length mismatch: got %d want %d", len(reassembled), len(msg))
	}
	for i := range msg {
		if reassembled[i] != msg[i] {
			t.Fatalf("reassembled payload mismatch at byte %d", i)
		}
	}
}

func TestOfferBackPressureWhenNotConnected(t *testing.T) {
	f := newFixture(t, 64*1024, 4096, 1024)

	msg := make([]byte, 1024)
	if got := f.pub.Offer(msg, 0, int32(len(msg)), nil); got != 1056 {
		t.Fatalf("expected first offer at position 1056, got %d", got)
	}

	// position (1056) now exceeds the frozen limit (1024); no recent status
	// message has been recorded, so the conductor reports not-connected.
	if got := f.pub.Offer(msg, 0, int32(len(msg)), nil); got != NotConnected {
		t.Fatalf("expected NotConnected, got %d", got)
	}

	// Recording a recent status message flips the same situation to
	// BackPressured instead.
	f.logBuffers.MetaDataBuffer().SetTimeOfLastStatusMessage(time.Now().UnixNano())
	if got := f.pub.Offer(msg, 0, int32(len(msg)), nil); got != BackPressured {
		t.Fatalf("expected BackPressured, got %d", got)
	}
}

func TestTryClaimRejectsOversizedLength(t *testing.T) {
	f := newFixture(t, 64*1024, 1408, 1<<40)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for tryClaim length exceeding maxPayloadLength")
		}
	}()
	var claim logbuffer.BufferClaim
	f.pub.TryClaim(2000, &claim)
}

func TestTryClaimCommitRoundTrip(t *testing.T) {
	f := newFixture(t, 64*1024, 4096, 1<<40)

	var claim logbuffer.BufferClaim
	pos := f.pub.TryClaim(64, &claim)
	if pos <= 0 {
		t.Fatalf("tryClaim failed: %d", pos)
	}
	copy(claim.Buffer()[claim.Offset():claim.Offset()+claim.Length()], []byte("claimed payload"))
	if err := claim.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	term := f.logBuffers.TermBuffers()[0]
	if got := logbuffer.FrameLengthVolatile(term, 0); got != 64+logbuffer.HeaderLength {
		t.Fatalf("expected committed frame length, got %d", got)
	}
}

func TestCloseMakesEveryOperationReturnClosed(t *testing.T) {
	f := newFixture(t, 64*1024, 4096, 1<<40)

	f.pub.Close()
	if !f.pub.IsClosed() {
		t.Fatalf("expected IsClosed true after Close")
	}

	msg := make([]byte, 16)
	if got := f.pub.Offer(msg, 0, int32(len(msg)), nil); got != Closed {
		t.Fatalf("expected Closed from Offer, got %d", got)
	}
	var claim logbuffer.BufferClaim
	if got := f.pub.TryClaim(16, &claim); got != Closed {
		t.Fatalf("expected Closed from TryClaim, got %d", got)
	}
	if got := f.pub.Position(); got != Closed {
		t.Fatalf("expected Closed from Position, got %d", got)
	}
	if got := f.pub.PositionLimit(); got != Closed {
		t.Fatalf("expected Closed from PositionLimit, got %d", got)
	}

	// Close is idempotent: a second call must not panic or re-release.
	f.pub.Close()
}

func TestPositionIsMonotonic(t *testing.T) {
	f := newFixture(t, 64*1024, 4096, 1<<40)

	var prev int64
	for i := 0; i < 5; i++ {
		msg := make([]byte, 200)
		pos := f.pub.Offer(msg, 0, int32(len(msg)), nil)
		if pos <= prev {
			t.Fatalf("position did not advance: prev=%d got=%d", prev, pos)
		}
		if pos%logbuffer.FrameAlignment != 0 {
			t.Fatalf("position %d not frame-aligned", pos)
		}
		prev = pos
	}
}

func TestOfferRejectsMessageLargerThanMaxMessageLength(t *testing.T) {
	f := newFixture(t, 64*1024, 4096, 1<<40)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for message exceeding maxMessageLength")
		}
	}()
	msg := make([]byte, f.pub.MaxMessageLength()+1)
	f.pub.Offer(msg, 0, int32(len(msg)), nil)
}
