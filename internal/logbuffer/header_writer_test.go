package logbuffer

import (
	"encoding/binary"
	"testing"
)

func defaultHeaderTemplate(sessionID, streamID int32) []byte {
	tmpl := make([]byte, HeaderLength)
	binary.LittleEndian.PutUint32(tmpl[sessionIDFieldOffset:], uint32(sessionID))
	binary.LittleEndian.PutUint32(tmpl[streamIDFieldOffset:], uint32(streamID))
	tmpl[versionFieldOffset] = 1
	return tmpl
}

func TestHeaderWriterStampsSentinelAndFields(t *testing.T) {
	w := NewHeaderWriter(defaultHeaderTemplate(42, 7))

	buf := make([]byte, 128)
	w.Write(buf, 32, 96, 3)

	if got := FrameLengthVolatile(buf, 32); got != -96 {
		t.Fatalf("expected negative sentinel -96, got %d", got)
	}
	if got := TermOffset(buf, 32); got != 32 {
		t.Fatalf("expected term_offset 32, got %d", got)
	}
	if got := TermID(buf, 32); got != 3 {
		t.Fatalf("expected term_id 3, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(buf[32+sessionIDFieldOffset:]); got != 42 {
		t.Fatalf("expected session_id 42, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(buf[32+streamIDFieldOffset:]); got != 7 {
		t.Fatalf("expected stream_id 7, got %d", got)
	}
	if got := buf[32+versionFieldOffset]; got != 1 {
		t.Fatalf("expected version byte carried from template, got %d", got)
	}
}

func TestHeaderWriterTemplateIsCopiedNotAliased(t *testing.T) {
	template := defaultHeaderTemplate(1, 1)
	w := NewHeaderWriter(template)

	// mutate the original template after construction
	template[versionFieldOffset] = 99

	buf := make([]byte, 64)
	w.Write(buf, 0, 32, 1)

	if got := buf[versionFieldOffset]; got == 99 {
		t.Fatalf("HeaderWriter aliased the caller's template instead of copying it")
	}
}
