package logbuffer

import "testing"

func TestAlignedLength(t *testing.T) {
	cases := []struct {
		payload int32
		want    int32
	}{
		{0, 32},
		{1, 64},
		{31, 64},
		{32, 64},
		{33, 96},
		{4064, 4096},
		{1376, 1408},
		{1248, 1280},
	}

	for _, c := range cases {
		if got := AlignedLength(c.payload); got != c.want {
			t.Errorf("AlignedLength(%d) = %d, want %d", c.payload, got, c.want)
		}
	}
}

func TestAlignedLengthIsAlwaysAligned(t *testing.T) {
	for payload := int32(0); payload < 2000; payload++ {
		got := AlignedLength(payload)
		if got%FrameAlignment != 0 {
			t.Fatalf("AlignedLength(%d) = %d is not %d-aligned", payload, got, FrameAlignment)
		}
		if got < payload+HeaderLength {
			t.Fatalf("AlignedLength(%d) = %d is smaller than header+payload %d", payload, got, payload+HeaderLength)
		}
	}
}

func TestFrameLengthPublication(t *testing.T) {
	buf := make([]byte, 128)

	FrameLengthOrdered(buf, 0, -64)
	if got := FrameLengthVolatile(buf, 0); got != -64 {
		t.Fatalf("expected sentinel -64 before publish, got %d", got)
	}

	FrameLengthOrdered(buf, 0, 64)
	if got := FrameLengthVolatile(buf, 0); got != 64 {
		t.Fatalf("expected published length 64, got %d", got)
	}
}

func TestPutPaddingFrame(t *testing.T) {
	buf := make([]byte, 128)
	PutPaddingFrame(buf, 0, 96, 7)

	if !IsPaddingFrame(buf, 0) {
		t.Fatalf("expected padding frame type")
	}
	if got := FrameLengthVolatile(buf, 0); got != 96 {
		t.Fatalf("expected padding frame length 96, got %d", got)
	}
	if got := Flags(buf, 0); got != UnfragmentedFlags {
		t.Fatalf("expected both fragment flags set on padding frame, got %#x", got)
	}
	if got := TermID(buf, 0); got != 7 {
		t.Fatalf("expected term id 7, got %d", got)
	}
}

func TestComputeMaxMessageLength(t *testing.T) {
	cases := []struct {
		termLength int32
		want       int32
	}{
		{64 * 1024, 8 * 1024},
		{128 * 1024 * 1024, 16 * 1024 * 1024},
		{256 * 1024 * 1024, 16 * 1024 * 1024},
	}
	for _, c := range cases {
		if got := ComputeMaxMessageLength(c.termLength); got != c.want {
			t.Errorf("ComputeMaxMessageLength(%d) = %d, want %d", c.termLength, got, c.want)
		}
	}
}
