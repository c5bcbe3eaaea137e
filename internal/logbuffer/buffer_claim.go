/*
 *
 * Copyright 2025 Real Logic Ltd.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package logbuffer

import (
	"encoding/binary"
	"fmt"
)

// BufferClaim is a zero-copy handle over a region reserved by
// ExclusiveTermAppender.Claim. It borrows directly from the term buffer; the
// borrow is only safely released by exactly one of Commit or Abort. Using
// the buffer, or calling either method, after that release is a programmer
// error.
//
// The borrow cannot outlive the publication's open log mapping: BufferClaim
// holds no reference of its own to the mapping, only a slice view handed to
// it by the appender, so the caller is responsible for not retaining a
// BufferClaim past Publication.Close.
type BufferClaim struct {
	buf         []byte
	frameOffset int32
	frameLength int32
	released    bool
}

// wrap populates the claim over [frameOffset+HeaderLength, frameOffset+frameLength)
// of buf. Called only by the term appender, which has already written the
// frame header with the negative-length sentinel.
func (c *BufferClaim) wrap(buf []byte, frameOffset int32, frameLength int32) {
	c.buf = buf
	c.frameOffset = frameOffset
	c.frameLength = frameLength
	c.released = false
}

// Buffer returns the backing term buffer. Combine with Offset and Length to
// get the payload region, or use ReservedValue/SetReservedValue for the
// header's 8-byte reserved slot.
func (c *BufferClaim) Buffer() []byte {
	return c.buf
}

// Offset returns the start of the payload region within Buffer.
func (c *BufferClaim) Offset() int32 {
	return c.frameOffset + HeaderLength
}

// Length returns the length of the payload region.
func (c *BufferClaim) Length() int32 {
	return c.frameLength - HeaderLength
}

// ReservedValue reads the frame header's 8-byte reserved_value slot.
func (c *BufferClaim) ReservedValue() int64 {
	return int64(binary.LittleEndian.Uint64(c.buf[c.frameOffset+reservedValueFieldOffset:]))
}

// SetReservedValue writes the frame header's 8-byte reserved_value slot.
// Must be called before Commit; it runs after the payload is in place so it
// may observe the final bytes.
func (c *BufferClaim) SetReservedValue(value int64) {
	binary.LittleEndian.PutUint64(c.buf[c.frameOffset+reservedValueFieldOffset:], uint64(value))
}

// Commit publishes the frame by storing its positive length with release
// ordering, making it visible to consumers.
func (c *BufferClaim) Commit() error {
	if c.released {
		return fmt.Errorf("logbuffer: buffer claim already committed or aborted")
	}
	c.released = true
	FrameLengthOrdered(c.buf, c.frameOffset, c.frameLength)
	return nil
}

// Abort publishes a padding frame of the same length in place of the
// claimed region, so consumers skip over it cleanly, then releases the
// claim without ever exposing payload bytes to a consumer.
func (c *BufferClaim) Abort() error {
	if c.released {
		return fmt.Errorf("logbuffer: buffer claim already committed or aborted")
	}
	c.released = true
	SetType(c.buf, c.frameOffset, FrameTypePad)
	FrameLengthOrdered(c.buf, c.frameOffset, c.frameLength)
	return nil
}
