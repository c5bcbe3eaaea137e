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

import "encoding/binary"

// HeaderWriter stamps the log's default frame header template into newly
// reserved space, patching the fields that vary per frame. It holds no
// mutable state beyond the immutable template copied out of the log's
// metadata at Publication construction time.
type HeaderWriter struct {
	sessionID int32
	streamID  int32
	template  [HeaderLength]byte
}

// NewHeaderWriter copies defaultHeader (the log metadata's 32-byte template)
// so that later changes to the backing metadata buffer don't affect
// already-constructed writers.
func NewHeaderWriter(defaultHeader []byte) *HeaderWriter {
	w := &HeaderWriter{}
	copy(w.template[:], defaultHeader)
	w.sessionID = int32(binary.LittleEndian.Uint32(w.template[sessionIDFieldOffset:]))
	w.streamID = int32(binary.LittleEndian.Uint32(w.template[streamIDFieldOffset:]))
	return w
}

// SessionID returns the session id cached from the header template.
func (w *HeaderWriter) SessionID() int32 {
	return w.sessionID
}

// StreamID returns the stream id cached from the header template.
func (w *HeaderWriter) StreamID() int32 {
	return w.streamID
}

// Write stamps a frame header into dst at frameOffset: the template bytes
// first, then term_offset, term_id, and a negative frame_length sentinel
// (-alignedFrameLength) so that a consumer racing the writer sees an
// incomplete frame and stops rather than reading torn payload bytes. The
// appender publishes the real, positive length later with a release store.
func (w *HeaderWriter) Write(dst []byte, frameOffset int32, frameLength int32, termID int32) {
	base := dst[frameOffset : frameOffset+HeaderLength]
	copy(base, w.template[:])
	binary.LittleEndian.PutUint32(base[termOffsetFieldOffset:], uint32(frameOffset))
	binary.LittleEndian.PutUint32(base[termIDFieldOffset:], uint32(termID))
	binary.LittleEndian.PutUint32(base[sessionIDFieldOffset:], uint32(w.sessionID))
	binary.LittleEndian.PutUint32(base[streamIDFieldOffset:], uint32(w.streamID))
	binary.LittleEndian.PutUint32(base[frameLengthFieldOffset:], uint32(-AlignedLength(frameLength-HeaderLength)))
}
