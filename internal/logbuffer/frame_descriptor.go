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

// Frame header layout (32 bytes, little-endian, aligned to FrameAlignment):
//
//	int32  frameLength    // published with release semantics; negative while under construction
//	uint8  version
//	uint8  flags          // BeginFrag | EndFrag
//	uint16 frameType
//	int32  termOffset
//	int32  sessionID
//	int32  streamID
//	int32  termID
//	int64  reservedValue
const (
	// HeaderLength is the size in bytes of a frame header.
	HeaderLength = 32

	// FrameAlignment is the boundary every frame is aligned to.
	FrameAlignment = 32

	frameLengthFieldOffset   = 0
	versionFieldOffset       = 4
	flagsFieldOffset         = 5
	typeFieldOffset          = 6
	termOffsetFieldOffset    = 8
	sessionIDFieldOffset     = 12
	streamIDFieldOffset      = 16
	termIDFieldOffset        = 20
	reservedValueFieldOffset = 24
)

// Flags stamped in a frame header's flags byte.
const (
	BeginFragFlag uint8 = 0x80
	EndFragFlag   uint8 = 0x40
	UnfragmentedFlags = BeginFragFlag | EndFragFlag
)

// FrameType values.
const (
	FrameTypePad FrameType = 0x00
	FrameTypeMsg FrameType = 0x01
)

// FrameType is the 16-bit type field in a frame header.
type FrameType uint16

// AlignedLength returns the total on-wire frame size (header plus payload)
// for a payload of payloadLength bytes, rounded up to FrameAlignment:
// (payloadLength + HeaderLength + 31) &^ 31.
func AlignedLength(payloadLength int32) int32 {
	return (payloadLength + HeaderLength + FrameAlignment - 1) &^ (FrameAlignment - 1)
}

// IsPaddingFrame reports whether the frame type stamped at the given header
// offset is the padding type.
func IsPaddingFrame(buf []byte, frameOffset int32) bool {
	return FrameType(binary.LittleEndian.Uint16(buf[int(frameOffset)+typeFieldOffset:])) == FrameTypePad
}

// FrameLengthVolatile reads the frame-length field with acquire semantics.
// frame_length is published last by the writer with release ordering, so an
// acquire load here is the synchronization point a consumer needs before it
// may read the rest of the frame.
func FrameLengthVolatile(buf []byte, frameOffset int32) int32 {
	return int32(loadUint32Acquire(buf, int(frameOffset)+frameLengthFieldOffset))
}

// FrameLengthOrdered publishes the frame-length field with release
// semantics, making the frame (header and payload, already written) visible
// to consumers.
func FrameLengthOrdered(buf []byte, frameOffset int32, frameLength int32) {
	storeUint32Release(buf, int(frameOffset)+frameLengthFieldOffset, uint32(frameLength))
}

// TermID reads the term_id field of the frame at frameOffset.
func TermID(buf []byte, frameOffset int32) int32 {
	return int32(binary.LittleEndian.Uint32(buf[int(frameOffset)+termIDFieldOffset:]))
}

// TermOffset reads the term_offset field of the frame at frameOffset.
func TermOffset(buf []byte, frameOffset int32) int32 {
	return int32(binary.LittleEndian.Uint32(buf[int(frameOffset)+termOffsetFieldOffset:]))
}

// Flags reads the flags byte of the frame at frameOffset.
func Flags(buf []byte, frameOffset int32) uint8 {
	return buf[int(frameOffset)+flagsFieldOffset]
}

// SetFlags writes the flags byte of the frame at frameOffset. Bulk, non-atomic.
func SetFlags(buf []byte, frameOffset int32, flags uint8) {
	buf[int(frameOffset)+flagsFieldOffset] = flags
}

// Type reads the frame type field at frameOffset.
func Type(buf []byte, frameOffset int32) FrameType {
	return FrameType(binary.LittleEndian.Uint16(buf[int(frameOffset)+typeFieldOffset:]))
}

// SetType writes the frame type field at frameOffset. Bulk, non-atomic.
func SetType(buf []byte, frameOffset int32, t FrameType) {
	binary.LittleEndian.PutUint16(buf[int(frameOffset)+typeFieldOffset:], uint16(t))
}

// PutPaddingFrame stamps a padding frame header covering [frameOffset,
// frameOffset+paddingLength) and publishes its (positive) frame length with
// release ordering, so that the trailing bytes of a term are immediately
// skippable by any consumer.
func PutPaddingFrame(buf []byte, frameOffset int32, paddingLength int32, termID int32) {
	binary.LittleEndian.PutUint32(buf[int(frameOffset)+termOffsetFieldOffset:], uint32(frameOffset))
	binary.LittleEndian.PutUint32(buf[int(frameOffset)+termIDFieldOffset:], uint32(termID))
	buf[int(frameOffset)+versionFieldOffset] = 0
	SetFlags(buf, frameOffset, UnfragmentedFlags)
	SetType(buf, frameOffset, FrameTypePad)
	FrameLengthOrdered(buf, frameOffset, paddingLength)
}

// ComputeMaxMessageLength returns the largest message that can be
// fragmented into a single term: one eighth of the term length, capped at
// 16 MiB so a single message can never dominate a term.
func ComputeMaxMessageLength(termLength int32) int32 {
	const maxMessageLengthCap = 16 * 1024 * 1024
	eighth := termLength / 8
	if eighth > maxMessageLengthCap {
		return maxMessageLengthCap
	}
	return eighth
}
