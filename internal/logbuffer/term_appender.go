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

import "fmt"

// Tripped is returned by the append/claim operations when a reservation
// would cross the end of the term: a padding frame has been written over
// the remainder and the caller must retry in the next term.
const Tripped int32 = -1

// ReservedValueSupplier computes the 8-byte reserved_value field of a frame
// header. It runs after the payload has been copied, so it may observe the
// final bytes.
type ReservedValueSupplier func(termBuffer []byte, termOffset, frameLength int32) int64

// ExclusiveTermAppender owns the single-writer append path into one term
// partition. It does not track termID/termOffset itself (the Publication
// is the sole writer and passes both in on every call), so an
// ExclusiveTermAppender has no mutable state of its own beyond the shared
// term buffer and metadata it was constructed with.
type ExclusiveTermAppender struct {
	termBuffer     []byte
	metaData       *LogMetaData
	partitionIndex int
}

// NewExclusiveTermAppender wraps one partition's term buffer.
func NewExclusiveTermAppender(termBuffer []byte, metaData *LogMetaData, partitionIndex int) *ExclusiveTermAppender {
	return &ExclusiveTermAppender{
		termBuffer:     termBuffer,
		metaData:       metaData,
		partitionIndex: partitionIndex,
	}
}

// RawTail reads this partition's raw tail with relaxed ordering, for the
// writer's own bookkeeping.
func (a *ExclusiveTermAppender) RawTail() RawTail {
	return a.metaData.RawTail(a.partitionIndex)
}

// RawTailVolatile reads this partition's raw tail with acquire ordering,
// for cross-thread observers.
func (a *ExclusiveTermAppender) RawTailVolatile() RawTail {
	return a.metaData.RawTailVolatile(a.partitionIndex)
}

// TailTermID seeds this partition's raw tail to (nextTermID, 0), called by
// the Publication exactly once per rotation, immediately after it decides
// this partition is becoming active.
func (a *ExclusiveTermAppender) TailTermID(nextTermID int32) {
	a.metaData.SetRawTail(a.partitionIndex, PackRawTail(nextTermID, 0))
}

// claimCapacity implements the term reservation algorithm: it
// moves this partition's raw tail forward by requiredLength bytes via
// compare-and-swap, or, if that would cross the end of the term, claims
// exactly the remainder as padding and reports Tripped.
//
// termID and termOffset are the caller's (the Publication's) believed
// current position; they must agree with the raw tail's own term id or the
// log has been corrupted by something other than this writer.
func (a *ExclusiveTermAppender) claimCapacity(termID, termOffset, requiredLength int32) int32 {
	termLength := int32(len(a.termBuffer))

	for {
		rawTail := a.RawTail()
		if rawTail.TermID() != termID {
			panic(fmt.Sprintf(
				"logbuffer: raw tail term id %d does not match expected %d on partition %d: log corrupted",
				rawTail.TermID(), termID, a.partitionIndex))
		}

		currentOffset := int32(int64(rawTail) & 0xFFFFFFFF)
		if currentOffset >= termLength {
			return Tripped
		}

		resultingOffset := currentOffset + requiredLength
		newRawTail := PackRawTail(termID, resultingOffset)

		if resultingOffset > termLength {
			paddedTail := PackRawTail(termID, termLength)
			if !a.metaData.CompareAndSetRawTail(a.partitionIndex, rawTail, paddedTail) {
				continue
			}
			if currentOffset < termLength {
				PutPaddingFrame(a.termBuffer, currentOffset, termLength-currentOffset, termID)
			}
			return Tripped
		}

		if !a.metaData.CompareAndSetRawTail(a.partitionIndex, rawTail, newRawTail) {
			continue
		}

		return currentOffset
	}
}

// AppendUnfragmentedMessage reserves and writes a single frame carrying the
// whole message, BEGIN|END, and returns the new term offset, or Tripped if
// the reservation crossed the end of the term.
func (a *ExclusiveTermAppender) AppendUnfragmentedMessage(
	termID, termOffset int32,
	header *HeaderWriter,
	src []byte,
	srcOffset, length int32,
	reservedValueSupplier ReservedValueSupplier,
) int32 {
	frameLength := length + HeaderLength
	requiredLength := AlignedLength(length)

	resultingOffset := a.claimCapacity(termID, termOffset, requiredLength)
	if resultingOffset == Tripped {
		return Tripped
	}

	frameOffset := resultingOffset
	header.Write(a.termBuffer, frameOffset, frameLength, termID)
	copy(a.termBuffer[frameOffset+HeaderLength:frameOffset+HeaderLength+length], src[srcOffset:srcOffset+length])

	if reservedValueSupplier != nil {
		reserved := reservedValueSupplier(a.termBuffer, termOffset, frameLength)
		(&BufferClaim{buf: a.termBuffer, frameOffset: frameOffset, frameLength: frameLength}).SetReservedValue(reserved)
	}

	SetFlags(a.termBuffer, frameOffset, UnfragmentedFlags)
	FrameLengthOrdered(a.termBuffer, frameOffset, frameLength)

	return frameOffset + requiredLength
}

// AppendFragmentedMessage splits a message larger than maxPayloadLength
// into fragments of at most maxPayloadLength bytes, reserving their total
// aligned length in a single raw-tail update, then writes and publishes
// each fragment in order. The first fragment carries BEGIN, the last
// carries END, interior fragments carry neither. If the reservation
// crosses the end of the term the whole message is rejected: a single
// padding frame covers the remainder and the caller must retry in the next
// term.
func (a *ExclusiveTermAppender) AppendFragmentedMessage(
	termID, termOffset int32,
	header *HeaderWriter,
	src []byte,
	srcOffset, length, maxPayloadLength int32,
	reservedValueSupplier ReservedValueSupplier,
) int32 {
	numMaxPayloads := length / maxPayloadLength
	remainingPayload := length % maxPayloadLength
	lastFrameLength := int32(0)
	if remainingPayload > 0 {
		lastFrameLength = AlignedLength(remainingPayload)
	}
	requiredLength := numMaxPayloads*AlignedLength(maxPayloadLength) + lastFrameLength

	resultingOffset := a.claimCapacity(termID, termOffset, requiredLength)
	if resultingOffset == Tripped {
		return Tripped
	}

	frameOffset := resultingOffset
	remaining := length
	srcPos := srcOffset

	for remaining > 0 {
		bytesToWrite := maxPayloadLength
		if remaining < bytesToWrite {
			bytesToWrite = remaining
		}
		frameLength := bytesToWrite + HeaderLength

		header.Write(a.termBuffer, frameOffset, frameLength, termID)
		copy(a.termBuffer[frameOffset+HeaderLength:frameOffset+HeaderLength+bytesToWrite], src[srcPos:srcPos+bytesToWrite])

		var flags uint8
		if srcPos == srcOffset {
			flags |= BeginFragFlag
		}
		remaining -= bytesToWrite
		srcPos += bytesToWrite
		if remaining == 0 {
			flags |= EndFragFlag
		}

		if reservedValueSupplier != nil {
			reserved := reservedValueSupplier(a.termBuffer, frameOffset, frameLength)
			(&BufferClaim{buf: a.termBuffer, frameOffset: frameOffset, frameLength: frameLength}).SetReservedValue(reserved)
		}

		SetFlags(a.termBuffer, frameOffset, flags)
		FrameLengthOrdered(a.termBuffer, frameOffset, frameLength)

		frameOffset += AlignedLength(bytesToWrite)
	}

	return resultingOffset + requiredLength
}

// Claim reserves alignedLength(length) bytes, writes the frame header with
// the negative-length sentinel, and populates bufferClaim so the caller can
// write the payload directly with zero-copy semantics. The caller must
// call bufferClaim.Commit or bufferClaim.Abort exactly once.
func (a *ExclusiveTermAppender) Claim(
	termID, termOffset int32,
	header *HeaderWriter,
	length int32,
	bufferClaim *BufferClaim,
) int32 {
	frameLength := length + HeaderLength
	requiredLength := AlignedLength(length)

	resultingOffset := a.claimCapacity(termID, termOffset, requiredLength)
	if resultingOffset == Tripped {
		return Tripped
	}

	frameOffset := resultingOffset
	header.Write(a.termBuffer, frameOffset, frameLength, termID)
	bufferClaim.wrap(a.termBuffer, frameOffset, frameLength)

	return frameOffset + requiredLength
}
