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

// RawTail packs (termID, tailOffset) into a single 64-bit word so a
// partition's term id and its next reservation point can be updated
// together with one atomic compare-and-swap.
type RawTail int64

// PackRawTail combines a term id and a tail offset into a RawTail.
func PackRawTail(termID int32, tailOffset int32) RawTail {
	return RawTail(int64(termID)<<32 | int64(uint32(tailOffset)))
}

// TermID extracts the high 32 bits: the term id this tail belongs to.
func (t RawTail) TermID() int32 {
	return int32(int64(t) >> 32)
}

// TailOffset extracts the low 32 bits: the next byte to reserve.
//
// The offset is clamped to termLength because a racing reservation can push
// tailOffset past the end of the term (the TRIPPED case); callers that need
// the writer's actual within-term position for computing a stream position
// should clamp against termLength the same way the Java source's
// termOffset(rawTail, termLength) helper does.
func (t RawTail) TailOffset(termLength int32) int32 {
	offset := int32(int64(t) & 0xFFFFFFFF)
	if offset > termLength {
		return termLength
	}
	return offset
}
