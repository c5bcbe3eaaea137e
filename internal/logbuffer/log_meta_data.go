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

// PartitionCount is the fixed number of term buffers rotated round-robin.
const PartitionCount = 3

// Metadata buffer layout (little-endian). Every field is naturally aligned
// to at least its own width so the atomic accessors in atomic_buffer.go
// never need to special-case misalignment.
const (
	rawTail0Offset              = 0
	rawTail1Offset              = 8
	rawTail2Offset              = 16
	activePartitionIndexOffset  = 24
	initialTermIDOffset         = 28
	mtuLengthOffset             = 32
	termLengthOffset            = 36
	timeOfLastStatusMsgOffset   = 40
	defaultFrameHeaderOffset    = 48

	// MetaDataLength is the total size reserved for the metadata region.
	// defaultFrameHeaderOffset + HeaderLength, rounded up to a cache line.
	MetaDataLength = 128
)

var rawTailOffsets = [PartitionCount]int{rawTail0Offset, rawTail1Offset, rawTail2Offset}

// LogMetaData is a typed, ordering-aware view over the log's metadata
// buffer. It never copies; every accessor reads or writes directly through
// to the backing byte slice, which for a real log is the memory-mapped
// metadata region shared with consumers and the media driver.
type LogMetaData struct {
	buf []byte
}

// NewLogMetaData wraps an existing metadata-sized byte slice. The slice is
// not copied; callers own its lifetime (typically LogBuffers' mmap region).
func NewLogMetaData(buf []byte) (*LogMetaData, error) {
	if len(buf) < MetaDataLength {
		return nil, fmt.Errorf("logbuffer: metadata buffer too small: have %d bytes, need %d", len(buf), MetaDataLength)
	}
	return &LogMetaData{buf: buf}, nil
}

// InitLogMetaData stamps the initial contents of a freshly created log's
// metadata region: the first partition active at termOffset 0 of
// initialTermID, the other two partitions pre-seeded for the terms they'll
// rotate into, and the static mtu/term-length/header-template fields.
func InitLogMetaData(
	buf []byte,
	initialTermID int32,
	activePartitionIndex int32,
	mtuLength int32,
	termLength int32,
	defaultFrameHeader []byte,
) (*LogMetaData, error) {
	md, err := NewLogMetaData(buf)
	if err != nil {
		return nil, err
	}
	for i := 0; i < PartitionCount; i++ {
		termID := initialTermID + int32(i)
		md.SetRawTail(i, PackRawTail(termID, 0))
	}
	md.SetActivePartitionIndexOrdered(activePartitionIndex)
	md.setInitialTermID(initialTermID)
	md.setMTULength(mtuLength)
	md.setTermLength(termLength)
	md.SetTimeOfLastStatusMessage(0)
	if len(defaultFrameHeader) != HeaderLength {
		return nil, fmt.Errorf("logbuffer: default frame header must be %d bytes, got %d", HeaderLength, len(defaultFrameHeader))
	}
	copy(md.buf[defaultFrameHeaderOffset:defaultFrameHeaderOffset+HeaderLength], defaultFrameHeader)
	return md, nil
}

// RawTail reads partition index's raw tail with a relaxed (Load) ordering,
// suitable for the writer's own observation of the partition it owns.
func (m *LogMetaData) RawTail(partitionIndex int) RawTail {
	return RawTail(loadInt64Relaxed(m.buf, rawTailOffsets[partitionIndex]))
}

// RawTailVolatile reads partition index's raw tail with acquire ordering,
// for cross-thread/cross-process observers such as Publication.Position().
func (m *LogMetaData) RawTailVolatile(partitionIndex int) RawTail {
	return RawTail(loadUint64Acquire(m.buf, rawTailOffsets[partitionIndex]))
}

// SetRawTail bulk-stores a partition's raw tail. Used only at construction
// and rotation time, when the writer has exclusive access.
func (m *LogMetaData) SetRawTail(partitionIndex int, tail RawTail) {
	storeInt64Release(m.buf, rawTailOffsets[partitionIndex], int64(tail))
}

// CompareAndSetRawTail attempts to move partition index's raw tail from
// expected to updated, returning whether it succeeded. This is the single
// synchronization primitive the term appender's reservation algorithm uses.
func (m *LogMetaData) CompareAndSetRawTail(partitionIndex int, expected, updated RawTail) bool {
	return compareAndSwapInt64(m.buf, rawTailOffsets[partitionIndex], int64(expected), int64(updated))
}

// ActivePartitionIndexVolatile reads the active partition index with
// acquire ordering.
func (m *LogMetaData) ActivePartitionIndexVolatile() int32 {
	return loadInt32Acquire(m.buf, activePartitionIndexOffset)
}

// SetActivePartitionIndexOrdered publishes a new active partition index
// with release ordering so observers that acquire-read it also see every
// write ordered-before this call (notably the new partition's raw tail).
func (m *LogMetaData) SetActivePartitionIndexOrdered(index int32) {
	storeInt32Release(m.buf, activePartitionIndexOffset, index)
}

func (m *LogMetaData) setInitialTermID(termID int32) {
	binary.LittleEndian.PutUint32(m.buf[initialTermIDOffset:], uint32(termID))
}

// InitialTermID returns the term id the log started at; it never changes
// after construction.
func (m *LogMetaData) InitialTermID() int32 {
	return int32(binary.LittleEndian.Uint32(m.buf[initialTermIDOffset:]))
}

func (m *LogMetaData) setMTULength(mtu int32) {
	binary.LittleEndian.PutUint32(m.buf[mtuLengthOffset:], uint32(mtu))
}

// MTULength returns the configured MTU; fixed for the life of the log. This
// module does not support reconfiguring the MTU of an already-created log.
func (m *LogMetaData) MTULength() int32 {
	return int32(binary.LittleEndian.Uint32(m.buf[mtuLengthOffset:]))
}

func (m *LogMetaData) setTermLength(length int32) {
	binary.LittleEndian.PutUint32(m.buf[termLengthOffset:], uint32(length))
}

// TermLength returns the configured term (partition) length in bytes.
func (m *LogMetaData) TermLength() int32 {
	return int32(binary.LittleEndian.Uint32(m.buf[termLengthOffset:]))
}

// TimeOfLastStatusMessage reads, with acquire ordering, the last time (as a
// caller-defined epoch, typically nanoseconds) a status message was
// observed from a subscriber. Written by the media driver conductor in a
// real deployment; in this module it is written by whatever ConductorLink
// implementation stands in for the driver.
func (m *LogMetaData) TimeOfLastStatusMessage() int64 {
	return int64(loadUint64Acquire(m.buf, timeOfLastStatusMsgOffset))
}

// SetTimeOfLastStatusMessage publishes a new last-status-message timestamp
// with release ordering.
func (m *LogMetaData) SetTimeOfLastStatusMessage(t int64) {
	storeUint64Release(m.buf, timeOfLastStatusMsgOffset, uint64(t))
}

// DefaultFrameHeader returns the 32-byte template HeaderWriter stamps into
// every reserved frame. The returned slice aliases the metadata buffer; it
// must not be mutated by callers outside of InitLogMetaData.
func (m *LogMetaData) DefaultFrameHeader() []byte {
	return m.buf[defaultFrameHeaderOffset : defaultFrameHeaderOffset+HeaderLength]
}
