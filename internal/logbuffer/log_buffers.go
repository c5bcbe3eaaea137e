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
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// MinTermLength and MaxTermLength bound a term partition's size: it must be
// a power of two between 64 KiB and 1 GiB.
const (
	MinTermLength = 64 * 1024
	MaxTermLength = 1 << 30
)

// LogBuffers owns the memory mapping backing a log: three equal-length term
// buffers plus the metadata region, laid out contiguously in a single file
// so that a single mmap call exposes the whole log to every process that
// opens it. It is shared across processes; the writer mutates its own
// partitions and raw tails, consumers only read.
type LogBuffers struct {
	file     *os.File
	lock     *flock.Flock
	mem      []byte
	terms    [PartitionCount][]byte
	metaData *LogMetaData
	termLen  int32
}

func isPowerOfTwo(n int32) bool {
	return n > 0 && n&(n-1) == 0
}

func validateTermLength(termLength int32) error {
	if !isPowerOfTwo(termLength) {
		return fmt.Errorf("logbuffer: term length %d is not a power of two", termLength)
	}
	if termLength < MinTermLength || termLength > MaxTermLength {
		return fmt.Errorf("logbuffer: term length %d outside [%d, %d]", termLength, MinTermLength, MaxTermLength)
	}
	return nil
}

func totalLogLength(termLength int32) int64 {
	return int64(termLength)*int64(PartitionCount) + int64(MetaDataLength)
}

// CreateLogBuffers creates and maps a new log file at path with three
// term-length partitions, seeding metadata for initialTermID/mtuLength and
// stamping defaultFrameHeader as the per-frame template. A sidecar
// <path>.lock advisory lock guards against a second process accidentally
// constructing a writer over the same log (the Non-goal is multi-writer
// safety on an established publication, not detecting a doubly-constructed
// one).
func CreateLogBuffers(
	path string,
	termLength int32,
	initialTermID int32,
	mtuLength int32,
	defaultFrameHeader []byte,
) (*LogBuffers, error) {
	if err := validateTermLength(termLength); err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("logbuffer: acquiring log lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("logbuffer: log %s is already held by another writer", path)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("logbuffer: creating log file %s: %w", path, err)
	}

	total := totalLogLength(termLength)
	if err := file.Truncate(total); err != nil {
		file.Close()
		os.Remove(path)
		lock.Unlock()
		return nil, fmt.Errorf("logbuffer: sizing log file: %w", err)
	}

	mem, err := mmapFile(file, total)
	if err != nil {
		file.Close()
		os.Remove(path)
		lock.Unlock()
		return nil, fmt.Errorf("logbuffer: mapping log file: %w", err)
	}

	lb := newLogBuffersFromMapping(file, lock, mem, termLength)

	activePartitionIndex := int32(0)
	metaData, err := InitLogMetaData(
		lb.metaDataRegion(), initialTermID, activePartitionIndex, mtuLength, termLength, defaultFrameHeader)
	if err != nil {
		lb.Close()
		os.Remove(path)
		return nil, err
	}
	lb.metaData = metaData

	return lb, nil
}

// OpenLogBuffers opens and maps an existing log file for a consumer or for
// a writer handed off from a conductor (in which case the caller is
// expected to already hold whatever external lock the conductor uses; this
// function does not itself take the advisory write lock, since readers
// must be able to open the log concurrently with the writer).
func OpenLogBuffers(path string) (*LogBuffers, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("logbuffer: opening log file %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("logbuffer: stat log file: %w", err)
	}
	if info.Size() < MetaDataLength {
		file.Close()
		return nil, fmt.Errorf("logbuffer: log file %s too small: %d bytes", path, info.Size())
	}

	mem, err := mmapFile(file, info.Size())
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("logbuffer: mapping log file: %w", err)
	}

	termLength := (int32(len(mem)) - MetaDataLength) / PartitionCount
	lb := newLogBuffersFromMapping(file, nil, mem, termLength)

	metaData, err := NewLogMetaData(lb.metaDataRegion())
	if err != nil {
		lb.Close()
		return nil, err
	}
	if got := metaData.TermLength(); got != termLength {
		lb.Close()
		return nil, fmt.Errorf("logbuffer: term length mismatch: layout implies %d, metadata says %d", termLength, got)
	}
	lb.metaData = metaData

	return lb, nil
}

func newLogBuffersFromMapping(file *os.File, lock *flock.Flock, mem []byte, termLength int32) *LogBuffers {
	lb := &LogBuffers{file: file, lock: lock, mem: mem, termLen: termLength}
	for i := 0; i < PartitionCount; i++ {
		start := int32(i) * termLength
		lb.terms[i] = mem[start : start+termLength]
	}
	return lb
}

func (lb *LogBuffers) metaDataRegion() []byte {
	base := int32(PartitionCount) * lb.termLen
	return lb.mem[base : base+MetaDataLength]
}

// TermLength returns the length in bytes of each term partition.
func (lb *LogBuffers) TermLength() int32 {
	return lb.termLen
}

// TermBuffers returns the three term partitions in rotation order.
func (lb *LogBuffers) TermBuffers() [PartitionCount][]byte {
	return lb.terms
}

// MetaDataBuffer returns the typed metadata view.
func (lb *LogBuffers) MetaDataBuffer() *LogMetaData {
	return lb.metaData
}

// Close unmaps the log and closes its backing file and advisory lock. It is
// the last thing that happens in a publication's lifecycle; callers must
// ensure no BufferClaim or term buffer slice handed out by this LogBuffers
// is still in use.
func (lb *LogBuffers) Close() error {
	var firstErr error
	if lb.mem != nil {
		if err := unmapMemory(lb.mem); err != nil && firstErr == nil {
			firstErr = err
		}
		lb.mem = nil
	}
	if lb.file != nil {
		if err := lb.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if lb.lock != nil {
		if err := lb.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
