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
	"sync/atomic"
	"unsafe"
)

// Shared mutable memory, observed across process boundaries, needs explicit
// ordering on every field. These helpers are the single place that ordering
// is expressed; every ordering-sensitive accessor in this package (raw tail,
// active partition index, time of last status message, frame length) goes
// through one of them rather than reinventing it per call site. Go's
// sync/atomic requires 8-byte alignment for 64-bit operations, which
// LogBuffers guarantees by construction (every 64-bit field offset in the
// metadata layout is a multiple of 8).

func loadUint32Acquire(buf []byte, offset int) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&buf[offset])))
}

func storeUint32Release(buf []byte, offset int, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&buf[offset])), v)
}

func loadInt32Acquire(buf []byte, offset int) int32 {
	return int32(loadUint32Acquire(buf, offset))
}

func storeInt32Release(buf []byte, offset int, v int32) {
	storeUint32Release(buf, offset, uint32(v))
}

func loadUint64Acquire(buf []byte, offset int) uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&buf[offset])))
}

func storeUint64Release(buf []byte, offset int, v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&buf[offset])), v)
}

func loadInt64Relaxed(buf []byte, offset int) int64 {
	// sync/atomic has no relaxed load on this platform set; Load gives us at
	// least acquire, which is a valid (if slightly stronger) substitute for
	// an unsynchronized raw-tail observation.
	return int64(atomic.LoadUint64((*uint64)(unsafe.Pointer(&buf[offset]))))
}

func storeInt64Release(buf []byte, offset int, v int64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&buf[offset])), uint64(v))
}

func compareAndSwapInt64(buf []byte, offset int, old, new int64) bool {
	return atomic.CompareAndSwapUint64(
		(*uint64)(unsafe.Pointer(&buf[offset])), uint64(old), uint64(new))
}
