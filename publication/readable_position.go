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

package publication

import "sync/atomic"

// ReadablePosition is the consumer-managed position limit a Publication
// checks before every Offer/TryClaim. It is owned and advanced by the media
// driver (or, in this module's localconductor, by whatever stands in for
// it); the publication only ever reads it.
type ReadablePosition interface {
	// GetVolatile returns the current limit with acquire ordering.
	GetVolatile() int64
}

// AtomicPosition is a simple in-process ReadablePosition backed by an
// atomic int64, useful for tests and single-process demos where there is
// no separate driver process advancing a shared counter.
type AtomicPosition struct {
	value atomic.Int64
}

// NewAtomicPosition constructs an AtomicPosition seeded at initial.
func NewAtomicPosition(initial int64) *AtomicPosition {
	p := &AtomicPosition{}
	p.value.Store(initial)
	return p
}

// GetVolatile implements ReadablePosition.
func (p *AtomicPosition) GetVolatile() int64 {
	return p.value.Load()
}

// Set advances the limit. Called by whatever plays the media-driver's role.
func (p *AtomicPosition) Set(limit int64) {
	p.value.Store(limit)
}
