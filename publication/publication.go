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

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/real-logic/aeron-go/internal/logbuffer"
)

// ExclusivePublication orchestrates partition selection, back-pressure,
// rotation, and the fragmentation policy for a single-writer append path
// over a shared-memory log. Offer, TryClaim, and Close must only ever be
// called by the one goroutine that owns the publication; Position,
// PositionLimit, IsConnected, and IsClosed are safe from any goroutine.
type ExclusivePublication struct {
	logBuffers    *logbuffer.LogBuffers
	appenders     [logbuffer.PartitionCount]*logbuffer.ExclusiveTermAppender
	headerWriter  *logbuffer.HeaderWriter
	positionLimit ReadablePosition
	conductor     ConductorLink

	channel        string
	streamID       int32
	sessionID      int32
	registrationID int64

	initialTermID       int32
	termLength          int32
	positionBitsToShift int32
	maxPayloadLength    int32
	maxMessageLength    int32

	rotationListener RotationListener

	// Writer-thread-only state: never touched from any other goroutine, so
	// these fields carry no synchronization of their own. Position() instead
	// re-derives the position from the shared metadata, and PositionLimit()
	// reads the consumer position directly.
	activePartitionIndex int32
	termID               int32
	termOffset           int32
	termBeginPosition    int64

	isClosed atomic.Bool
}

// NewExclusivePublication constructs a publication over an already-opened
// log, deriving its writer-thread state from the active partition's raw
// tail so a process can resume writing to a log another process created.
func NewExclusivePublication(
	channel string,
	streamID int32,
	sessionID int32,
	registrationID int64,
	logBuffers *logbuffer.LogBuffers,
	positionLimit ReadablePosition,
	conductor ConductorLink,
) (*ExclusivePublication, error) {
	termLength := logBuffers.TermLength()
	if termLength <= 0 || termLength&(termLength-1) != 0 {
		return nil, fmt.Errorf("publication: term length %d is not a positive power of two", termLength)
	}

	md := logBuffers.MetaDataBuffer()
	initialTermID := md.InitialTermID()
	mtuLength := md.MTULength()
	maxPayloadLength := mtuLength - logbuffer.HeaderLength
	if maxPayloadLength <= 0 {
		return nil, fmt.Errorf("publication: mtu %d too small for a %d-byte header", mtuLength, logbuffer.HeaderLength)
	}

	headerWriter := logbuffer.NewHeaderWriter(md.DefaultFrameHeader())
	if headerWriter.SessionID() != sessionID {
		return nil, fmt.Errorf("publication: log header session id %d does not match requested session id %d", headerWriter.SessionID(), sessionID)
	}
	if headerWriter.StreamID() != streamID {
		return nil, fmt.Errorf("publication: log header stream id %d does not match requested stream id %d", headerWriter.StreamID(), streamID)
	}

	termBuffers := logBuffers.TermBuffers()
	var appenders [logbuffer.PartitionCount]*logbuffer.ExclusiveTermAppender
	for i := 0; i < logbuffer.PartitionCount; i++ {
		appenders[i] = logbuffer.NewExclusiveTermAppender(termBuffers[i], md, i)
	}

	positionBitsToShift := int32(bits.Len32(uint32(termLength)) - 1)
	activePartitionIndex := md.ActivePartitionIndexVolatile()
	rawTail := appenders[activePartitionIndex].RawTail()
	termID := rawTail.TermID()
	termOffset := rawTail.TailOffset(termLength)
	termBeginPosition := int64(termID-initialTermID) << positionBitsToShift

	p := &ExclusivePublication{
		logBuffers:           logBuffers,
		appenders:            appenders,
		headerWriter:         headerWriter,
		positionLimit:        positionLimit,
		conductor:            conductor,
		channel:              channel,
		streamID:             streamID,
		sessionID:            sessionID,
		registrationID:       registrationID,
		initialTermID:        initialTermID,
		termLength:           termLength,
		positionBitsToShift:  positionBitsToShift,
		maxPayloadLength:     maxPayloadLength,
		maxMessageLength:     logbuffer.ComputeMaxMessageLength(termLength),
		activePartitionIndex: activePartitionIndex,
		termID:               termID,
		termOffset:           termOffset,
		termBeginPosition:    termBeginPosition,
	}
	return p, nil
}

// SetRotationListener installs a hook invoked synchronously after every
// term rotation. Must be called before the first Offer/TryClaim from the
// owning goroutine; it is not safe to change concurrently with those calls.
func (p *ExclusivePublication) SetRotationListener(listener RotationListener) {
	p.rotationListener = listener
}

// Offer appends msg (msg[offset:offset+length]) to the log, fragmenting it
// if it exceeds MaxPayloadLength. reservedValueSupplier may be nil.
func (p *ExclusivePublication) Offer(
	msg []byte,
	offset, length int32,
	reservedValueSupplier logbuffer.ReservedValueSupplier,
) int64 {
	if p.isClosed.Load() {
		return Closed
	}
	if length > p.maxMessageLength {
		panic(fmt.Sprintf("publication: message length %d exceeds maxMessageLength %d", length, p.maxMessageLength))
	}

	limit := p.positionLimit.GetVolatile()
	position := p.termBeginPosition + int64(p.termOffset)
	if position >= limit {
		return p.backPressureOrNotConnected()
	}

	appender := p.appenders[p.activePartitionIndex]
	var resultingOffset int32
	if length <= p.maxPayloadLength {
		resultingOffset = appender.AppendUnfragmentedMessage(p.termID, p.termOffset, p.headerWriter, msg, offset, length, reservedValueSupplier)
	} else {
		resultingOffset = appender.AppendFragmentedMessage(p.termID, p.termOffset, p.headerWriter, msg, offset, length, p.maxPayloadLength, reservedValueSupplier)
	}
	return p.newPosition(resultingOffset)
}

// TryClaim reserves length bytes for zero-copy writing, rejecting anything
// larger than MaxPayloadLength (the payload of a single MTU-sized frame).
// The caller must Commit or Abort bufferClaim.
func (p *ExclusivePublication) TryClaim(length int32, bufferClaim *logbuffer.BufferClaim) int64 {
	if p.isClosed.Load() {
		return Closed
	}
	if length > p.maxPayloadLength {
		panic(fmt.Sprintf("publication: claim length %d exceeds maxPayloadLength %d", length, p.maxPayloadLength))
	}

	limit := p.positionLimit.GetVolatile()
	position := p.termBeginPosition + int64(p.termOffset)
	if position >= limit {
		return p.backPressureOrNotConnected()
	}

	appender := p.appenders[p.activePartitionIndex]
	resultingOffset := appender.Claim(p.termID, p.termOffset, p.headerWriter, length, bufferClaim)
	return p.newPosition(resultingOffset)
}

func (p *ExclusivePublication) backPressureOrNotConnected() int64 {
	if p.conductor.IsPublicationConnected(p.logBuffers.MetaDataBuffer().TimeOfLastStatusMessage()) {
		return BackPressured
	}
	return NotConnected
}

// newPosition folds an appender's result into the writer's cached state and
// the return value Offer/TryClaim hands back.
func (p *ExclusivePublication) newPosition(result int32) int64 {
	if result > 0 {
		p.termOffset = result
		return p.termBeginPosition + int64(result)
	}
	if result == logbuffer.Tripped {
		p.rotate()
		return AdminAction
	}
	return AdminAction
}

func (p *ExclusivePublication) rotate() {
	previousTermID := p.termID

	p.termOffset = 0
	p.activePartitionIndex = (p.activePartitionIndex + 1) % logbuffer.PartitionCount
	p.termID = previousTermID + 1
	p.termBeginPosition += int64(p.termLength)

	p.appenders[p.activePartitionIndex].TailTermID(p.termID)
	p.logBuffers.MetaDataBuffer().SetActivePartitionIndexOrdered(p.activePartitionIndex)

	if p.rotationListener != nil {
		p.rotationListener(previousTermID, p.termID, p.activePartitionIndex)
	}
}

// Position observes the active partition's raw tail with acquire ordering
// and returns the corresponding stream position, or Closed. This may
// briefly disagree with the writer's own in-progress view across a
// rotation; callers should treat it as a hint, not as the writer's ground
// truth for back-pressure decisions.
func (p *ExclusivePublication) Position() int64 {
	if p.isClosed.Load() {
		return Closed
	}
	activeIndex := p.logBuffers.MetaDataBuffer().ActivePartitionIndexVolatile()
	rawTail := p.appenders[activeIndex].RawTailVolatile()
	termOffset := rawTail.TailOffset(p.termLength)
	return int64(rawTail.TermID()-p.initialTermID)<<p.positionBitsToShift + int64(termOffset)
}

// PositionLimit observes the consumer position limit with acquire
// ordering, or returns Closed.
func (p *ExclusivePublication) PositionLimit() int64 {
	if p.isClosed.Load() {
		return Closed
	}
	return p.positionLimit.GetVolatile()
}

// IsConnected reports whether the publication is open and the conductor
// has observed a recent status message.
func (p *ExclusivePublication) IsConnected() bool {
	if p.isClosed.Load() {
		return false
	}
	return p.conductor.IsPublicationConnected(p.logBuffers.MetaDataBuffer().TimeOfLastStatusMessage())
}

// AddDestination adds a manual-mode destination under the conductor's
// client lock.
func (p *ExclusivePublication) AddDestination(endpointChannel string) error {
	lock := p.conductor.ClientLock()
	lock.Lock()
	defer lock.Unlock()
	if p.isClosed.Load() {
		return fmt.Errorf("publication: closed")
	}
	return p.conductor.AddDestination(p.registrationID, endpointChannel)
}

// RemoveDestination removes a previously added manual-mode destination
// under the conductor's client lock.
func (p *ExclusivePublication) RemoveDestination(endpointChannel string) error {
	lock := p.conductor.ClientLock()
	lock.Lock()
	defer lock.Unlock()
	if p.isClosed.Load() {
		return fmt.Errorf("publication: closed")
	}
	return p.conductor.RemoveDestination(p.registrationID, endpointChannel)
}

// Close is idempotent: only the first call releases the publication
// through the conductor under its client lock. It does not itself unmap
// the log; the conductor owns when LogBuffers.Close actually runs, the way
// a driver-managed resource is torn down on the conductor's own schedule
// rather than synchronously with the client's close call.
func (p *ExclusivePublication) Close() {
	lock := p.conductor.ClientLock()
	lock.Lock()
	defer lock.Unlock()
	if p.isClosed.Swap(true) {
		return
	}
	p.conductor.ReleasePublication(p.registrationID)
}

// IsClosed reports whether Close has completed.
func (p *ExclusivePublication) IsClosed() bool {
	return p.isClosed.Load()
}

// TermBufferLength returns the length in bytes of each term partition.
func (p *ExclusivePublication) TermBufferLength() int32 { return p.termLength }

// Channel returns the channel URI this publication was constructed with.
func (p *ExclusivePublication) Channel() string { return p.channel }

// StreamID returns the stream id within Channel.
func (p *ExclusivePublication) StreamID() int32 { return p.streamID }

// SessionID returns this publication's session id.
func (p *ExclusivePublication) SessionID() int32 { return p.sessionID }

// InitialTermID returns the term id the log started at.
func (p *ExclusivePublication) InitialTermID() int32 { return p.initialTermID }

// MaxMessageLength returns the largest length Offer accepts before
// panicking.
func (p *ExclusivePublication) MaxMessageLength() int32 { return p.maxMessageLength }

// MaxPayloadLength returns the largest length TryClaim accepts, and the
// threshold above which Offer fragments.
func (p *ExclusivePublication) MaxPayloadLength() int32 { return p.maxPayloadLength }

// RegistrationID returns the caller-supplied identifier this publication
// was registered with, threaded through to every ConductorLink call.
func (p *ExclusivePublication) RegistrationID() int64 { return p.registrationID }
