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

package localconductor

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/real-logic/aeron-go/internal/logbuffer"
)

type registration struct {
	logBuffers   *logbuffer.LogBuffers
	destinations map[string]struct{}
}

// Conductor is a single client's in-process stand-in for the media driver
// conductor. Its zero value is not usable; construct with New.
//
// ReleasePublication, AddDestination and RemoveDestination assume the caller
// already holds the mutex returned by ClientLock
// (publication.ExclusivePublication acquires it in Close/AddDestination/
// RemoveDestination), so they never lock internally; only Register takes
// the lock itself. This is what lets a plain,
// non-reentrant sync.Mutex stand in for the Java source's reentrant lock
// (see publication.ConductorLink's doc comment).
type Conductor struct {
	logger           *zap.Logger
	connectedTimeout time.Duration
	nowNanos         func() int64
	mu               sync.Mutex
	registrations    map[int64]*registration
}

// Option configures a Conductor at construction time.
type Option func(*Conductor)

// WithClock overrides the conductor's time source; tests use this to
// control connectivity decisions deterministically instead of racing
// time.Now.
func WithClock(nowNanos func() int64) Option {
	return func(c *Conductor) { c.nowNanos = nowNanos }
}

// New constructs a Conductor that considers a publication connected when
// its log's time-of-last-status-message is within connectedTimeout of now.
func New(logger *zap.Logger, connectedTimeout time.Duration, opts ...Option) *Conductor {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Conductor{
		logger:           logger,
		connectedTimeout: connectedTimeout,
		nowNanos:         func() int64 { return time.Now().UnixNano() },
		registrations:    make(map[int64]*registration),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register records registrationID's LogBuffers so that a later
// ReleasePublication can close the mapping. Callers must Register before
// constructing the publication.ExclusivePublication that will use this
// registrationID, and must not Register the same id twice.
func (c *Conductor) Register(registrationID int64, logBuffers *logbuffer.LogBuffers) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations[registrationID] = &registration{
		logBuffers:   logBuffers,
		destinations: make(map[string]struct{}),
	}
	c.logger.Info("publication registered", zap.Int64("registrationID", registrationID))
}

// ClientLock implements publication.ConductorLink.
func (c *Conductor) ClientLock() *sync.Mutex {
	return &c.mu
}

// IsPublicationConnected implements publication.ConductorLink. The
// publication passes in the raw timestamp from its own log metadata; this
// conductor is the only thing that reads wall time.
func (c *Conductor) IsPublicationConnected(timeOfLastStatusMessage int64) bool {
	if timeOfLastStatusMessage <= 0 {
		return false
	}
	age := c.nowNanos() - timeOfLastStatusMessage
	return age >= 0 && age <= c.connectedTimeout.Nanoseconds()
}

// ReleasePublication implements publication.ConductorLink: it closes the
// registered LogBuffers and forgets the registration. Called with
// ClientLock already held.
func (c *Conductor) ReleasePublication(registrationID int64) {
	reg, ok := c.registrations[registrationID]
	if !ok {
		c.logger.Warn("release of unknown publication", zap.Int64("registrationID", registrationID))
		return
	}
	delete(c.registrations, registrationID)

	if reg.logBuffers != nil {
		if err := reg.logBuffers.Close(); err != nil {
			c.logger.Error("closing log buffers on release",
				zap.Int64("registrationID", registrationID), zap.Error(err))
		}
	}
	c.logger.Info("publication released", zap.Int64("registrationID", registrationID))
}

// AddDestination implements publication.ConductorLink. Called with
// ClientLock already held.
func (c *Conductor) AddDestination(registrationID int64, endpointChannel string) error {
	reg, ok := c.registrations[registrationID]
	if !ok {
		return status.Errorf(codes.NotFound, "no publication registered for id %d", registrationID)
	}
	if _, exists := reg.destinations[endpointChannel]; exists {
		return status.Errorf(codes.AlreadyExists, "destination %q already added for publication %d", endpointChannel, registrationID)
	}
	reg.destinations[endpointChannel] = struct{}{}
	c.logger.Info("destination added", zap.Int64("registrationID", registrationID), zap.String("destination", endpointChannel))
	return nil
}

// RemoveDestination implements publication.ConductorLink. Called with
// ClientLock already held.
func (c *Conductor) RemoveDestination(registrationID int64, endpointChannel string) error {
	reg, ok := c.registrations[registrationID]
	if !ok {
		return status.Errorf(codes.NotFound, "no publication registered for id %d", registrationID)
	}
	if _, exists := reg.destinations[endpointChannel]; !exists {
		return status.Errorf(codes.NotFound, "destination %q not found for publication %d", endpointChannel, registrationID)
	}
	delete(reg.destinations, endpointChannel)
	c.logger.Info("destination removed", zap.Int64("registrationID", registrationID), zap.String("destination", endpointChannel))
	return nil
}
