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

import "sync"

// ConductorLink is the minimal surface a Publication needs from the
// client-side conductor: connection liveness, destination management, and
// the lock that serializes conductor interactions across every publication
// the client owns. This module never implements the real driver-facing
// conductor; see package localconductor for the in-process stand-in used by
// tests and the demo command.
type ConductorLink interface {
	// IsPublicationConnected reports whether timeOfLastStatusMessage (the
	// value read straight out of the log's metadata, not a timestamp the
	// publication took itself) is recent enough, by the conductor's own
	// clock, to consider the publication connected to at least one
	// subscriber. The publication never reads wall time directly; only the
	// conductor's clock matters here.
	IsPublicationConnected(timeOfLastStatusMessage int64) bool

	// ReleasePublication notifies the conductor that self is being closed so
	// it can release resources (including, eventually, self's LogBuffers) at
	// a time of the conductor's choosing. registrationID identifies which
	// publication is being released.
	ReleasePublication(registrationID int64)

	// AddDestination adds a manual-mode destination to the channel
	// identified by registrationID.
	AddDestination(registrationID int64, endpointChannel string) error

	// RemoveDestination removes a previously added destination.
	RemoveDestination(registrationID int64, endpointChannel string) error

	// ClientLock returns the mutex serializing Close/AddDestination/
	// RemoveDestination across every publication owned by this client.
	//
	// The Java source uses a reentrant lock here because a single client
	// thread may re-enter through nested conductor callbacks; sync.Mutex is
	// not reentrant, so a ConductorLink implementation whose callbacks can
	// re-enter the lock from the same goroutine must use its own recursion
	// tracking. localconductor does not re-enter and uses a plain
	// sync.Mutex.
	ClientLock() *sync.Mutex
}
