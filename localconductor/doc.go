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

// Package localconductor is a minimal, in-process implementation of
// publication.ConductorLink, suitable for tests and single-process demos.
// It is not a client for a real media driver: there is no control
// protocol, no separate driver process, and connectivity is determined
// purely from the timestamp the publication reads out of its own log
// metadata, compared against this conductor's clock.
//
// It owns the deferred teardown of each registered publication's
// LogBuffers: ReleasePublication closes the mapping only after the
// publication itself has finished with it, not the other way around.
package localconductor
