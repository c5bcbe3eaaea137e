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

// Package publication implements the exclusive, single-writer publication
// path over a term-partitioned shared-memory log: partition selection,
// back-pressure against a consumer-advertised position limit, term
// rotation, the fragmentation policy, and the small state machine that
// governs a publication's lifecycle from construction to close.
//
// A Publication never runs concurrently with itself: Offer, TryClaim, and
// Close must only ever be called from the single thread that owns it.
// Position and PositionLimit are safe to call from any thread.
package publication
