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

// RotationListener is notified after a term rotation completes: the
// previous term id, the new term id, and the newly active partition index.
// It runs synchronously on the writer's own thread after the rotation's
// metadata updates are already visible, so an implementation that wants to
// log the event may do so without forcing an allocation into Offer or
// TryClaim on the common, non-rotating path.
type RotationListener func(previousTermID, newTermID, newPartitionIndex int32)
