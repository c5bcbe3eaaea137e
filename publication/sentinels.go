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

// Return sentinels for Offer and TryClaim. Every other return value is a
// non-negative stream position. These are never errors: a hot-path caller
// on the common retry path must not pay the allocation cost of an error
// value.
const (
	NotConnected  int64 = -1
	BackPressured int64 = -2
	AdminAction   int64 = -3
	Closed        int64 = -4
)
