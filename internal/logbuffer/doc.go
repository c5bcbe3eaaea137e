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

// Package logbuffer implements the on-disk/in-memory layout of an Aeron-style
// term-partitioned log: the frame header format, the per-partition term
// appender, the zero-copy buffer claim, and the memory-mapped log buffers
// that tie three term partitions to a shared metadata region.
//
// Everything in this package is shared-memory, multiprocess, and
// memory-ordering sensitive. A term buffer has exactly one writer; the
// typed accessors here exist so that every cross-boundary field uses the
// correct atomic ordering at a single call site instead of it being
// reinvented per caller.
package logbuffer
