//go:build !unix

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
	"errors"
	"os"
)

// ErrUnsupportedPlatform is returned on platforms without a shared memory
// mapping implementation. The log is a multiprocess, shared-memory
// structure by definition; there is no meaningful single-process fallback.
var ErrUnsupportedPlatform = errors.New("logbuffer: memory-mapped logs are not supported on this platform")

func mmapFile(file *os.File, size int64) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

func unmapMemory(data []byte) error {
	return ErrUnsupportedPlatform
}
