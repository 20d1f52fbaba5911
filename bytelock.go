// Copyright 2025 VERSO-GR0UP
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package verso

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// ByteLock is the visible-reader family's per-location metadata for an
// unbounded thread count: one atomic.Bool per registered thread instead of
// a fixed 64-bit bitmap. ByteEager uses this unconditionally when
// Config.MaxThreads > 64.
type ByteLock struct {
	owner   atomic.Int64 // id+1 of the thread holding the write lock, 0 if free
	readers []atomic.Bool
	_       cpu.CacheLinePad
}

func newByteLock(maxThreads int) *ByteLock {
	return &ByteLock{readers: make([]atomic.Bool, maxThreads)}
}

func (b *ByteLock) MarkReading(id int)  { b.readers[id].Store(true) }
func (b *ByteLock) ClearReading(id int) { b.readers[id].Store(false) }
func (b *ByteLock) IsReading(id int) bool {
	return b.readers[id].Load()
}

func (b *ByteLock) AnyReaders() bool {
	for i := range b.readers {
		if b.readers[i].Load() {
			return true
		}
	}
	return false
}

func (b *ByteLock) TryAcquireWrite(id int) bool {
	return b.owner.CompareAndSwap(0, int64(id+1))
}

func (b *ByteLock) ReleaseWrite() {
	b.owner.Store(0)
}

func (b *ByteLock) WriterID() (int, bool) {
	v := b.owner.Load()
	if v == 0 {
		return 0, false
	}
	return int(v - 1), true
}

var bytelockTable []*ByteLock

func initBytelockTable(size int) {
	if size <= 0 {
		size = _defaultBytelockTableSize
	}
	cfg := DefaultConfig
	if p := activeConfig.Load(); p != nil {
		cfg = *p
	}
	bytelockTable = make([]*ByteLock, size)
	for i := range bytelockTable {
		bytelockTable[i] = newByteLock(cfg.MaxThreads)
	}
}

// ByteLockFor hashes cell to its guarding ByteLock.
func ByteLockFor(cell *Word) *ByteLock {
	h := uintptr(unsafe.Pointer(cell)) >> 3
	return bytelockTable[int(h)%len(bytelockTable)]
}
