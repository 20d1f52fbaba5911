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

// BitLock is the visible-reader family's per-location metadata when
// Config.MaxThreads <= 64: a 64-bit reader bitmap (one bit per thread id)
// plus a single writer-owner slot, packed into one cache line. ByteEager
// falls back to ByteLock once MaxThreads exceeds the bitmap's width.
type BitLock struct {
	owner   atomic.Int64 // id+1 of the thread holding the write lock, 0 if free
	readers atomic.Uint64
	_       cpu.CacheLinePad
}

func (b *BitLock) MarkReading(id int) {
	bit := uint64(1) << uint(id)
	for {
		old := b.readers.Load()
		if b.readers.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

func (b *BitLock) ClearReading(id int) {
	bit := uint64(1) << uint(id)
	for {
		old := b.readers.Load()
		if b.readers.CompareAndSwap(old, old&^bit) {
			return
		}
	}
}

func (b *BitLock) IsReading(id int) bool {
	return b.readers.Load()&(uint64(1)<<uint(id)) != 0
}

func (b *BitLock) AnyReaders() bool {
	return b.readers.Load() != 0
}

// TryAcquireWrite is a single-shot CAS from free to owned by id; callers
// loop it under a timeout (see Config.AcquireTimeout).
func (b *BitLock) TryAcquireWrite(id int) bool {
	return b.owner.CompareAndSwap(0, int64(id+1))
}

func (b *BitLock) ReleaseWrite() {
	b.owner.Store(0)
}

func (b *BitLock) WriterID() (int, bool) {
	v := b.owner.Load()
	if v == 0 {
		return 0, false
	}
	return int(v - 1), true
}

var bitlockTable []BitLock

func initBitlockTable(size int) {
	if size <= 0 {
		size = _defaultBitlockTableSize
	}
	bitlockTable = make([]BitLock, size)
}

// BitLockFor hashes cell to its guarding BitLock.
func BitLockFor(cell *Word) *BitLock {
	h := uintptr(unsafe.Pointer(cell)) >> 3
	return &bitlockTable[int(h)%len(bitlockTable)]
}
