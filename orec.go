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

// Orec is an ownership record: one word of metadata guarding however many
// Words hash to it. The low bit of v distinguishes the two states a
// transactional orec family cares about:
//
//   - even v: unlocked, v>>1 is the commit timestamp the guarded data was
//     last written at.
//   - odd v: locked, v>>1 is the id+1 of the owning thread.
//
// This is the same encoding OrecEager/OrecLazy/OrecELA/CTokenELA use in the
// original; it lets a reader validate with a single load instead of two.
type Orec struct {
	v atomic.Uint64
	_ cpu.CacheLinePad
}

const orecLockBit = uint64(1)

// IsLocked reports whether o is currently locked and, if so, by which
// thread id.
func (o *Orec) IsLocked() (owner int, locked bool) {
	v := o.v.Load()
	if v&orecLockBit == 0 {
		return 0, false
	}
	return int(v>>1) - 1, true
}

// Version returns o's commit timestamp. Meaningless while o is locked;
// callers check IsLocked first.
func (o *Orec) Version() uint64 {
	v := o.v.Load()
	return v >> 1
}

// TryLock attempts to acquire o on behalf of owner, succeeding only if o is
// currently unlocked with exactly expectVersion. Returns the previous
// (unlocked) version on success so the caller can restore it verbatim on
// abort.
func (o *Orec) TryLock(owner int, expectVersion uint64) (prev uint64, ok bool) {
	old := expectVersion << 1
	newV := (uint64(owner+1) << 1) | orecLockBit
	if o.v.CompareAndSwap(old, newV) {
		return expectVersion, true
	}
	return 0, false
}

// UnlockAt releases o, publishing newVersion as its new commit timestamp.
func (o *Orec) UnlockAt(newVersion uint64) {
	o.v.Store(newVersion << 1)
}

// UnlockRestore releases o without advancing its version, used on abort to
// put back exactly what TryLock observed.
func (o *Orec) UnlockRestore(version uint64) {
	o.v.Store(version << 1)
}

var orecTable []Orec

func initOrecTable(size int) {
	if size <= 0 {
		size = _defaultOrecTableSize
	}
	orecTable = make([]Orec, size)
}

// OrecFor hashes cell to its guarding Orec. The shift drops the low 3 bits
// (8-byte Word alignment) before folding into the table, matching the
// teacher's pointer-hash approach in its skiplist/memtable addressing.
func OrecFor(cell *Word) *Orec {
	h := uintptr(unsafe.Pointer(cell)) >> 3
	return &orecTable[int(h)%len(orecTable)]
}
