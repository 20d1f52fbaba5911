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
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/VERSO-GR0UP/verso/pkg/utils"
)

// Word is a transactable memory cell. Client code allocates Words instead
// of plain fields for anything read or written inside Atomically; every
// algorithm family addresses a Word by its pointer identity, matching the
// original's word-granularity void* addressing while staying race-detector
// clean, since every access — transactional or the rare non-transactional
// peek — goes through sync/atomic.
type Word = atomic.Uint64

// Mask selects a byte-aligned sub-range of a Word for partial writes.
// MaskAll requests a full-word write.
type Mask uint64

// MaskAll is the sentinel Mask meaning "overwrite every byte of the word."
const MaskAll Mask = ^Mask(0)

// MaskedStore applies val under mask to the word currently stored in cell,
// via a CAS retry loop: cell.old&^mask | val&mask. Used by every
// algorithm's write-back path, eager (undo log present) or lazy (redo
// log), and exported so algs/* packages share one implementation instead
// of each hand-rolling a CAS loop.
func MaskedStore(cell *Word, val uint64, mask Mask) {
	if mask == MaskAll {
		cell.Store(val)
		return
	}
	for {
		old := cell.Load()
		next := (old &^ uint64(mask)) | (val & uint64(mask))
		if cell.CompareAndSwap(old, next) {
			return
		}
	}
}

// AddrOf returns cell's identity as a plain integer, for algorithms (the
// ring family) that feed addresses into a pkg/filter.Filter instead of hashing
// into one of the lock tables.
func AddrOf(cell *Word) uintptr {
	return uintptr(unsafe.Pointer(cell))
}

// SpinWait yields the processor once. Algorithms call it in tight
// validation/acquire loops before escalating to a contention manager's
// backoff; it is the Go analogue of the original's inline x86 PAUSE.
func SpinWait() {
	runtime.Gosched()
}

// BackoffNanos computes the Backoff contention manager's sleep duration
// for the consecAborts'th retry: karma * 2^consecAborts, capped so a long
// abort streak doesn't sleep for seconds.
func BackoffNanos(consecAborts int, karma time.Duration) time.Duration {
	const capShift = 16 // 2^16 * karma is about 4ms at the default 64ns karma
	shift := consecAborts
	if shift > capShift {
		shift = capShift
	}
	return karma * time.Duration(utils.Pow(2, shift))
}
