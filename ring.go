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
	"sync"
	"sync/atomic"

	"github.com/VERSO-GR0UP/verso/pkg/filter"
)

// ringEntry is one slot of the global commit ring: the write filter a
// committer published, tagged with the sequence number it was published
// under. A slot's filter is only trustworthy while its tag still matches
// the sequence number that wrote it; a tag that does not match (the slot
// was overwritten after a wrap, or is not yet published) makes
// RingConflicts report wrapped rather than a false negative.
type ringEntry struct {
	mu      sync.Mutex
	seq     atomic.Uint64
	wfilter *filter.Filter
}

var ring []*ringEntry

func initRing(size int) {
	if size <= 0 {
		size = _defaultRingElements
	}
	ring = make([]*ringEntry, size)
	for i := range ring {
		ring[i] = &ringEntry{}
	}
}

// RingPublish installs wf as the write filter for sequence number seq,
// which the caller has already reserved by bumping Timestamp. Called once
// per committing RingSW/RingALA writer.
func RingPublish(seq uint64, wf *filter.Filter) {
	slot := ring[seq%uint64(len(ring))]
	slot.mu.Lock()
	slot.wfilter = wf
	slot.seq.Store(seq)
	slot.mu.Unlock()
}

// RingConflicts reports whether any publish in (from, to] could have
// touched an address in rf. wrapped reports whether the ring advanced far
// enough during the scan that some slot's history was lost and the caller
// should treat this as a conflict (RingSTM's "ring too small" forced
// abort) rather than silently missing it.
func RingConflicts(from, to uint64, rf *filter.Filter) (conflict, wrapped bool) {
	if to <= from {
		return false, false
	}
	n := uint64(len(ring))
	if to-from > n {
		return false, true
	}
	for seq := from + 1; seq <= to; seq++ {
		slot := ring[seq%n]
		slot.mu.Lock()
		sawSeq := slot.seq.Load()
		wf := slot.wfilter
		slot.mu.Unlock()
		if sawSeq != seq {
			return false, true
		}
		if wf != nil && wf.Intersects(rf) {
			return true, false
		}
	}
	return false, false
}
