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

// writeLogEntry is one buffered, not-yet-visible write: val under mask,
// destined for cell at commit.
type writeLogEntry struct {
	cell *Word
	val  uint64
	mask Mask
}

// WriteLog is a transaction's redo log, used by the lazy families
// (OrecLazy/OrecELA, CTokenELA, Nano/NanoELA, CohortsLI, RingSW/RingALA):
// writes accumulate here and are only published to memory at commit, after
// the transaction has validated its reads (and, in the orec-based
// families outside CohortsLI's turbo path, locked every location).
type WriteLog struct {
	entries []writeLogEntry
	index   map[*Word]int
}

func (w *WriteLog) Reset() {
	w.entries = w.entries[:0]
	if w.index == nil {
		w.index = make(map[*Word]int)
	} else {
		clear(w.index)
	}
}

// Record buffers val/mask for cell, coalescing with any prior buffered
// write to the same cell in this attempt (last write wins per byte the new
// mask covers).
func (w *WriteLog) Record(cell *Word, val uint64, mask Mask) {
	if i, ok := w.index[cell]; ok {
		e := &w.entries[i]
		e.val = (e.val &^ uint64(mask)) | (val & uint64(mask))
		e.mask |= mask
		return
	}
	w.index[cell] = len(w.entries)
	w.entries = append(w.entries, writeLogEntry{cell: cell, val: val, mask: mask})
}

// Lookup implements read-your-own-writes: if cell has a buffered write,
// returns it masked so the caller can merge it over a fresh memory read.
func (w *WriteLog) Lookup(cell *Word) (val uint64, mask Mask, ok bool) {
	i, found := w.index[cell]
	if !found {
		return 0, 0, false
	}
	e := w.entries[i]
	return e.val, e.mask, true
}

// WriteBack publishes every buffered write to memory. Called after the
// write set is fully locked and the read set has validated.
func (w *WriteLog) WriteBack() {
	for _, e := range w.entries {
		MaskedStore(e.cell, e.val, e.mask)
	}
}

func (w *WriteLog) Len() int { return len(w.entries) }

// Each calls fn once per buffered write, in the order first buffered.
// Algorithms that lock-at-commit (OrecLazy/OrecELA, CTokenELA, Nano,
// CohortsLI) use this to walk the write set when acquiring locks and
// writing values back.
func (w *WriteLog) Each(fn func(cell *Word, val uint64, mask Mask)) {
	for _, e := range w.entries {
		fn(e.cell, e.val, e.mask)
	}
}
