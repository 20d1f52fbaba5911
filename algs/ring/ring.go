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

// Package ring implements RingSW and RingALA: value-free, filter-based
// STM. Instead of an orec per location, every committer publishes a
// Bloom filter of its write set into a fixed-size ring indexed by the
// global clock; a reader validates by checking its own read filter
// against every ring entry published since it last checked, rather than
// against a per-location version. RingALA is RingSW plus OrecELA-style
// privatization quiescence at commit; the two share every barrier.
package ring

import (
	"context"
	"time"

	"github.com/VERSO-GR0UP/verso"
)

func begin(tx *verso.Tx) {
	tx.SetStartTime(uint64(verso.Timestamp.Load()))
}

// checkRing validates tx's read filter against every ring publish in
// (tx.StartTime(), now] and advances tx's validated-to mark to now. A
// conflict or a ring slot overwritten since tx's last check (the ring
// "wrapped" past what tx needed to see) are both treated as a forced
// abort: we chose "abort on a stale slot" over "skip and hope" per
// spec §9's open question, since a skipped slot could hide a real
// conflict and silently violate opacity.
func checkRing(tx *verso.Tx) {
	now := uint64(verso.Timestamp.Load())
	if conflict, wrapped := verso.RingConflicts(tx.StartTime(), now, tx.ReadFilter()); conflict || wrapped {
		tx.TMAbort()
	}
	tx.SetStartTime(now)
}

func readRO(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	checkRing(tx)
	tx.ReadFilter().Add(verso.AddrOf(cell))
	return cell.Load()
}

func readRW(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	val, mask, ok := tx.WriteLog().Lookup(cell)
	if ok && mask == verso.MaskAll {
		return val
	}
	mem := readRO(tx, cell)
	if ok {
		mem = (mem &^ uint64(mask)) | (val & uint64(mask))
	}
	return mem
}

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	tx.WriteLog().Record(cell, val, mask)
	tx.WriteFilter().Add(verso.AddrOf(cell))
}

func commitRO(tx *verso.Tx) {
	// Nothing was bought into the ring; a pure reader needs no publish,
	// only the per-read validation it already did in readRO.
	_ = tx
}

// commitRW is shared by RingSW and RingALA. alaSafe selects whether the
// committer waits for the privatization clock to catch up before
// returning (see algs/oreclazy's identical elaSafe parameter).
func commitRW(alaSafe bool) verso.CommitFunc {
	return func(tx *verso.Tx) {
		if tx.WriteLog().Len() == 0 {
			return
		}
		deadline := time.Now().Add(verso.Current().AcquireTimeout)
		for {
			now := uint64(verso.Timestamp.Load())
			if conflict, wrapped := verso.RingConflicts(tx.StartTime(), now, tx.ReadFilter()); conflict || wrapped {
				tx.TMAbort()
			}
			if !verso.Timestamp.CompareAndSwap(int64(now), int64(now+1)) {
				if time.Now().After(deadline) {
					tx.TMAbort()
				}
				verso.SpinWait()
				continue
			}
			seq := now + 1
			verso.RingPublish(seq, tx.WriteFilter())
			if alaSafe {
				verso.ClockBegin(seq)
			}
			tx.WriteLog().WriteBack()
			if alaSafe {
				verso.ClockDone(seq)
				_ = verso.ClockWait(context.Background(), seq)
			}
			return
		}
	}
}

func rollback(*verso.Tx) {}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgRingSW,
		Name:     "RingSW",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW(false),
		Rollback: rollback,
	})
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgRingALA,
		Name:     "RingALA",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW(true),
		Rollback: rollback,
	})
}
