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

// Package cohorts implements CohortsLI: a cohort STM. A cohort is the set
// of transactions admitted between two consecutive full drains; no new
// transaction may begin while any cohort member is mid-commit. Validation
// is orec-based, like OrecLazy, but commit order within a cohort is
// assigned by a fetch-and-add on CPending rather than the global clock,
// and the last writer in a cohort — the one whose order catches up to
// every admitted member — takes a turbo fast path that skips per-location
// locking, since by construction no other writer remains to race it.
package cohorts

import (
	"time"

	"github.com/VERSO-GR0UP/verso"
)

func begin(tx *verso.Tx) {
	for {
		for verso.Gatekeeper.Load() != 0 {
			verso.SpinWait()
		}
		verso.Started.Add(1)
		if verso.CPending.Load() == verso.Committed.Load() {
			break
		}
		// A commit began in the gap between our check and our admit;
		// back the increment out and retry.
		verso.Started.Add(-1)
	}
	tx.SetStartTime(uint64(verso.LastComplete.Load()))
}

func readRO(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	buf, mask, buffered := tx.WriteLog().Lookup(cell)
	if buffered && mask == verso.MaskAll {
		return buf
	}
	o := verso.OrecFor(cell)
	if owner, locked := o.IsLocked(); locked && owner != tx.ID() {
		tx.TMAbort()
	}
	version := o.Version()
	if version > tx.StartTime() {
		tx.TMAbort()
	}
	val := cell.Load()
	tx.ReadLog().Record(o, version)
	if buffered {
		val = (val &^ uint64(mask)) | (buf & uint64(mask))
	}
	return val
}

func readRW(tx *verso.Tx, cell *verso.Word) uint64 {
	return readRO(tx, cell)
}

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	tx.WriteLog().Record(cell, val, mask)
}

func commitRO(*verso.Tx) {
	verso.Started.Add(-1)
}

func acquire(tx *verso.Tx, o *verso.Orec) {
	deadline := time.Now().Add(verso.Current().AcquireTimeout)
	for {
		if owner, locked := o.IsLocked(); locked {
			if owner == tx.ID() {
				return
			}
			if time.Now().After(deadline) {
				tx.TMAbort()
			}
			verso.SpinWait()
			continue
		}
		version := o.Version()
		prev, ok := o.TryLock(tx.ID(), version)
		if ok {
			tx.OrecLocks().Add(o, prev)
			return
		}
	}
}

func commitRW(tx *verso.Tx) {
	order := uint64(verso.CPending.Add(1))
	verso.Gatekeeper.Store(1) // close admission while a writer is mid-commit
	for uint64(verso.LastComplete.Load()) != order-1 {
		verso.SpinWait()
	}
	// Wait until every admitted member of this cohort has either left
	// (a reader, via commitRO) or itself reached this point (a writer,
	// via its own CPending fetch-and-add): Gatekeeper being closed means
	// no new member can join in the meantime, so once CPending catches
	// Started here the equality is stable, not a coincidence of timing.
	for uint64(verso.CPending.Load()) != uint64(verso.Started.Load()) {
		verso.SpinWait()
	}

	// Retroactive turbo: CPending is now pinned at this cohort's writer
	// count (Gatekeeper is still closed, so nothing can bump it further
	// until we or a sibling finishes). The writer whose own order equals
	// that count is the last one standing, so its in-place writeback
	// needs no per-location locking.
	turbo := order == uint64(verso.CPending.Load())
	if turbo {
		// Only the cohort's first writer may skip validation outright:
		// every later writer, turbo or not, can have had its read set
		// invalidated by an earlier same-cohort writeback, and turbo is
		// in fact the *most* exposed to that since it commits last.
		if order != 1 && !tx.ReadLog().Validate(tx.ID()) {
			tx.TMAbort()
		}
		tx.GoTurbo()
		tx.WriteLog().WriteBack()
	} else {
		if order != 1 && !tx.ReadLog().Validate(tx.ID()) {
			tx.TMAbort()
		}
		tx.WriteLog().Each(func(cell *verso.Word, _ uint64, _ verso.Mask) {
			o := verso.OrecFor(cell)
			if !tx.OrecLocks().Held(o) {
				acquire(tx, o)
			}
		})
		tx.WriteLog().WriteBack()
		tx.OrecLocks().ReleaseCommit(order)
	}

	verso.LastOrder.Store(int64(order))
	verso.Committed.Add(1)
	verso.LastComplete.Store(int64(order))

	if uint64(verso.CPending.Load()) == uint64(verso.Committed.Load()) {
		// We are the last writer of this cohort to finish. Every reader
		// that was present when the cohort closed has already left (that
		// is what let every writer, including us, clear the barrier
		// above), so Started counts only this cohort's writers and can
		// be retired in one step instead of racing each writer's own
		// decrement against a sibling's barrier check.
		verso.Started.Store(0)
		verso.Gatekeeper.Store(0) // no writer left mid-commit, reopen admission
	}
}

func rollback(*verso.Tx) {}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgCohortsLI,
		Name:     "CohortsLI",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW,
		Rollback: rollback,
	})
}
