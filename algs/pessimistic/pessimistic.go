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

// Package pessimistic implements Pessimistic: the runtime's simplest, most
// conservative algorithm. A single global WriterLock serializes writers
// (readers never take it), and every writer bumps GlobalVersion on release;
// a reader snapshots GlobalVersion at begin, waits out any writer already
// in flight before touching memory, and aborts if the version moved during
// its own lifetime rather than trying to reconcile a torn view. There is
// no per-location state at all: Pessimistic trades parallelism for the
// smallest possible amount of bookkeeping.
package pessimistic

import (
	"time"

	"github.com/VERSO-GR0UP/verso"
)

func begin(tx *verso.Tx) {
	tx.SetStartTime(uint64(verso.GlobalVersion.Load()))
	tx.SetProgressSeen(false)
}

// awaitWriter blocks while some other transaction holds WriterLock, the
// same bounded wait a visible-reader bytelock/bitlock reader runs before
// trusting a location's value (see algs/byteeager). Once tx has spun on a
// held lock, it remembers it watched a writer so a later acquire attempt of its
// own need not ask the contention manager to referee a fresh wait from
// scratch.
func awaitWriter(tx *verso.Tx) {
	deadline := time.Now().Add(verso.Current().ReadTimeout)
	for {
		owner := verso.WriterLock.Load()
		if owner == 0 || owner == int64(tx.ID()+1) {
			return
		}
		if time.Now().After(deadline) {
			tx.TMAbort()
		}
		verso.SpinWait()
		tx.SetProgressSeen(true)
	}
}

func validate(tx *verso.Tx) {
	if uint64(verso.GlobalVersion.Load()) != tx.StartTime() {
		tx.TMAbort()
	}
}

func readRO(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	awaitWriter(tx)
	validate(tx)
	return cell.Load()
}

func readRW(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	// Once this attempt owns WriterLock, its own pending writes are
	// visible in place and need no version check.
	if verso.WriterLock.Load() == int64(tx.ID()+1) {
		return cell.Load()
	}
	return readRO(tx, cell)
}

// acquire takes the single global writer lock for tx, asking the
// contention manager to lean on the current holder only the first time
// this attempt waits — once progressSeen is set, tx already knows the
// system is making forward progress and a second request would just add
// noise.
func acquire(tx *verso.Tx) {
	deadline := time.Now().Add(verso.Current().AcquireTimeout)
	for {
		if verso.WriterLock.CompareAndSwap(0, int64(tx.ID()+1)) {
			return
		}
		if !tx.ProgressSeen() {
			ownerID := int(verso.WriterLock.Load()) - 1
			threads := verso.Threads()
			if ownerID >= 0 && ownerID < len(threads) && threads[ownerID] != nil {
				if tx.CM().ShouldAbort(tx, threads[ownerID]) {
					threads[ownerID].RequestAbort()
				}
			}
		}
		if time.Now().After(deadline) {
			tx.TMAbort()
		}
		verso.SpinWait()
		tx.SetProgressSeen(true)
	}
}

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	if verso.WriterLock.Load() != int64(tx.ID()+1) {
		acquire(tx)
		validate(tx)
	}
	tx.UndoLog().Record(cell)
	verso.MaskedStore(cell, val, mask)
}

func commitRO(*verso.Tx) {}

func commitRW(tx *verso.Tx) {
	_ = tx
	verso.GlobalVersion.Add(1)
	verso.WriterLock.Store(0)
}

// rollback releases WriterLock if this attempt had acquired it; the undo
// log replay itself is handled generically by Tx.TMAbort before Rollback
// runs.
func rollback(tx *verso.Tx) {
	if verso.WriterLock.Load() == int64(tx.ID()+1) {
		verso.WriterLock.Store(0)
	}
}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgPessimistic,
		Name:     "Pessimistic",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW,
		Rollback: rollback,
	})
}
