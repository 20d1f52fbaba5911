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

// Package byteeager implements ByteEager: visible-reader, eager-locking
// STM. Readers register their presence on a location before reading it
// (a BitLock's bitmap when Config.MaxThreads <= 64, a ByteLock's per-
// thread byte array otherwise) so a writer can see who might be mid-read;
// writes happen in place, logged to an undo log, exactly like OrecEager,
// but conflict detection is against the visible-reader set instead of an
// orec version.
package byteeager

import (
	"time"

	"github.com/VERSO-GR0UP/verso"
)

// rlock is the common surface BitLock and ByteLock both satisfy; the
// package picks between them once, at lockFor, based on Config.MaxThreads.
type rlock interface {
	WriterID() (int, bool)
	MarkReading(id int)
	ClearReading(id int)
	IsReading(id int) bool
	AnyReaders() bool
	TryAcquireWrite(id int) bool
	ReleaseWrite()
}

func lockFor(cell *verso.Word) rlock {
	if verso.Current().MaxThreads <= 64 {
		return verso.BitLockFor(cell)
	}
	return verso.ByteLockFor(cell)
}

// markHandle lets ReaderMarks release a reader's presence bit generically
// through verso.MarkHandle.
type markHandle struct {
	lk rlock
	id int
}

func (m markHandle) Release() { m.lk.ClearReading(m.id) }

func begin(*verso.Tx) {}

func read(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	lk := lockFor(cell)
	deadline := time.Now().Add(verso.Current().ReadTimeout)
	for {
		if w, locked := lk.WriterID(); !locked || w == tx.ID() {
			break
		}
		if time.Now().After(deadline) {
			tx.TMAbort()
		}
		verso.SpinWait()
	}
	lk.MarkReading(tx.ID())
	tx.ReaderMarks().Add(markHandle{lk: lk, id: tx.ID()})
	if w, locked := lk.WriterID(); locked && w != tx.ID() {
		tx.TMAbort()
	}
	return cell.Load()
}

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	lk := lockFor(cell)
	if w, locked := lk.WriterID(); !locked || w != tx.ID() {
		acquireWrite(tx, lk)
	}
	tx.UndoLog().Record(cell)
	verso.MaskedStore(cell, val, mask)
}

func acquireWrite(tx *verso.Tx, lk rlock) {
	deadline := time.Now().Add(verso.Current().AcquireTimeout)
	for !lk.TryAcquireWrite(tx.ID()) {
		if w, locked := lk.WriterID(); locked {
			threads := verso.Threads()
			if w >= 0 && w < len(threads) && threads[w] != nil && tx.CM().ShouldAbort(tx, threads[w]) {
				threads[w].RequestAbort()
			}
		}
		if time.Now().After(deadline) {
			tx.TMAbort()
		}
		verso.SpinWait()
	}
	tx.WriterLocks().Add(lk)

	drainDeadline := time.Now().Add(verso.Current().DrainTimeout)
	for lk.AnyReaders() {
		if time.Now().After(drainDeadline) {
			abortOtherReaders(tx, lk)
			break
		}
		verso.SpinWait()
	}
}

// abortOtherReaders forces every thread still marked reading lk (other
// than tx itself) to abort, once the drain timeout passes. A visible
// reader either finishes before the drain window closes or is made to
// retry rather than let the writer block forever.
func abortOtherReaders(tx *verso.Tx, lk rlock) {
	for _, other := range verso.Threads() {
		if other == nil || other.ID() == tx.ID() {
			continue
		}
		if lk.IsReading(other.ID()) {
			other.RequestAbort()
		}
	}
}

func commitRO(*verso.Tx) {}

func commitRW(tx *verso.Tx) {
	tx.WriterLocks().ReleaseAll()
}

func rollback(*verso.Tx) {}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgByteEager,
		Name:     "ByteEager",
		Begin:    begin,
		ReadRO:   read,
		ReadRW:   read,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW,
		Rollback: rollback,
	})
}
