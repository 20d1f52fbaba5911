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

// Package oreceager implements OrecEager: eager-locking, orec-based STM.
// A writer locks each location the moment it is first written, logging
// the old value to an undo log so a later abort can restore it in place.
// Readers are invisible: they validate the orec they read against their
// own start time and never block a writer, which is why a losing writer
// must ask the contention manager who yields rather than simply waiting.
package oreceager

import (
	"time"

	"github.com/VERSO-GR0UP/verso"
)

func begin(tx *verso.Tx) {
	tx.SetStartTime(uint64(verso.Timestamp.Load()))
}

func readRO(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	o := verso.OrecFor(cell)
	deadline := time.Now().Add(verso.Current().ReadTimeout)
	for {
		owner, locked := o.IsLocked()
		if !locked || owner == tx.ID() {
			break
		}
		// Unlike an eager writer's acquire loop, a reader has no lock of
		// its own to offer in exchange for waiting: its only two options
		// are to ask the contention manager to abort the holder, per the
		// HyperAggressive scenario, or to give up and abort itself.
		resolveContention(tx, owner)
		if time.Now().After(deadline) {
			tx.TMAbort()
		}
		verso.SpinWait()
	}
	version := o.Version()
	if version > tx.StartTime() {
		tx.TMAbort()
	}
	val := cell.Load()
	if owner, locked := o.IsLocked(); (locked && owner != tx.ID()) || o.Version() != version {
		tx.TMAbort()
	}
	tx.ReadLog().Record(o, version)
	return val
}

func readRW(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	o := verso.OrecFor(cell)
	if tx.OrecLocks().Held(o) {
		return cell.Load()
	}
	return readRO(tx, cell)
}

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	o := verso.OrecFor(cell)
	if !tx.OrecLocks().Held(o) {
		acquire(tx, o)
	}
	tx.UndoLog().Record(cell)
	verso.MaskedStore(cell, val, mask)
}

// acquire locks o for tx, asking the contention manager to arbitrate
// whenever another live transaction already holds it.
func acquire(tx *verso.Tx, o *verso.Orec) {
	deadline := time.Now().Add(verso.Current().AcquireTimeout)
	for {
		if owner, locked := o.IsLocked(); locked {
			if owner == tx.ID() {
				return
			}
			resolveContention(tx, owner)
			if time.Now().After(deadline) {
				tx.TMAbort()
			}
			verso.SpinWait()
			continue
		}
		version := o.Version()
		if version > tx.StartTime() {
			tx.TMAbort()
		}
		prev, ok := o.TryLock(tx.ID(), version)
		if ok {
			tx.OrecLocks().Add(o, prev)
			return
		}
	}
}

// resolveContention asks tx's contention manager whether the thread
// already holding the lock (ownerID) should be made to abort. The manager
// never aborts the owner directly: it only flags the request, which the
// owner's own barrier calls notice via CheckAbort.
func resolveContention(tx *verso.Tx, ownerID int) {
	threads := verso.Threads()
	if ownerID < 0 || ownerID >= len(threads) || threads[ownerID] == nil {
		return
	}
	owner := threads[ownerID]
	if tx.CM().ShouldAbort(tx, owner) {
		owner.RequestAbort()
	}
}

func commitRO(tx *verso.Tx) {
	// No locks held, nothing written: the read-only fast path needs no
	// further validation since OrecEager doesn't extend its start time.
	_ = tx
}

func commitRW(tx *verso.Tx) {
	if !tx.ReadLog().Validate(tx.ID()) {
		tx.TMAbort()
	}
	newVersion := uint64(verso.Timestamp.Add(1))
	tx.OrecLocks().ReleaseCommit(newVersion)
}

func rollback(*verso.Tx) {
	// Undo log replay and lock release are handled generically by
	// Tx.TMAbort before Rollback runs; OrecEager has no extra state.
}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgOrecEager,
		Name:     "OrecEager",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW,
		Rollback: rollback,
	})
}
