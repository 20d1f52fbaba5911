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

// Package ctoken implements CTokenELA: orec-based validation with commit
// order assigned by a "commit token" instead of a single global clock CAS.
// A writer draws its token lazily, on its first write, by fetch-adding the
// global Timestamp; it then waits for LastComplete to reach token-1 before
// validating and writing back, serializing commits in token order without
// a CAS retry loop on the clock the way the ring family's commit has. ELA privatization
// safety is layered on exactly as in OrecELA and RingALA.
package ctoken

import (
	"context"
	"time"

	"github.com/VERSO-GR0UP/verso"
)

func begin(tx *verso.Tx) {
	tx.SetStartTime(uint64(verso.LastComplete.Load()))
	tx.SetOrder(-1)
}

func readRO(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	o := verso.OrecFor(cell)
	if owner, locked := o.IsLocked(); locked && owner != tx.ID() {
		tx.TMAbort()
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

// takeOrder draws tx's commit token on the first write of an attempt. Every
// later write in the same attempt reuses it.
func takeOrder(tx *verso.Tx) {
	if tx.Order() < 0 {
		tx.SetOrder(verso.Timestamp.Add(1))
	}
}

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	takeOrder(tx)
	tx.WriteLog().Record(cell, val, mask)
}

func commitRO(*verso.Tx) {}

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

// commitRW is shared by CTokenELA's single registration; the elaSafe clock
// handshake is unconditional here, unlike ring/oreclazy's parameterized
// factory, since CTokenELA (unlike RingALA/OrecELA, whose siblings are
// RingSW/OrecLazy) has no non-ELA sibling in this family.
func commitRW(tx *verso.Tx) {
	if tx.WriteLog().Len() == 0 {
		return
	}
	takeOrder(tx)
	order := tx.Order()

	for verso.LastComplete.Load() != order-1 {
		tx.CheckAbort()
		verso.SpinWait()
	}

	if !tx.ReadLog().Validate(tx.ID()) {
		tx.TMAbort() // rollback() below still owes LastComplete its token
	}

	tx.WriteLog().Each(func(cell *verso.Word, _ uint64, _ verso.Mask) {
		o := verso.OrecFor(cell)
		if !tx.OrecLocks().Held(o) {
			acquire(tx, o)
		}
	})

	verso.ClockBegin(uint64(order))
	tx.WriteLog().WriteBack()
	tx.OrecLocks().ReleaseCommit(uint64(order))
	verso.ClockDone(uint64(order))
	publishOrder(order)
	_ = verso.ClockWait(context.Background(), uint64(order))
}

// publishOrder advances LastComplete to order, unblocking whichever
// transaction is waiting for the next token in sequence.
func publishOrder(order int64) {
	verso.LastComplete.Store(order)
}

// rollback handles the one case the commit-token family needs that no
// other family does: a transaction that already drew a token (it had
// written something) but aborts before reaching commitRW's writeback —
// through a remote abort, a read-set conflict caught elsewhere, or a
// read-only downgrade is impossible here since a write already happened.
// If it simply walked away, every later-tokened writer would spin on
// LastComplete forever waiting for a token that will never be published.
// So an aborting holder of a token must still wait its turn and publish
// it, exactly as if it had committed an empty write set.
func rollback(tx *verso.Tx) {
	order := tx.Order()
	if order < 0 {
		return
	}
	for verso.LastComplete.Load() != order-1 {
		verso.SpinWait()
	}
	publishOrder(order)
}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgCTokenELA,
		Name:     "CTokenELA",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW,
		Rollback: rollback,
	})
}
