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

// Package nano implements Nano and NanoELA: the smallest orec-based STM in
// this runtime. There is no global clock; a committer stamps each orec it
// releases with that orec's own previous version plus one, instead of a
// single shared timestamp. In exchange for dropping the clock, a reader
// must revalidate its entire (bounded) read set on every new read rather
// than trusting a start-time snapshot, which is what keeps a stale read
// from surviving an intervening writer's release — quadratic in the read
// set size, which is exactly why the set is capped by NanorecTableSize.
package nano

import (
	"context"
	"time"

	"github.com/VERSO-GR0UP/verso"
)

// overflowSentinel is the consecAborts value Nano forces on the rare
// self-abort triggered by a read set outgrowing NanorecTableSize, so a
// contention manager that scales with consecAborts (Backoff's capped
// delay, Hourglass's escalation) treats it as a sustained conflict rather
// than an ordinary one-off one.
const overflowSentinel = 16

func begin(*verso.Tx) {}

func readRO(tx *verso.Tx, cell *verso.Word) uint64 {
	tx.CheckAbort()
	o := verso.OrecFor(cell)
	if owner, locked := o.IsLocked(); locked && owner != tx.ID() {
		tx.TMAbort()
	}
	version := o.Version()
	val := cell.Load()
	if owner, locked := o.IsLocked(); locked && owner != tx.ID() {
		tx.TMAbort()
	}
	if !tx.Nanorecs().Record(o, version) {
		tx.RequestAbortStorm(overflowSentinel)
		tx.TMAbort()
	}
	if !tx.Nanorecs().Validate(tx.ID()) {
		tx.TMAbort()
	}
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

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
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

// commitRW is shared by Nano and NanoELA. elaSafe selects the same
// privatization clock handshake as every other ELA sibling in this
// runtime; NanoELA's epoch tick is a plain Timestamp fetch-and-add used
// only to name the handshake, never to stamp an orec version.
func commitRW(elaSafe bool) verso.CommitFunc {
	return func(tx *verso.Tx) {
		if tx.WriteLog().Len() == 0 {
			return
		}
		tx.WriteLog().Each(func(cell *verso.Word, _ uint64, _ verso.Mask) {
			o := verso.OrecFor(cell)
			if !tx.OrecLocks().Held(o) {
				acquire(tx, o)
			}
		})
		if !tx.Nanorecs().Validate(tx.ID()) {
			tx.TMAbort()
		}
		var epoch uint64
		if elaSafe {
			epoch = uint64(verso.Timestamp.Add(1))
			verso.ClockBegin(epoch)
		}
		tx.WriteLog().WriteBack()
		tx.OrecLocks().ReleaseCommitIncrement()
		if elaSafe {
			verso.ClockDone(epoch)
			_ = verso.ClockWait(context.Background(), epoch)
		}
	}
}

func rollback(*verso.Tx) {}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgNano,
		Name:     "Nano",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW(false),
		Rollback: rollback,
	})
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgNanoELA,
		Name:     "NanoELA",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW(true),
		Rollback: rollback,
	})
}
