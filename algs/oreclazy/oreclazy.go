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

// Package oreclazy implements OrecLazy and its privatization-safe sibling
// OrecELA: lazy-locking orec STM. Writes buffer in a redo log and are
// only published once every location in the write set is locked and the
// whole read set revalidates, trading OrecEager's in-place undo-log
// rollback for a commit-time critical section.
package oreclazy

import (
	"context"
	"time"

	"github.com/VERSO-GR0UP/verso"
)

func begin(tx *verso.Tx) {
	tx.SetStartTime(uint64(verso.Timestamp.Load()))
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

func writeRW(tx *verso.Tx, cell *verso.Word, val uint64, mask verso.Mask) {
	tx.CheckAbort()
	tx.WriteLog().Record(cell, val, mask)
}

func acquire(tx *verso.Tx, o *verso.Orec) {
	deadline := time.Now().Add(verso.Current().AcquireTimeout)
	for {
		if owner, locked := o.IsLocked(); locked {
			if owner == tx.ID() {
				return
			}
			threads := verso.Threads()
			if owner >= 0 && owner < len(threads) && threads[owner] != nil {
				if tx.CM().ShouldAbort(tx, threads[owner]) {
					threads[owner].RequestAbort()
				}
			}
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

func commitRO(*verso.Tx) {}

// commitRW is shared by OrecLazy and OrecELA; elaSafe selects whether the
// committer waits for the privatization clock to catch up before
// returning, which is the only difference between the two algorithms.
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
		if !tx.ReadLog().Validate(tx.ID()) {
			tx.TMAbort()
		}
		newVersion := uint64(verso.Timestamp.Add(1))
		if elaSafe {
			verso.ClockBegin(newVersion)
		}
		tx.WriteLog().WriteBack()
		tx.OrecLocks().ReleaseCommit(newVersion)
		if elaSafe {
			verso.ClockDone(newVersion)
			_ = verso.ClockWait(context.Background(), newVersion)
		}
	}
}

func rollback(*verso.Tx) {}

func init() {
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgOrecLazy,
		Name:     "OrecLazy",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW(false),
		Rollback: rollback,
	})
	verso.Register(&verso.Algorithm{
		ID:       verso.AlgOrecELA,
		Name:     "OrecELA",
		Begin:    begin,
		ReadRO:   readRO,
		ReadRW:   readRW,
		WriteRW:  writeRW,
		CommitRO: commitRO,
		CommitRW: commitRW(true),
		Rollback: rollback,
	})
}
