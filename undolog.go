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

// undoLogEntry remembers what a cell held immediately before this
// transaction's first in-place write to it.
type undoLogEntry struct {
	cell *Word
	old  uint64
}

// UndoLog is a transaction's undo log, used by the eager-locking families
// (OrecEager, ByteEager, Pessimistic): writes happen in place as soon as a
// location is locked, and rollback walks this log in reverse to restore
// the pre-transaction state.
type UndoLog struct {
	entries []undoLogEntry
	logged  map[*Word]struct{}
}

func (u *UndoLog) Reset() {
	u.entries = u.entries[:0]
	if u.logged == nil {
		u.logged = make(map[*Word]struct{})
	} else {
		clear(u.logged)
	}
}

// Record saves cell's current value the first time this attempt writes to
// it; subsequent writes to the same cell within the attempt are not
// re-logged, since the first logged value is already the correct
// rollback target.
func (u *UndoLog) Record(cell *Word) {
	if _, ok := u.logged[cell]; ok {
		return
	}
	u.logged[cell] = struct{}{}
	u.entries = append(u.entries, undoLogEntry{cell: cell, old: cell.Load()})
}

// Rollback restores every logged cell to its pre-transaction value, in
// reverse order.
func (u *UndoLog) Rollback() {
	for i := len(u.entries) - 1; i >= 0; i-- {
		e := u.entries[i]
		e.cell.Store(e.old)
	}
}

func (u *UndoLog) Len() int { return len(u.entries) }
