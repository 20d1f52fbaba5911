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

// OrecLockList tracks the orecs a transaction currently holds (locked via
// Orec.TryLock) along with the version each one held immediately before
// acquisition, so abort can restore exactly that and commit can stamp a
// single new version across all of them.
type OrecLockList struct {
	orecs    []*Orec
	prevVers []uint64
}

func (l *OrecLockList) Reset() {
	l.orecs = l.orecs[:0]
	l.prevVers = l.prevVers[:0]
}

func (l *OrecLockList) Add(o *Orec, prevVersion uint64) {
	l.orecs = append(l.orecs, o)
	l.prevVers = append(l.prevVers, prevVersion)
}

func (l *OrecLockList) Held(o *Orec) bool {
	for _, held := range l.orecs {
		if held == o {
			return true
		}
	}
	return false
}

// ReleaseCommit stamps every held orec with newVersion and releases it.
func (l *OrecLockList) ReleaseCommit(newVersion uint64) {
	for _, o := range l.orecs {
		o.UnlockAt(newVersion)
	}
}

// ReleaseCommitIncrement stamps each held orec with its own prevVersion+1
// rather than one shared newVersion, for algorithms with no global clock
// to draw a single commit timestamp from (Nano/NanoELA release each orec
// independently, per spec §4.8's "releases with p+1").
func (l *OrecLockList) ReleaseCommitIncrement() {
	for i, o := range l.orecs {
		o.UnlockAt(l.prevVers[i] + 1)
	}
}

// ReleaseAbort restores every held orec to the version it had before this
// attempt locked it.
func (l *OrecLockList) ReleaseAbort() {
	for i, o := range l.orecs {
		o.UnlockRestore(l.prevVers[i])
	}
}

func (l *OrecLockList) Len() int { return len(l.orecs) }

// WriterLockHandle abstracts releasing a BitLock or ByteLock writer slot
// without the visible-reader algorithm needing two near-identical release
// paths.
type WriterLockHandle interface {
	ReleaseWrite()
}

// WriterLockList tracks the visible-reader write locks (BitLock or
// ByteLock) a transaction currently holds, for release on commit/abort.
type WriterLockList struct {
	locks []WriterLockHandle
}

func (l *WriterLockList) Reset() {
	l.locks = l.locks[:0]
}

func (l *WriterLockList) Add(h WriterLockHandle) {
	l.locks = append(l.locks, h)
}

func (l *WriterLockList) ReleaseAll() {
	for _, h := range l.locks {
		h.ReleaseWrite()
	}
}

func (l *WriterLockList) Len() int { return len(l.locks) }

// MarkHandle is a single visible-reader mark to undo: ByteEager's readers
// register their presence on a BitLock/ByteLock before reading it, and
// must clear that mark on both commit and abort.
type MarkHandle interface {
	Release()
}

// MarkList tracks a transaction's outstanding reader marks across a
// single attempt.
type MarkList struct {
	marks []MarkHandle
}

func (l *MarkList) Reset() {
	l.marks = l.marks[:0]
}

func (l *MarkList) Add(h MarkHandle) {
	l.marks = append(l.marks, h)
}

func (l *MarkList) ReleaseAll() {
	for _, h := range l.marks {
		h.Release()
	}
}

func (l *MarkList) Len() int { return len(l.marks) }
