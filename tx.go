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

import (
	"sync/atomic"

	"github.com/VERSO-GR0UP/verso/pkg/filter"
)

// Mode tracks which of an algorithm's cached barrier variants a Tx is
// currently dispatching through. Algorithms that distinguish a read-only
// fast path from a read-write path (almost all of them) start every
// attempt in ModeReadOnly and call Tx.OnFirstWrite to upgrade; the cohort
// family additionally has a ModeTurbo an attempt can be
// promoted into once it is known to be conflict-free for the rest of its
// run (see Tx.GoTurbo).
type Mode int

const (
	ModeReadOnly Mode = iota
	ModeReadWrite
	ModeTurbo
)

// Tx is a single goroutine's transactional handle, obtained once from
// RegisterThread and reused across every Atomically call that goroutine
// makes. It plays the role the original's TxThread/Descriptor does: it is
// never safe to share across goroutines or to read/write concurrently with
// its own owner's in-flight attempt.
type Tx struct {
	id int // index into the thread registry; also used as orec owner id

	cm ContentionManager

	alg   *Algorithm
	m     Mode
	read  ReadFunc
	write WriteFunc

	// epoch is even between attempts and odd while an attempt is in
	// flight; quiesceAllThreads spins on this to find a safe point for an
	// algorithm switch or Init.
	epoch atomic.Uint64

	nesting int // flat-nesting depth; 0 means not inside Atomically

	consecAborts int
	startTime    uint64 // timestamp snapshot the attempt began validating from

	// order is the commit-token family's assigned commit order for this
	// attempt (CTokenELA.order), -1 meaning "no outstanding order" (see
	// spec §3.3).
	order int64

	// abortSentinel lets an algorithm (Nano, on nanorec-table overflow)
	// force a large consecAborts value on this attempt's abort instead of
	// the ordinary +1, so a contention manager that scales with
	// consecAborts treats the overflow as a sustained conflict rather than
	// an ordinary one. Popped (and reset to 0) by Atomically.
	abortSentinel int

	rlog  ReadLog
	wlog  WriteLog
	ulog  UndoLog
	vlog  ValueLog
	nanos NanorecTable

	// rfilter/wfilter are the ring family's per-attempt Bloom filters over
	// the read and write sets, lazily allocated on first use since only
	// that family touches them (see ReadFilter/WriteFilter).
	rfilter *filter.Filter
	wfilter *filter.Filter

	orecLocks   OrecLockList
	writerLocks WriterLockList
	readerMarks MarkList

	// progressSeen is Pessimistic's single-round-wait optimization: once
	// this attempt has spun waiting on another writer's WriterLock, its
	// own acquire no longer asks the contention manager about the holder
	// (see algs/pessimistic and libstm/algs/pessimistic.cpp's
	// tx->progress_is_seen).
	progressSeen bool

	// abortRequested implements remote abort: a contention manager that
	// decides this transaction should yield (HyperAggressive, FCM) sets it
	// through RequestAbort, and this transaction's own barrier calls
	// notice it on their next read/write and call TMAbort. There is no
	// other way to unwind a goroutine that isn't cooperating.
	abortRequested atomic.Bool

	allocHook AllocatorHook
}

// RegisterThread hands the caller a fresh *Tx bound to the calling
// goroutine. cm may be nil, in which case a no-op ContentionManager is
// used; pass one of pkg/cm's managers for real contention handling. The
// returned Tx must be Unregistered when the goroutine is done with it.
func RegisterThread(cm ContentionManager) (*Tx, error) {
	if cm == nil {
		cm = defaultCM{}
	}
	tx := &Tx{cm: cm, allocHook: defaultAllocatorHook}
	if err := registry.register(tx); err != nil {
		return nil, err
	}
	tx.alg = dispatchActive()
	return tx, nil
}

// Unregister retires tx. It must only be called once, after tx's owning
// goroutine is done making transactions; a retired Tx must not be reused.
func (tx *Tx) Unregister() {
	registry.unregister(tx)
}

// ID returns tx's thread-registry id, stable for its lifetime. Algorithms
// that need a small dense integer per thread (lock and orec ownership
// encoding, visible-reader marks) use this.
func (tx *Tx) ID() int { return tx.id }

// Mode reports which barrier variant tx is currently dispatching through.
func (tx *Tx) Mode() Mode { return tx.m }

// CM returns the ContentionManager tx was registered with.
func (tx *Tx) CM() ContentionManager { return tx.cm }

// ConsecAborts returns how many times in a row the current Atomically call
// has retried before this attempt.
func (tx *Tx) ConsecAborts() int { return tx.consecAborts }

// StartTime / SetStartTime hold the commit-clock snapshot an attempt began
// validating reads from (OrecEager/OrecLazy/CTokenELA/CohortsLI/Ring/
// Pessimistic stamp this at Begin and compare later reads against it).
func (tx *Tx) StartTime() uint64      { return tx.startTime }
func (tx *Tx) SetStartTime(v uint64)  { tx.startTime = v }

// Order / SetOrder hold the commit-token family's assigned commit
// order for the current attempt. -1 means no order has been assigned yet.
func (tx *Tx) Order() int64     { return tx.order }
func (tx *Tx) SetOrder(v int64) { tx.order = v }

// RequestAbortStorm asks the next TMAbort this attempt hits to report
// consecAborts as n rather than incrementing it by one, so a contention
// manager treats the coming retry as if it were the
// nth abort in a row. Nano calls this when its nanorec table overflows
// (see spec §4.8).
func (tx *Tx) RequestAbortStorm(n int) { tx.abortSentinel = n }

// popAbortSentinel returns and clears the pending abort-storm override, if
// any. Called by Atomically right after an attempt unwinds.
func (tx *Tx) popAbortSentinel() int {
	n := tx.abortSentinel
	tx.abortSentinel = 0
	return n
}

// ReadFilter / WriteFilter lazily allocate and return tx's per-attempt
// Bloom filters over the read and write sets. Only the ring family uses
// these; every other algorithm leaves them nil for the
// lifetime of the Tx.
func (tx *Tx) ReadFilter() *filter.Filter {
	if tx.rfilter == nil {
		tx.rfilter = filter.NewDefault(Current().FilterCapacity)
	}
	return tx.rfilter
}

func (tx *Tx) WriteFilter() *filter.Filter {
	if tx.wfilter == nil {
		tx.wfilter = filter.NewDefault(Current().FilterCapacity)
	}
	return tx.wfilter
}

// ProgressSeen / SetProgressSeen back Pessimistic's single-round-wait
// optimization (see libstm/algs/pessimistic.cpp's progress_is_seen).
func (tx *Tx) ProgressSeen() bool     { return tx.progressSeen }
func (tx *Tx) SetProgressSeen(v bool) { tx.progressSeen = v }

// ReadLog, WriteLog, UndoLog, ValueLog, Nanorecs, OrecLocks and
// WriterLocks expose tx's per-attempt log structures to the algorithm
// package implementing its barriers.
func (tx *Tx) ReadLog() *ReadLog             { return &tx.rlog }
func (tx *Tx) WriteLog() *WriteLog           { return &tx.wlog }
func (tx *Tx) UndoLog() *UndoLog             { return &tx.ulog }
func (tx *Tx) ValueLog() *ValueLog           { return &tx.vlog }
func (tx *Tx) Nanorecs() *NanorecTable       { return &tx.nanos }
func (tx *Tx) OrecLocks() *OrecLockList      { return &tx.orecLocks }
func (tx *Tx) WriterLocks() *WriterLockList  { return &tx.writerLocks }
func (tx *Tx) ReaderMarks() *MarkList        { return &tx.readerMarks }

// AllocHook returns the AllocatorHook tx was constructed with.
func (tx *Tx) AllocHook() AllocatorHook { return tx.allocHook }

// ResetToRO re-arms tx for a fresh attempt in the read-only fast path,
// clearing every per-attempt log and restoring the algorithm's RO barrier
// pair. Called at the top of every Atomically iteration.
func (tx *Tx) ResetToRO() {
	tx.m = ModeReadOnly
	tx.read = tx.alg.ReadRO
	tx.write = nil
	tx.order = -1
	tx.rlog.Reset()
	tx.wlog.Reset()
	tx.ulog.Reset()
	tx.vlog.Reset()
	tx.nanos.Reset(Current().NanorecTableSize)
	if tx.rfilter != nil {
		tx.rfilter.Reset()
	}
	if tx.wfilter != nil {
		tx.wfilter.Reset()
	}
	tx.orecLocks.Reset()
	tx.writerLocks.Reset()
	tx.readerMarks.Reset()
	tx.progressSeen = false
	tx.abortRequested.Store(false)
}

// OnFirstWrite upgrades tx from the read-only to the read-write barrier
// pair the first time Write is called in an attempt. It is a no-op once
// already in ModeReadWrite or ModeTurbo.
func (tx *Tx) OnFirstWrite() {
	if tx.m != ModeReadOnly {
		return
	}
	tx.m = ModeReadWrite
	tx.read = tx.alg.ReadRW
	tx.write = tx.alg.WriteRW
}

// GoTurbo promotes tx into in-place, no-undo-log mode: only the CohortsLI
// last-writer fast path uses this.
// A transaction in turbo mode can never roll back (see ErrTurboRollback);
// callers must only invoke this once they have proven no further conflict
// is possible.
func (tx *Tx) GoTurbo() {
	tx.m = ModeTurbo
}

// IsTurbo reports whether tx is running in turbo mode.
func (tx *Tx) IsTurbo() bool { return tx.m == ModeTurbo }

// RequestAbort asks tx to abort itself at its next opportunity. Contention
// managers that win a conflict call this on the loser instead of directly
// manipulating another goroutine's state; the loser only ever aborts
// itself, from its own goroutine, once CheckAbort notices the flag.
func (tx *Tx) RequestAbort() { tx.abortRequested.Store(true) }

// CheckAbort calls TMAbort if another thread's contention manager has
// called RequestAbort on tx since its last reset. Algorithm barriers call
// this at the start of every Read/Write so a remote-abort request is
// honored promptly rather than only at commit.
func (tx *Tx) CheckAbort() {
	if tx.abortRequested.Load() {
		tx.TMAbort()
	}
}
