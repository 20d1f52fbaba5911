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
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Counter is an atomic.Int64 alone on its own cache line. Every global the
// hot path touches from multiple threads (the shared clock, the cohort
// gatekeeper, the pessimistic writer lock, ...) is one of these: without
// the pad, unrelated globals placed by the compiler on the same line would
// ping-pong between cores on every increment.
type Counter struct {
	v atomic.Int64
	_ cpu.CacheLinePad
}

func (c *Counter) Load() int64                      { return c.v.Load() }
func (c *Counter) Store(val int64)                  { c.v.Store(val) }
func (c *Counter) Add(delta int64) int64            { return c.v.Add(delta) }
func (c *Counter) CompareAndSwap(old, new int64) bool { return c.v.CompareAndSwap(old, new) }

var (
	// Timestamp is the shared commit-order clock. OrecEager/OrecLazy read
	// it to validate, bump it (or CAS a per-orec copy of it) on commit.
	// The ring family also uses it as the ring's publish sequence number.
	Timestamp = &Counter{}

	// Gatekeeper, Started, CPending, Committed and LastOrder are
	// CohortsLI's turbo-commit bookkeeping, named identically to
	// CohortsLI.cpp: Gatekeeper admits/bars new cohorts, Started/CPending/
	// Committed count a cohort's membership through its three phases, and
	// LastOrder records the order of the most recent cohort writer to
	// commit (algs/cohorts stores it; nothing in the runtime reads it).
	Gatekeeper = &Counter{}
	Started    = &Counter{}
	CPending   = &Counter{}
	Committed  = &Counter{}
	LastOrder  = &Counter{}

	// LastComplete is the commit-token and cohort families' "highest
	// committed order" counter: a writer waits for LastComplete to reach
	// order-1 before validating/writing back, then publishes its own
	// order, serializing commits without a global lock (see algs/ctoken,
	// algs/cohorts).
	LastComplete = &Counter{}

	// GlobalVersion and WriterLock are the Pessimistic algorithm's single
	// writer-serialization token and the version readers validate against.
	GlobalVersion = &Counter{}
	WriterLock    = &Counter{}
)

// threadRegistry is the explicit substitute for the thread-local state the
// original C++ gets from __thread: Go has no per-goroutine storage, so
// every *Tx a caller is handed by RegisterThread is also kept here, both so
// algorithms can map a lock owner's id back to its *Tx (contention-manager
// consults, ByteEager's reader abort) and so Install and Init can quiesce
// everyone first.
type threadRegistry struct {
	mu      sync.Mutex
	threads []*Tx
}

var registry = &threadRegistry{}

func (r *threadRegistry) register(tx *Tx) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.threads) >= activeConfig.Load().MaxThreads {
		return ErrThreadTableFull
	}
	tx.id = len(r.threads)
	r.threads = append(r.threads, tx)
	return nil
}

// unregister removes tx from the live set. Neither it nor killThread ever
// shrinks the slice: ids are used as direct indices into Threads() and as
// lock owner ids, so a slot is retired in place rather than compacted.
func (r *threadRegistry) unregister(tx *Tx) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx.id >= 0 && tx.id < len(r.threads) && r.threads[tx.id] == tx {
		r.threads[tx.id] = nil
	}
}

// snapshot returns the currently live threads. Callers must tolerate nil
// entries for retired slots.
func (r *threadRegistry) snapshot() []*Tx {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Tx, len(r.threads))
	copy(out, r.threads)
	return out
}

// Threads returns a snapshot of every currently registered *Tx, nil entries
// included for retired slots. Algorithms index it by a lock owner's id to
// reach that owner's *Tx (contention-manager consults) or scan it for
// marked readers (ByteEager) instead of keeping their own registry.
func Threads() []*Tx {
	return registry.snapshot()
}

// quiesceAllThreads blocks until every live thread is outside an active
// transaction attempt, i.e. every thread's epoch counter is even (see
// Tx.epoch in tx.go). Install uses this to make an algorithm switch a safe
// point: no thread may be mid-barrier-call when the dispatch table swaps
// under it.
func quiesceAllThreads() {
	for _, tx := range registry.snapshot() {
		if tx == nil {
			continue
		}
		for {
			e := tx.epoch.Load()
			if e%2 == 0 {
				break
			}
			SpinWait()
		}
	}
}

// killThread marks thread id as permanently inactive. It is idempotent.
// Nothing in the runtime calls it.
func killThread(id int) bool {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if id < 0 || id >= len(registry.threads) || registry.threads[id] == nil {
		return false
	}
	registry.threads[id] = nil
	return true
}
