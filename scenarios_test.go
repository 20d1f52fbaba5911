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

// This file runs the concrete scenarios from spec.md's testable-properties
// table end to end, one test function per row, against every algorithm for
// which the scenario makes sense.
package verso_test

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/VERSO-GR0UP/verso"
	_ "github.com/VERSO-GR0UP/verso/algs"
	"github.com/VERSO-GR0UP/verso/pkg/cm"
)

// TestMain widens the thread registry before any scenario runs: the
// registry never recycles a retired id (see threadRegistry.register), and
// this file alone registers several dozen short-lived threads across its
// scenarios, comfortably more than DefaultConfig's MaxThreads.
func TestMain(m *testing.M) {
	cfg := verso.DefaultConfig
	cfg.MaxThreads = 512
	verso.Init(cfg)
	os.Exit(m.Run())
}

// allAlgorithms is every AlgID the algs aggregator registers, in the order
// algs/algs.go's blank imports bring them in.
var allAlgorithms = []verso.AlgID{
	verso.AlgOrecEager,
	verso.AlgOrecLazy,
	verso.AlgOrecELA,
	verso.AlgByteEager,
	verso.AlgRingSW,
	verso.AlgRingALA,
	verso.AlgCohortsLI,
	verso.AlgCTokenELA,
	verso.AlgNano,
	verso.AlgNanoELA,
	verso.AlgPessimistic,
}

func algName(t *testing.T, id verso.AlgID) string {
	t.Helper()
	alg, err := verso.Lookup(id)
	require.NoError(t, err)
	return alg.Name
}

// Scenario 1: two threads race an unprotected-looking read-modify-write
// counter 10000 times each; a linearizable implementation always lands on
// exactly 20000.
func TestScenario1LinearizableCounter(t *testing.T) {
	const itersPerThread = 10000

	for _, id := range allAlgorithms {
		id := id
		t.Run(algName(t, id), func(t *testing.T) {
			require.NoError(t, verso.Install(id))

			x := new(verso.Word)

			var wg sync.WaitGroup
			wg.Add(2)
			for i := 0; i < 2; i++ {
				go func() {
					defer wg.Done()
					tx, err := verso.RegisterThread(nil)
					require.NoError(t, err)
					defer tx.Unregister()

					for j := 0; j < itersPerThread; j++ {
						err := verso.Atomically(tx, func(tx *verso.Tx) error {
							v := tx.Read(x)
							tx.Write(x, v+1)
							return nil
						})
						require.NoError(t, err)
					}
				}()
			}
			wg.Wait()

			require.Equal(t, uint64(2*itersPerThread), x.Load())
		})
	}
}

// Scenario 2: T1 reads A and B while T2 concurrently overwrites both; T1
// must observe either the whole pre-state or the whole post-state, never a
// mix, regardless of how the two threads interleave.
func TestScenario2NoTornBankTransfer(t *testing.T) {
	for _, id := range allAlgorithms {
		id := id
		t.Run(algName(t, id), func(t *testing.T) {
			require.NoError(t, verso.Install(id))

			a := new(verso.Word)
			b := new(verso.Word)
			a.Store(1)
			b.Store(2)

			var wg sync.WaitGroup
			wg.Add(2)

			var seenA, seenB uint64
			go func() {
				defer wg.Done()
				tx, err := verso.RegisterThread(nil)
				require.NoError(t, err)
				defer tx.Unregister()

				err = verso.Atomically(tx, func(tx *verso.Tx) error {
					seenA = tx.Read(a)
					seenB = tx.Read(b)
					return nil
				})
				require.NoError(t, err)
			}()
			go func() {
				defer wg.Done()
				tx, err := verso.RegisterThread(nil)
				require.NoError(t, err)
				defer tx.Unregister()

				err = verso.Atomically(tx, func(tx *verso.Tx) error {
					tx.Write(a, 10)
					tx.Write(b, 20)
					return nil
				})
				require.NoError(t, err)
			}()
			wg.Wait()

			preState := seenA == 1 && seenB == 2
			postState := seenA == 10 && seenB == 20
			require.True(t, preState || postState, "saw a torn state: a=%d b=%d", seenA, seenB)
		})
	}
}

// Scenario 3: under OrecEager with HyperAggressive, a reader that finds its
// target locked aborts the holder outright instead of waiting; the holder
// restarts, the reader proceeds, and the system as a whole makes progress.
func TestScenario3HyperAggressiveRemoteAbort(t *testing.T) {
	// Generous enough that the holder's spin below has time to notice the
	// remote abort before the reader's own wait gives up on it.
	prior := verso.Current()
	cfg := prior
	cfg.ReadTimeout = 200 * time.Millisecond
	verso.Init(cfg)
	defer verso.Init(prior)

	require.NoError(t, verso.Install(verso.AlgOrecEager))

	x := new(verso.Word)

	holder, err := verso.RegisterThread(cm.HyperAggressive{})
	require.NoError(t, err)
	defer holder.Unregister()

	reader, err := verso.RegisterThread(cm.HyperAggressive{})
	require.NoError(t, err)
	defer reader.Unregister()

	holderEntered := make(chan struct{})
	holderDone := make(chan error, 1)

	go func() {
		attempts := 0
		holderDone <- verso.Atomically(holder, func(tx *verso.Tx) error {
			attempts++
			tx.Write(x, uint64(attempts))
			if attempts == 1 {
				close(holderEntered)
				for {
					// CheckAbort panics as soon as the reader below asks
					// HyperAggressive to abort us; that panic is this
					// attempt's restart.
					tx.CheckAbort()
					runtime.Gosched()
				}
			}
			return nil
		})
	}()

	<-holderEntered

	err = verso.Atomically(reader, func(tx *verso.Tx) error {
		_ = tx.Read(x)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, <-holderDone)
}

// Scenario 4: CohortsLI, 4 threads each running 100 read-write
// transactions. Every cohort admits at most the currently-live thread
// count, and the last writer standing takes the turbo path; all 400
// transactions commit.
func TestScenario4CohortsAllCommit(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgCohortsLI))

	counter := new(verso.Word)
	const threads = 4
	const txnsPerThread = 100

	var committed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			for j := 0; j < txnsPerThread; j++ {
				err := verso.Atomically(tx, func(tx *verso.Tx) error {
					v := tx.Read(counter)
					tx.Write(counter, v+1)
					return nil
				})
				require.NoError(t, err)
				committed.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(threads*txnsPerThread), committed.Load())
	require.Equal(t, uint64(threads*txnsPerThread), counter.Load())
}

// Scenario 5: RingSW with 5 writers whose filters all intersect. Within any
// window where the ring hasn't wrapped past a competitor's start time,
// exactly one of them is the one to CAS the clock forward; every other
// concurrent writer detects the conflict and retries.
func TestScenario5RingSWOneWriterPerWindow(t *testing.T) {
	cfg := verso.Current()
	cfg.RingElements = 4
	verso.Init(cfg)
	require.NoError(t, verso.Install(verso.AlgRingSW))

	const writers = 5
	cells := make([]*verso.Word, writers)
	for i := range cells {
		cells[i] = new(verso.Word)
	}

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		i := i
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			err = verso.Atomically(tx, func(tx *verso.Tx) error {
				// Every writer touches every cell, so every pair of
				// concurrent attempts has an intersecting write filter.
				for _, c := range cells {
					tx.Write(c, uint64(i))
				}
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	// Whoever committed last left every cell at its own id.
	last := cells[0].Load()
	for _, c := range cells {
		require.Equal(t, last, c.Load())
	}
}

// Scenario 6: Pessimistic, 2 writers and 8 readers sharing one counter.
// Writers are fully serialized and readers never observe a mid-writeback
// value, so the counter only ever moves forward by whole increments.
func TestScenario6PessimisticSerializedWriters(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgPessimistic))

	counter := new(verso.Word)
	const writers = 2
	const readers = 8
	const perThread = 100

	var wg sync.WaitGroup
	wg.Add(writers + readers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			for j := 0; j < perThread; j++ {
				err := verso.Atomically(tx, func(tx *verso.Tx) error {
					v := tx.Read(counter)
					tx.Write(counter, v+1)
					return nil
				})
				require.NoError(t, err)
			}
		}()
	}
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			var last uint64
			for j := 0; j < perThread; j++ {
				err := verso.Atomically(tx, func(tx *verso.Tx) error {
					v := tx.Read(counter)
					require.GreaterOrEqual(t, v, last)
					last = v
					return nil
				})
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(writers*perThread), counter.Load())
}
