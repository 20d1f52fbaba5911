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

package nano_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VERSO-GR0UP/verso"
	_ "github.com/VERSO-GR0UP/verso/algs/nano"
)

func TestNanoCounterIncrementIsAtomic(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgNano))

	counter := new(verso.Word)
	const goroutines = 6
	const perGoroutine = 150

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			for j := 0; j < perGoroutine; j++ {
				err := verso.Atomically(tx, func(tx *verso.Tx) error {
					v := tx.Read(counter)
					tx.Write(counter, v+1)
					return nil
				})
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(goroutines*perGoroutine), counter.Load())
}

func TestNanoReadSetWithinTableSizeCommits(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgNano))

	// Default NanorecTableSize is 64; stay comfortably under it so this
	// exercises ordinary quadratic revalidation, not the overflow path.
	cells := make([]*verso.Word, 32)
	for i := range cells {
		cells[i] = new(verso.Word)
	}

	tx, err := verso.RegisterThread(nil)
	require.NoError(t, err)
	defer tx.Unregister()

	err = verso.Atomically(tx, func(tx *verso.Tx) error {
		for _, c := range cells {
			tx.Read(c)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestNanoELACommitIsVisibleAfterReturn(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgNanoELA))

	cell := new(verso.Word)

	tx, err := verso.RegisterThread(nil)
	require.NoError(t, err)
	defer tx.Unregister()

	err = verso.Atomically(tx, func(tx *verso.Tx) error {
		tx.Write(cell, 7)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(7), cell.Load())
}
