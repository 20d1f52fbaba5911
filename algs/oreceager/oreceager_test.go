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

package oreceager_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VERSO-GR0UP/verso"
	_ "github.com/VERSO-GR0UP/verso/algs/oreceager"
)

func TestCounterIncrementIsAtomic(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgOrecEager))

	counter := new(verso.Word)

	const goroutines = 8
	const incrementsEach = 200

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			for j := 0; j < incrementsEach; j++ {
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

	require.Equal(t, uint64(goroutines*incrementsEach), counter.Load())
}

func TestBankTransferPreservesTotal(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgOrecEager))

	a, b := new(verso.Word), new(verso.Word)
	a.Store(100)
	b.Store(100)

	tx, err := verso.RegisterThread(nil)
	require.NoError(t, err)
	defer tx.Unregister()

	err = verso.Atomically(tx, func(tx *verso.Tx) error {
		from := tx.Read(a)
		tx.Write(a, from-30)
		to := tx.Read(b)
		tx.Write(b, to+30)
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, uint64(70), a.Load())
	require.Equal(t, uint64(130), b.Load())
}
