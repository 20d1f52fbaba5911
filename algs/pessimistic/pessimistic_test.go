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

package pessimistic_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VERSO-GR0UP/verso"
	_ "github.com/VERSO-GR0UP/verso/algs/pessimistic"
)

func TestPessimisticTwoWritersEightReaders(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgPessimistic))

	counter := new(verso.Word)
	const writers = 2
	const readers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	wg.Add(writers + readers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			for j := 0; j < perWriter; j++ {
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

			for j := 0; j < perWriter; j++ {
				err := verso.Atomically(tx, func(tx *verso.Tx) error {
					_ = tx.Read(counter)
					return nil
				})
				require.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, uint64(writers*perWriter), counter.Load())
}

func TestPessimisticReadYourOwnWrite(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgPessimistic))

	cell := new(verso.Word)
	cell.Store(1)

	tx, err := verso.RegisterThread(nil)
	require.NoError(t, err)
	defer tx.Unregister()

	var seen uint64
	err = verso.Atomically(tx, func(tx *verso.Tx) error {
		tx.Write(cell, 42)
		seen = tx.Read(cell)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, uint64(42), seen)
	require.Equal(t, uint64(42), cell.Load())
}
