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

package ctoken_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/VERSO-GR0UP/verso"
	_ "github.com/VERSO-GR0UP/verso/algs/ctoken"
)

func TestCTokenELACounterIncrementIsAtomic(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgCTokenELA))

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

func TestCTokenELAExplicitAbortDoesNotStallSuccessors(t *testing.T) {
	require.NoError(t, verso.Install(verso.AlgCTokenELA))

	cell := new(verso.Word)
	const writers = 4

	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		i := i
		go func() {
			defer wg.Done()
			tx, err := verso.RegisterThread(nil)
			require.NoError(t, err)
			defer tx.Unregister()

			attempts := 0
			err = verso.Atomically(tx, func(tx *verso.Tx) error {
				attempts++
				tx.Write(cell, uint64(i+1))
				if attempts == 1 {
					// Force this attempt to draw a commit token and then
					// abort before writeback, exercising rollback's
					// must-still-publish-LastComplete path.
					tx.Abort()
				}
				return nil
			})
			require.NoError(t, err)
		}()
	}
	wg.Wait()
}
