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

package cm_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/VERSO-GR0UP/verso"
	"github.com/VERSO-GR0UP/verso/pkg/cm"
)

func TestHyperAggressiveAlwaysAborts(t *testing.T) {
	var h cm.HyperAggressive
	tx, err := verso.RegisterThread(h)
	require.NoError(t, err)
	defer tx.Unregister()

	require.True(t, h.ShouldAbort(tx, tx))
}

func TestFCMNoEdgeWithoutAborts(t *testing.T) {
	f := cm.FCM{}
	winner, err := verso.RegisterThread(f)
	require.NoError(t, err)
	defer winner.Unregister()
	loser, err := verso.RegisterThread(f)
	require.NoError(t, err)
	defer loser.Unregister()

	// Neither has aborted yet: no priority edge either way.
	require.False(t, f.ShouldAbort(winner, loser))
}

func TestHourglassDoesNotBlockBelowThreshold(t *testing.T) {
	tok := cm.NewHourglassToken()
	a := tok.NewManager()
	b := tok.NewManager()

	txA, err := verso.RegisterThread(a)
	require.NoError(t, err)
	defer txA.Unregister()
	txB, err := verso.RegisterThread(b)
	require.NoError(t, err)
	defer txB.Unregister()

	done := make(chan struct{})
	go func() {
		a.OnBegin(txA) // below threshold: does not block
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnBegin should not block below the hourglass threshold")
	}
	a.OnCommit(txA)

	require.False(t, a.ShouldAbort(txA, txB))
}
