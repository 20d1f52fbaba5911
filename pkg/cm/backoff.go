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

// Package cm holds the contention managers the orec and visible-reader
// algorithm families consult when a conflict is detected: who backs off,
// who aborts, and for how long.
package cm

import (
	"time"

	"github.com/VERSO-GR0UP/verso"
)

// Backoff is the simplest manager: it never asks the loser to abort itself
// (ShouldAbort always false, favoring the transaction that got there
// first), and on its own abort it sleeps for an exponentially increasing
// duration keyed off the retrying transaction's consecutive-abort count.
// This is the Karma-free "polite" policy the original's CMPolice.cpp
// describes, expressed without the inheritance hierarchy.
type Backoff struct {
	Karma time.Duration
}

// NewBackoff builds a Backoff manager using karma as its base sleep unit.
// Pass 0 to use Config's configured KarmaFactor at sleep time instead of a
// fixed value.
func NewBackoff(karma time.Duration) *Backoff {
	return &Backoff{Karma: karma}
}

func (b *Backoff) OnBegin(*verso.Tx) {}

func (b *Backoff) OnCommit(*verso.Tx) {}

func (b *Backoff) OnAbort(tx *verso.Tx) {
	karma := b.Karma
	if karma <= 0 {
		karma = verso.Current().KarmaFactor
	}
	time.Sleep(verso.BackoffNanos(tx.ConsecAborts(), karma))
}

func (b *Backoff) ShouldAbort(_, _ *verso.Tx) bool { return false }
