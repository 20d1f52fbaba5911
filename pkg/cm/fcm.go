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

package cm

import "github.com/VERSO-GR0UP/verso"

// FCM is a priority-by-frequency manager: a transaction's priority is how
// many times in a row it has already aborted, so a conflict between two
// live transactions aborts whichever one has retried less — the thread
// that has been starved longest wins the conflict instead of re-starving.
// This is the Karma/Greedy family's core idea, named FCM ("frequency
// contention manager") as spec.md's component table lists it.
type FCM struct{}

func (FCM) OnBegin(*verso.Tx)  {}
func (FCM) OnCommit(*verso.Tx) {}
func (FCM) OnAbort(*verso.Tx)  {}

// ShouldAbort reports whether loser (the transaction currently holding a
// lock tx wants) should be forced to abort. tx wins, and loser aborts,
// when loser has a strictly lower abort count — i.e. tx has earned more
// priority by failing more.
func (FCM) ShouldAbort(tx, loser *verso.Tx) bool {
	return tx.ConsecAborts() > loser.ConsecAborts()
}
