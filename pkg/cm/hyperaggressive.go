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

// HyperAggressive always tells a conflicting writer to abort whatever it
// finds in its way, with no backoff and no priority comparison: the first
// thread to ask wins, every time. It exists to exercise the remote-abort
// path under maximum contention (see the OrecEager scenario in
// scenarios_test.go) and is a poor default for real workloads, since it
// guarantees no forward progress for the loser under sustained conflict.
type HyperAggressive struct{}

func (HyperAggressive) OnBegin(*verso.Tx)  {}
func (HyperAggressive) OnCommit(*verso.Tx) {}
func (HyperAggressive) OnAbort(*verso.Tx)  {}

func (HyperAggressive) ShouldAbort(_, _ *verso.Tx) bool { return true }
