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
	"context"

	"github.com/VERSO-GR0UP/verso/pkg/watermark"
)

// privClock is the runtime's privatization-quiescence clock: the same
// MVCC "done-until" watermark the teacher built for its commit oracle
// (pkg/watermark, driving the teacher's oracle.go), repurposed here for
// STM's Transactional Sequential Consistency obligation instead of
// snapshot-read visibility. A transaction that privatizes data at commit
// timestamp ts must wait for ClockWait(ts) before touching that data
// non-transactionally, guaranteeing every committer that called
// ClockBegin at or before ts has called ClockDone. Only those committers
// are tracked; transactions that never reach ClockBegin are not.
var privClock = watermark.New()

// ClockBegin marks a transaction as in flight as of commit timestamp ts.
// OrecELA, CTokenELA and NanoELA call this once they have locked their
// write set and drawn their commit timestamp, before publishing writes.
func ClockBegin(ts uint64) { privClock.Begin(ts) }

// ClockDone marks the transaction begun at ts as finished, win or lose.
func ClockDone(ts uint64) { privClock.Done(ts) }

// ClockDoneUntil returns the highest ts such that every transaction begun
// at or before it has finished.
func ClockDoneUntil() uint64 { return privClock.DoneUntil() }

// ClockWait blocks until ClockDoneUntil() >= ts or ctx is done. A
// privatizing committer calls this after its own commit to ensure no
// earlier transaction can still observe the old value of what it just
// privatized.
func ClockWait(ctx context.Context, ts uint64) error {
	return privClock.WaitForMark(ctx, ts)
}
