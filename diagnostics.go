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
	"fmt"

	"github.com/VERSO-GR0UP/verso/pkg/bufferpool"
)

// DumpState renders a human-readable snapshot of the live thread registry
// and the active algorithm, mirroring what RSTM's Diagnostics.hpp prints
// on a deadlock-suspected abort storm. It is diagnostic-only: never call
// it from inside an Atomically attempt, since it reads each Tx's state
// without synchronizing against that Tx's own goroutine.
func DumpState() string {
	buf := bufferpool.Pool.Get()
	defer bufferpool.Pool.Put(buf)

	fmt.Fprintf(buf, "verso: active algorithm = %s\n", Active())
	fmt.Fprintf(buf, "verso: commit clock done-until = %d\n", ClockDoneUntil())

	for _, tx := range Threads() {
		if tx == nil {
			continue
		}
		fmt.Fprintf(buf, "  thread %d: mode=%d consecAborts=%d reads=%d writes=%d\n",
			tx.ID(), tx.Mode(), tx.ConsecAborts(), tx.rlog.Len(), tx.wlog.Len())
	}

	return buf.String()
}
