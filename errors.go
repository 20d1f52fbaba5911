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

import "errors"

// Errors returned by the runtime. Conflict, timeout and remote-abort
// conditions never surface here: they are resolved internally by
// re-execution (see Atomically). These are the "Unrecoverable" class from
// the error handling design: programmer errors the library traps as
// fatal-to-the-call rather than silently retrying.
var (
	// ErrUnknownAlgorithm is returned by Install and Lookup for an AlgID
	// that has no registered Algorithm.
	ErrUnknownAlgorithm = errors.New("verso: unknown algorithm id")

	// ErrAlgorithmSwitchBusy is returned by Install when another switch
	// is already in flight.
	ErrAlgorithmSwitchBusy = errors.New("verso: algorithm switch already in progress")

	// ErrIrrevocUnsupported is returned by Tx.Irrevoc when the active
	// algorithm has no irrevocability path.
	ErrIrrevocUnsupported = errors.New("verso: irrevocability not supported by the active algorithm")

	// ErrTurboRollback is the fatal error a turbo-mode Rollback raises:
	// turbo transactions write in place with no undo log, so there is
	// nothing to roll back to.
	ErrTurboRollback = errors.New("verso: turbo-mode transaction cannot roll back")

	// ErrThreadTableFull is returned by RegisterThread once
	// Config.MaxThreads threads are registered.
	ErrThreadTableFull = errors.New("verso: thread table is full")
)
