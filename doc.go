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

// Package verso is a pluggable software transactional memory runtime.
//
// Client code registers one *Tx handle per goroutine with RegisterThread,
// then wraps a block of transactional loads and stores in Atomically:
//
//	tx, err := verso.RegisterThread(nil)
//	if err != nil {
//		return err
//	}
//	defer tx.Unregister()
//
//	err = verso.Atomically(tx, func(tx *verso.Tx) error {
//		v := tx.Read(counter)
//		tx.Write(counter, v+1)
//		return nil
//	})
//
// The block executes under whichever algorithm is currently installed
// (see Install); a conflicting transaction is rolled back and silently
// re-executed, never surfaced to the caller as an error. See algs/algs
// for the bundled algorithm variants and pkg/cm for the contention
// managers the orec families consult.
package verso
