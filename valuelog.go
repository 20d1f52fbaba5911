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

// valueLogEntry is a value-based read record: the raw bits observed at cell,
// rather than an orec version; revalidation re-reads the cell and compares
// bits.
type valueLogEntry struct {
	cell *Word
	val  uint64
}

// ValueLog is the value-based counterpart to ReadLog. Tx resets it on every
// attempt; none of the bundled algs/* packages record into it or validate
// it (Pessimistic validates against GlobalVersion, Nano against its
// NanorecTable).
type ValueLog struct {
	entries []valueLogEntry
}

func (v *ValueLog) Reset() {
	v.entries = v.entries[:0]
}

func (v *ValueLog) Record(cell *Word, val uint64) {
	v.entries = append(v.entries, valueLogEntry{cell: cell, val: val})
}

func (v *ValueLog) Validate() bool {
	for _, e := range v.entries {
		if e.cell.Load() != e.val {
			return false
		}
	}
	return true
}

func (v *ValueLog) Len() int { return len(v.entries) }
