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

// readLogEntry remembers the Orec guarding a read Word and the version
// observed at read time, so the transaction can revalidate the whole read
// set without re-reading the Words themselves.
type readLogEntry struct {
	o       *Orec
	version uint64
}

// ReadLog is a transaction's read set, orec-granularity. Orec-eager/lazy,
// commit-token and cohorts record each read here and walk it with
// Validate at commit; Nano keeps its reads in a NanorecTable instead.
type ReadLog struct {
	entries []readLogEntry
}

func (r *ReadLog) Reset() {
	r.entries = r.entries[:0]
}

func (r *ReadLog) Record(o *Orec, version uint64) {
	r.entries = append(r.entries, readLogEntry{o: o, version: version})
}

// Validate reports whether every orec in the log still carries the version
// it was read at, or is locked by self (selfID), which is permitted since a
// transaction may read back a location it has already locked for writing.
func (r *ReadLog) Validate(selfID int) bool {
	for _, e := range r.entries {
		if owner, locked := e.o.IsLocked(); locked {
			if owner != selfID {
				return false
			}
			continue
		}
		if e.o.Version() != e.version {
			return false
		}
	}
	return true
}

func (r *ReadLog) Len() int { return len(r.entries) }
