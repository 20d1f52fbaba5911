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

// NanorecTable is a Nano transaction's fixed-size read record: an array of
// (orec, version) pairs rather than a heap-growable ReadLog. Nano trades an
// unbounded log for a small inline array so its quadratic validation (the
// whole table rechecked on every new read) stays cheap; once a transaction
// overflows the array it is over budget
// for Nano, and Record returns false so the caller can self-abort rather
// than grow unbounded.
type NanorecTable struct {
	orecs    []*Orec
	versions []uint64
	cap      int
}

func (n *NanorecTable) Reset(capacity int) {
	n.cap = capacity
	n.orecs = n.orecs[:0]
	n.versions = n.versions[:0]
}

func (n *NanorecTable) Record(o *Orec, version uint64) (ok bool) {
	if len(n.orecs) >= n.cap {
		return false
	}
	n.orecs = append(n.orecs, o)
	n.versions = append(n.versions, version)
	return true
}

func (n *NanorecTable) Validate(selfID int) bool {
	for i, o := range n.orecs {
		if owner, locked := o.IsLocked(); locked {
			if owner != selfID {
				return false
			}
			continue
		}
		if o.Version() != n.versions[i] {
			return false
		}
	}
	return true
}

func (n *NanorecTable) Len() int { return len(n.orecs) }
