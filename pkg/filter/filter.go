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

// Package filter implements the Bloom-style address filters used by the
// ring algorithm family to summarize a transaction's
// read or write set without paying for an exact set representation.
package filter

import (
	"encoding/binary"
	"hash"
	"math"
	"sync"

	"github.com/spaolacci/murmur3"
)

const _defaultP = 0.01

// Filter is a fixed-size Bloom filter over memory addresses. It is not
// safe for concurrent use: each transaction owns exactly one read filter
// and one write filter, and committers union or intersect filters under
// their own synchronization (see the ring algorithm family).
type Filter struct {
	bitset  []bool
	hashFns []hash.Hash32
	scratch [8]byte
	m       int
}

// New creates a Filter sized for n expected addresses at false-positive
// rate p.
func New(n int, p float64) *Filter {
	if n <= 0 {
		n = 1
	}
	// size of bitset
	// m = -(n * ln(p)) / (ln(2)^2)
	m := int(math.Ceil(-float64(n) * math.Log(p) / math.Pow(math.Log(2), 2)))
	if m <= 0 {
		m = 1
	}
	// nums of hash functions used
	// k = (m/n) * ln(2)
	k := int(math.Round((float64(m) / float64(n)) * math.Log(2)))
	if k <= 0 {
		k = 1
	}

	hashFns := make([]hash.Hash32, k)
	for i := range k {
		hashFns[i] = murmur3.New32WithSeed(uint32(i))
	}

	return &Filter{
		bitset:  make([]bool, m),
		hashFns: hashFns,
		m:       m,
	}
}

// NewDefault builds a Filter sized for n expected addresses at the
// package's default 1% false-positive rate. Used by algorithms that don't
// expose a tunable false-positive rate of their own (Tx's ring-family
// read/write filters).
func NewDefault(n int) *Filter {
	return New(n, _defaultP)
}

// Add records addr in the filter.
func (f *Filter) Add(addr uintptr) {
	binary.LittleEndian.PutUint64(f.scratch[:], uint64(addr))
	for _, fn := range f.hashFns {
		_, _ = fn.Write(f.scratch[:])
		index := int(fn.Sum32()) % f.m
		f.bitset[index] = true
		fn.Reset()
	}
}

// Contains reports whether addr may have been Added. False positives are
// possible; false negatives are not.
func (f *Filter) Contains(addr uintptr) bool {
	binary.LittleEndian.PutUint64(f.scratch[:], uint64(addr))
	for _, fn := range f.hashFns {
		_, _ = fn.Write(f.scratch[:])
		index := int(fn.Sum32()) % f.m
		fn.Reset()
		if !f.bitset[index] {
			return false
		}
	}
	return true
}

// Reset clears the filter so it can be reused across transaction attempts,
// avoiding an allocation on every retry.
func (f *Filter) Reset() {
	for i := range f.bitset {
		f.bitset[i] = false
	}
}

// Union ORs other's bits into f in place. other must have been built with
// the same size as f. None of the bundled algorithms call it.
func (f *Filter) Union(other *Filter) {
	for i := range f.bitset {
		f.bitset[i] = f.bitset[i] || other.bitset[i]
	}
}

// Intersects reports whether f and other could share a member. Used to
// check a transaction's read filter against another's write filter.
func (f *Filter) Intersects(other *Filter) bool {
	for i := range f.bitset {
		if f.bitset[i] && other.bitset[i] {
			return true
		}
	}
	return false
}

// Pool recycles Filters of a single fixed size, so a caller that needs a
// fresh filter per attempt need not reallocate the bitset on every retry.
// The bundled algorithms do not use it: Tx keeps one read and one write
// filter and Resets them each attempt.
type Pool struct {
	mu   sync.Mutex
	size int
	p    float64
	free []*Filter
}

// NewPool returns a pool of Filters all sized for n expected addresses at
// false-positive rate p.
func NewPool(n int, p float64) *Pool {
	return &Pool{size: n, p: p}
}

func (pl *Pool) Get() *Filter {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if l := len(pl.free); l > 0 {
		f := pl.free[l-1]
		pl.free = pl.free[:l-1]
		f.Reset()
		return f
	}
	return New(pl.size, pl.p)
}

func (pl *Pool) Put(f *Filter) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.free = append(pl.free, f)
}
