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

import "time"

// Config holds the runtime's tunables. Call Init with a customized Config
// before registering any thread; Init is itself a safe point (see
// Install) and must not run concurrently with in-flight transactions.
type Config struct {
	// MaxThreads bounds the thread registry. Bitlock's reader set is a
	// fixed-width bitset, so MaxThreads must additionally be <= 64 for
	// algorithms in the visible-reader family that choose bitlock over
	// bytelock.
	MaxThreads int

	// OrecTableSize is the number of cache-line padded orec slots that
	// addresses hash into. Larger tables reduce false sharing between
	// unrelated addresses at the cost of memory.
	OrecTableSize int

	// BitlockTableSize / BytelockTableSize size the visible-reader
	// family's lock tables, analogous to OrecTableSize.
	BitlockTableSize  int
	BytelockTableSize int

	// NanorecTableSize bounds how many (orec, version) pairs a Nano-family
	// transaction logs before self-aborting with a large consec_aborts
	// sentinel (see spec §4.8 and Tx.RequestAbortStorm).
	NanorecTableSize int

	// RingElements is the ring/filter family's Bloom-filter ring size.
	// Must be a power of two.
	RingElements int

	// FilterCapacity sizes the per-attempt Bloom filters the ring family
	// allocates for its read/write sets (see
	// Tx.ReadFilter/WriteFilter): the number of addresses each filter is
	// tuned to hold before its false-positive rate degrades.
	FilterCapacity int

	// KarmaFactor is the base, in nanoseconds, the Backoff contention
	// manager multiplies by 2^consec_aborts (capped) to compute its
	// sleep duration.
	KarmaFactor time.Duration

	// ReadTimeout / AcquireTimeout / DrainTimeout bound the visible-reader
	// family's spin-waits: a reader waiting on a writer, a writer
	// acquiring the lock, and a writer draining readers, respectively.
	ReadTimeout    time.Duration
	AcquireTimeout time.Duration
	DrainTimeout   time.Duration
}

const (
	_defaultMaxThreads        = 64
	_defaultOrecTableSize     = 1 << 20
	_defaultBitlockTableSize  = 1 << 16
	_defaultBytelockTableSize = 1 << 16
	_defaultNanorecTableSize  = 64
	_defaultRingElements      = 1 << 10
	_defaultFilterCapacity    = 1 << 8
)

// DefaultConfig is the Config installed at package init time and used by
// RegisterThread / the default algorithms until Init is called again.
var DefaultConfig = Config{
	MaxThreads:        _defaultMaxThreads,
	OrecTableSize:      _defaultOrecTableSize,
	BitlockTableSize:   _defaultBitlockTableSize,
	BytelockTableSize:  _defaultBytelockTableSize,
	NanorecTableSize:   _defaultNanorecTableSize,
	RingElements:       _defaultRingElements,
	FilterCapacity:     _defaultFilterCapacity,
	KarmaFactor:        64 * time.Nanosecond,
	ReadTimeout:        1 * time.Millisecond,
	AcquireTimeout:     1 * time.Millisecond,
	DrainTimeout:       2 * time.Millisecond,
}

func (c *Config) validate() {
	if c.MaxThreads <= 0 {
		c.MaxThreads = DefaultConfig.MaxThreads
	}
	if c.OrecTableSize <= 0 {
		c.OrecTableSize = DefaultConfig.OrecTableSize
	}
	if c.BitlockTableSize <= 0 {
		c.BitlockTableSize = DefaultConfig.BitlockTableSize
	}
	if c.BytelockTableSize <= 0 {
		c.BytelockTableSize = DefaultConfig.BytelockTableSize
	}
	if c.NanorecTableSize <= 0 {
		c.NanorecTableSize = DefaultConfig.NanorecTableSize
	}
	if c.RingElements <= 0 {
		c.RingElements = DefaultConfig.RingElements
	}
	if c.RingElements&(c.RingElements-1) != 0 {
		// round up to the next power of two
		n := 1
		for n < c.RingElements {
			n <<= 1
		}
		c.RingElements = n
	}
	if c.FilterCapacity <= 0 {
		c.FilterCapacity = DefaultConfig.FilterCapacity
	}
	if c.KarmaFactor <= 0 {
		c.KarmaFactor = DefaultConfig.KarmaFactor
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultConfig.ReadTimeout
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultConfig.AcquireTimeout
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = DefaultConfig.DrainTimeout
	}
}
