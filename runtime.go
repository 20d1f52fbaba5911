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
	"sync/atomic"

	"github.com/VERSO-GR0UP/verso/pkg/logger"
)

// activeConfig is the process-wide Config, swapped atomically so readers
// never observe a half-written struct. Init installs a new one; everything
// else (RegisterThread, the metadata tables, the algorithm packages) reads
// it through Current.
var activeConfig atomic.Pointer[Config]

func init() {
	cfg := DefaultConfig
	activeConfig.Store(&cfg)
	initOrecTable(cfg.OrecTableSize)
	initBitlockTable(cfg.BitlockTableSize)
	initBytelockTable(cfg.BytelockTableSize)
	initRing(cfg.RingElements)
}

// Current returns the runtime's active Config. Safe to call concurrently
// with Init.
func Current() Config {
	return *activeConfig.Load()
}

// Init (re)installs cfg as the active configuration and (re)allocates every
// global metadata table sized from it. Like an algorithm switch (see
// dispatch.Install), Init is only safe when no transaction is in flight: it
// quiesces every registered thread before swapping tables out from under
// them.
func Init(cfg Config) {
	cfg.validate()
	quiesceAllThreads()

	initOrecTable(cfg.OrecTableSize)
	initBitlockTable(cfg.BitlockTableSize)
	initBytelockTable(cfg.BytelockTableSize)
	initRing(cfg.RingElements)

	activeConfig.Store(&cfg)
	logger.GetLogger().Infof("verso: runtime reconfigured (threads=%d orecs=%d)", cfg.MaxThreads, cfg.OrecTableSize)
}
