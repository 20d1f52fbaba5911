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
	"sync"
	"sync/atomic"

	"github.com/VERSO-GR0UP/verso/pkg/logger"
)

// AlgID names an algorithm variant. The registry is sparse: an AlgID with
// no Register call behind it is a real RSTM variant this build chose not
// to implement (see SPEC_FULL.md §4's scope note), and Install on it fails
// with ErrUnknownAlgorithm exactly as it would on a typo'd name.
type AlgID int

const (
	AlgOrecEager AlgID = iota
	AlgOrecLazy
	AlgOrecELA
	AlgByteEager
	AlgRingSW
	AlgRingALA
	AlgCohortsLI
	AlgCTokenELA
	AlgNano
	AlgNanoELA
	AlgPessimistic

	// Reserved: named in spec.md's component table but out of scope for
	// this build (see SPEC_FULL.md §4). Install reports
	// ErrUnknownAlgorithm for these exactly as it does for any other
	// unregistered id.
	AlgOrEAU
	AlgOrecFair
	AlgTMLLazy
	AlgTicket
	AlgTLI
	AlgFastlane
	AlgPipeline
)

// BeginFunc, ReadFunc, ... are an algorithm's barrier implementations. Read
// and Write are split into RO/RW variants so Tx.OnFirstWrite can swap the
// cached function pointer instead of branching on mode on every access —
// the same dispatch-tuple idea as the original's STM_BEGIN/STM_READ
// macros, expressed as first-class Go funcs instead of a vtable of C
// function pointers.
type (
	BeginFunc  func(tx *Tx)
	ReadFunc   func(tx *Tx, cell *Word) uint64
	WriteFunc  func(tx *Tx, cell *Word, val uint64, mask Mask)
	CommitFunc func(tx *Tx)
	RollbackFunc func(tx *Tx)
	IrrevocFunc  func(tx *Tx) bool
)

// Algorithm is the full dispatch tuple one algorithm package registers.
// Irrevoc may be nil (ErrIrrevocUnsupported); OnSwitchTo may be nil if the
// algorithm has no global state to (re)initialize when installed.
type Algorithm struct {
	ID   AlgID
	Name string

	Begin BeginFunc

	ReadRO ReadFunc
	ReadRW ReadFunc

	WriteRW WriteFunc

	CommitRO CommitFunc
	CommitRW CommitFunc

	Rollback RollbackFunc

	Irrevoc IrrevocFunc

	// OnSwitchTo runs once, under quiescence, when Install makes this
	// algorithm active. None of the bundled algs/* packages set it.
	OnSwitchTo func()
}

type registryT struct {
	mu   sync.Mutex
	algs map[AlgID]*Algorithm
}

var algRegistry = &registryT{algs: make(map[AlgID]*Algorithm)}

var (
	activeAlg   atomic.Pointer[Algorithm]
	switchBusy  atomic.Bool
)

// Register adds alg to the registry. Algorithm packages call this from an
// init func (see algs/algs.go's blank imports), database/sql-driver style.
// The first Register call also becomes the initially active algorithm, so
// a program that imports exactly one algs/* package gets a sane default
// without calling Install.
func Register(alg *Algorithm) {
	algRegistry.mu.Lock()
	defer algRegistry.mu.Unlock()
	algRegistry.algs[alg.ID] = alg
	if activeAlg.Load() == nil {
		activeAlg.Store(alg)
	}
}

// Lookup returns the registered Algorithm for id, or ErrUnknownAlgorithm.
func Lookup(id AlgID) (*Algorithm, error) {
	algRegistry.mu.Lock()
	defer algRegistry.mu.Unlock()
	alg, ok := algRegistry.algs[id]
	if !ok {
		return nil, ErrUnknownAlgorithm
	}
	return alg, nil
}

// dispatchActive returns the currently active Algorithm, falling back to a
// degenerate do-nothing tuple if no algs/* package has registered itself
// yet (so a Tx constructed before any import side effect run doesn't
// nil-deref). RegisterThread calls this once; such a Tx keeps the
// do-nothing tuple until Install swaps in a registered algorithm.
func dispatchActive() *Algorithm {
	if a := activeAlg.Load(); a != nil {
		return a
	}
	return &noAlgorithm
}

// noAlgorithm is the degenerate tuple a Tx is handed before any algs/*
// package has run its Register side effect. Every barrier is a safe no-op
// so a premature Atomically call simply never commits any write rather
// than panicking; RegisterThread's caller is expected to blank-import at
// least one algorithm package before transacting for real.
var noAlgorithm = Algorithm{
	Name:     "none",
	Begin:    func(*Tx) {},
	ReadRO:   func(*Tx, *Word) uint64 { return 0 },
	ReadRW:   func(*Tx, *Word) uint64 { return 0 },
	WriteRW:  func(*Tx, *Word, uint64, Mask) {},
	CommitRO: func(*Tx) {},
	CommitRW: func(*Tx) {},
}

// Active returns the name of the currently installed algorithm.
func Active() string {
	return dispatchActive().Name
}

// Install switches the active algorithm to id, quiescing every registered
// thread first so the swap is a safe point: no Tx may be mid-barrier-call
// while the dispatch table changes under it. Returns ErrAlgorithmSwitchBusy
// if another Install is already in flight, ErrUnknownAlgorithm if id has no
// registered Algorithm.
func Install(id AlgID) error {
	alg, err := Lookup(id)
	if err != nil {
		return err
	}
	if !switchBusy.CompareAndSwap(false, true) {
		return ErrAlgorithmSwitchBusy
	}
	defer switchBusy.Store(false)

	quiesceAllThreads()
	if alg.OnSwitchTo != nil {
		alg.OnSwitchTo()
	}
	activeAlg.Store(alg)
	for _, tx := range registry.snapshot() {
		if tx != nil {
			tx.alg = alg
		}
	}
	logger.GetLogger().Infof("verso: switched active algorithm to %s", alg.Name)
	return nil
}
