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

package cm

import (
	"time"

	"github.com/VERSO-GR0UP/verso"
)

// HourglassBackoff composes Backoff and Hourglass: most retries just sleep
// with exponential backoff, but a transaction that blows through
// hourglassThreshold aborts in a row escalates to exclusive hourglass
// running rights instead of continuing to sleep and hope. This is the
// "HourglassBackoff" variant spec.md's contention-manager table names
// alongside plain Hourglass.
type HourglassBackoff struct {
	backoff   *Backoff
	hourglass *Hourglass
}

// NewHourglassBackoff builds a HourglassBackoff contending for tok, using
// karma as its backoff base (0 to use Config's KarmaFactor).
func NewHourglassBackoff(tok *HourglassToken, karma time.Duration) *HourglassBackoff {
	return &HourglassBackoff{
		backoff:   NewBackoff(karma),
		hourglass: tok.NewManager(),
	}
}

func (h *HourglassBackoff) OnBegin(tx *verso.Tx) {
	h.hourglass.OnBegin(tx)
}

func (h *HourglassBackoff) OnCommit(tx *verso.Tx) {
	h.hourglass.OnCommit(tx)
}

func (h *HourglassBackoff) OnAbort(tx *verso.Tx) {
	if h.hourglass.held {
		h.hourglass.OnAbort(tx)
		return
	}
	h.backoff.OnAbort(tx)
}

func (h *HourglassBackoff) ShouldAbort(tx, loser *verso.Tx) bool {
	return h.hourglass.ShouldAbort(tx, loser)
}
