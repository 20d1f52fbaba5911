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

// Package utils holds small helpers shared across the runtime that do not
// belong to any single algorithm family.
package utils

import (
	"time"

	"github.com/VERSO-GR0UP/verso/pkg/logger"
)

// Elapsed logs how long an operation took, measured from now. Nothing in
// the runtime calls it.
func Elapsed(now time.Time, logger logger.Logger, msg string) {
	logger.Infof("%s elapsed: %s", msg, time.Since(now))
}

// Pow computes x^n for small non-negative n. Used by the Backoff contention
// manager to turn consecutive-abort counts into an exponential delay.
func Pow(x, n int) int {
	res := 1
	for range n {
		res *= x
	}
	return res
}
