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

// Package algs is a convenience import: blank-importing it registers every
// algorithm this build ships, the database/sql-driver pattern applied to
// dispatch tuples instead of drivers. A program that only ever installs one
// or two algorithms should import those algs/* packages directly instead,
// to avoid pulling the rest of the family into its binary.
package algs

import (
	_ "github.com/VERSO-GR0UP/verso/algs/byteeager"
	_ "github.com/VERSO-GR0UP/verso/algs/cohorts"
	_ "github.com/VERSO-GR0UP/verso/algs/ctoken"
	_ "github.com/VERSO-GR0UP/verso/algs/nano"
	_ "github.com/VERSO-GR0UP/verso/algs/oreceager"
	_ "github.com/VERSO-GR0UP/verso/algs/oreclazy"
	_ "github.com/VERSO-GR0UP/verso/algs/pessimistic"
	_ "github.com/VERSO-GR0UP/verso/algs/ring"
)
