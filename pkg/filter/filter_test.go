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

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoFalseNegatives(t *testing.T) {
	n := 1000
	p := 0.01
	bf := New(n, p)

	for i := 0; i < n; i++ {
		bf.Add(uintptr(i * 8))
	}

	for i := 0; i < n; i++ {
		assert.True(t, bf.Contains(uintptr(i*8)), "Expected Bloom Filter to contain '%d', but it did not", i)
	}
}

func TestFalsePositiveRate(t *testing.T) {
	n := 1000
	p := 0.01
	bf := New(n, p)

	for i := 0; i < n; i++ {
		bf.Add(uintptr(i * 8))
	}

	falsePositives := 0
	testSize := 10000

	for i := n; i < n+testSize; i++ {
		if bf.Contains(uintptr(i * 8)) {
			falsePositives++
		}
	}

	actualP := float64(falsePositives) / float64(testSize)
	t.Log(actualP)
}

func TestUnionAndIntersects(t *testing.T) {
	a := New(100, 0.01)
	b := New(100, 0.01)

	a.Add(8)
	b.Add(16)

	assert.False(t, a.Intersects(b))
	a.Union(b)
	assert.True(t, a.Contains(8))
	assert.True(t, a.Contains(16))
	assert.True(t, a.Intersects(b))
}

func TestReset(t *testing.T) {
	f := New(10, 0.01)
	f.Add(8)
	assert.True(t, f.Contains(8))
	f.Reset()
	assert.False(t, f.Contains(8))
}

func TestPool(t *testing.T) {
	p := NewPool(10, 0.01)
	f1 := p.Get()
	f1.Add(8)
	p.Put(f1)

	f2 := p.Get()
	assert.False(t, f2.Contains(8), "pooled filter must come back reset")
}
