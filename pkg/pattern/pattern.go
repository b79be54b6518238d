// Copyright 2025 walteh LLC
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

// Package pattern holds the immutable set of literal patterns and their
// replacements that a conversion run works with.
package pattern

import (
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/to-uni/pkg/errdefs"
)

// 🔄 Pair is a single pattern and the bytes that replace it
type Pair struct {
	Pattern     []byte
	Replacement []byte
}

// 📚 Set is a validated, ordered collection of pairs.
//
// The index of a pair in declaration order is its id. A Set never changes
// after New returns and may be shared between goroutines.
type Set struct {
	pairs  []Pair
	maxLen int
}

// 🏭 New validates pairs and builds a Set. Empty and duplicate patterns are
// rejected with errdefs.ErrInvalidPattern.
func New(pairs ...Pair) (*Set, error) {
	set := &Set{
		pairs: make([]Pair, 0, len(pairs)),
	}
	seen := make(map[string]int, len(pairs))

	for i, p := range pairs {
		if len(p.Pattern) == 0 {
			return nil, errors.WithDetails(
				errors.Errorf("%w: entry %d has an empty pattern", errdefs.ErrInvalidPattern, i),
				"entry", i,
			)
		}
		if first, ok := seen[string(p.Pattern)]; ok {
			return nil, errors.WithDetails(
				errors.Errorf("%w: %q is defined by entries %d and %d", errdefs.ErrInvalidPattern, p.Pattern, first, i),
				"pattern", string(p.Pattern),
				"first", first,
				"entry", i,
			)
		}
		seen[string(p.Pattern)] = i

		set.pairs = append(set.pairs, Pair{
			Pattern:     clone(p.Pattern),
			Replacement: clone(p.Replacement),
		})
		if len(p.Pattern) > set.maxLen {
			set.maxLen = len(p.Pattern)
		}
	}

	return set, nil
}

// FromStrings builds a Set from old, new string pairs in the style of
// strings.NewReplacer.
func FromStrings(oldnew ...string) (*Set, error) {
	if len(oldnew)%2 == 1 {
		return nil, errors.Errorf("%w: odd number of arguments (%d)", errdefs.ErrInvalidPattern, len(oldnew))
	}
	pairs := make([]Pair, 0, len(oldnew)/2)
	for i := 0; i < len(oldnew); i += 2 {
		pairs = append(pairs, Pair{Pattern: []byte(oldnew[i]), Replacement: []byte(oldnew[i+1])})
	}
	return New(pairs...)
}

// Len returns the number of pairs.
func (s *Set) Len() int {
	return len(s.pairs)
}

// MaxLen returns the length of the longest pattern, or 0 for an empty set.
func (s *Set) MaxLen() int {
	return s.maxLen
}

// Pair returns the pair with the given id.
func (s *Set) Pair(id int) Pair {
	return s.pairs[id]
}

// Pattern returns the pattern bytes of id. The result must not be modified.
func (s *Set) Pattern(id int) []byte {
	return s.pairs[id].Pattern
}

// Replacement returns the replacement bytes of id. The result must not be modified.
func (s *Set) Replacement(id int) []byte {
	return s.pairs[id].Replacement
}

// Pairs returns a copy of all pairs in declaration order.
func (s *Set) Pairs() []Pair {
	out := make([]Pair, len(s.pairs))
	for i, p := range s.pairs {
		out[i] = Pair{Pattern: clone(p.Pattern), Replacement: clone(p.Replacement)}
	}
	return out
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
