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

package automaton

// 📡 Signal is what the scanner reports after each byte.
//
// A zero Length is NoMatch. Otherwise the pattern Pattern, Length bytes long,
// ends at the byte just consumed; it is the longest pattern ending there.
type Signal struct {
	Pattern int
	Length  int
}

// NoMatch is the Signal for a byte that completes no pattern.
var NoMatch = Signal{Pattern: noPattern}

// Matched reports whether the signal carries a match.
func (s Signal) Matched() bool {
	return s.Length > 0
}

// 🎯 Match is a located pattern occurrence in a window, End exclusive.
type Match struct {
	Pattern int
	Start   int
	End     int
}

// Len returns the number of matched bytes.
func (m Match) Len() int {
	return m.End - m.Start
}

// 🔍 Scanner is the per-stream traversal state of an Automaton. It is not safe
// for concurrent use; create one per stream.
type Scanner struct {
	a     *Automaton
	state int32
}

// Advance consumes one byte.
func (s *Scanner) Advance(b byte) Signal {
	a := s.a
	s.state = a.trans[int(s.state)*a.stride+int(a.classes[b])]
	if id := a.out[s.state]; id != noPattern {
		return Signal{Pattern: int(id), Length: int(a.outLen[s.state])}
	}
	return NoMatch
}

// Depth is the length of the longest suffix of the consumed input that is
// still a prefix of some pattern. No match can start further back than that.
func (s *Scanner) Depth() int {
	return int(s.a.depth[s.state])
}

// Reset returns the scanner to the root state.
func (s *Scanner) Reset() {
	s.state = rootState
}

// Find returns the leftmost-longest match in haystack: the match with the
// earliest start and, among those, the longest.
func (a *Automaton) Find(haystack []byte) (Match, bool) {
	s := a.Scanner()
	var best Match
	found := false

	for i, b := range haystack {
		sig := s.Advance(b)
		end := i + 1
		if sig.Matched() {
			start := end - sig.Length
			if !found || start < best.Start || (start == best.Start && sig.Length > best.Len()) {
				best = Match{Pattern: sig.Pattern, Start: start, End: end}
				found = true
			}
		}
		if found && end-s.Depth() > best.Start {
			return best, true
		}
	}

	return best, found
}

// FindAll returns the non-overlapping leftmost-longest matches of haystack in
// order. Scanning resumes right after each match.
func (a *Automaton) FindAll(haystack []byte) []Match {
	var matches []Match
	pos := 0
	for pos < len(haystack) {
		m, ok := a.Find(haystack[pos:])
		if !ok {
			break
		}
		m.Start += pos
		m.End += pos
		matches = append(matches, m)
		pos = m.End
	}
	return matches
}
