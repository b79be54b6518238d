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

import (
	"github.com/walteh/to-uni/pkg/pattern"
)

const (
	rootState = 0
	noPattern = -1
)

// 🤖 Automaton is a compiled multi-pattern matcher over a pattern.Set.
//
// It is read-only after New and safe for concurrent use. Traversal state lives
// in a Scanner, one per stream.
type Automaton struct {
	set *pattern.Set

	// classes maps every byte to its equivalence class. Bytes that appear in
	// no pattern share class 0 and always lead back to the root. There are at
	// most 257 classes.
	classes [256]uint16
	stride  int

	// trans[state*stride+class] is the next state.
	trans []int32

	depth  []int32
	out    []int32 // longest pattern that is a suffix of the state's string
	outLen []int32
}

// 🏭 New compiles set. Construction cannot fail; the set is already validated.
func New(set *pattern.Set) *Automaton {
	a := &Automaton{set: set}
	reps := a.buildClasses()

	t := newTrie()
	for id := 0; id < set.Len(); id++ {
		t.insert(set.Pattern(id), int32(id))
	}

	a.compile(t, reps)
	return a
}

// buildClasses gives every byte used by a pattern its own class and returns
// the representative byte of each class (index 0 is unused).
func (a *Automaton) buildClasses() []byte {
	var used [256]bool
	for id := 0; id < a.set.Len(); id++ {
		for _, b := range a.set.Pattern(id) {
			used[b] = true
		}
	}

	reps := []byte{0}
	for b := 0; b < 256; b++ {
		if used[b] {
			a.classes[b] = uint16(len(reps))
			reps = append(reps, byte(b))
		}
	}
	a.stride = len(reps)
	return reps
}

// compile walks the trie breadth first, filling failure-resolved transitions
// and output links. A node's failure target is always shallower, so its row
// is complete before the node itself is visited.
func (a *Automaton) compile(t *trie, reps []byte) {
	n := len(t.nodes)
	a.trans = make([]int32, n*a.stride)
	a.depth = make([]int32, n)
	a.out = make([]int32, n)
	a.outLen = make([]int32, n)
	fail := make([]int32, n)

	queue := make([]int32, 0, n)
	queue = append(queue, rootState)

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		node := &t.nodes[u]

		a.depth[u] = node.depth
		switch {
		case node.terminal != noPattern:
			a.out[u] = node.terminal
			a.outLen[u] = node.depth
		case u == rootState:
			a.out[u] = noPattern
		default:
			a.out[u] = a.out[fail[u]]
			a.outLen[u] = a.outLen[fail[u]]
		}

		row := int(u) * a.stride
		failRow := int(fail[u]) * a.stride
		for c := 1; c < a.stride; c++ {
			v, ok := node.next[reps[c]]
			if !ok {
				if u != rootState {
					a.trans[row+c] = a.trans[failRow+c]
				}
				continue
			}
			if u != rootState {
				fail[v] = a.trans[failRow+c]
			}
			a.trans[row+c] = v
			queue = append(queue, v)
		}
	}
}

// Set returns the pattern set the automaton was built from.
func (a *Automaton) Set() *pattern.Set {
	return a.set
}

// MaxLen is the length of the longest pattern.
func (a *Automaton) MaxLen() int {
	return a.set.MaxLen()
}

// States returns the number of automaton states, including the root.
func (a *Automaton) States() int {
	return len(a.depth)
}

// Classes returns the number of byte equivalence classes.
func (a *Automaton) Classes() int {
	return a.stride
}

// Scanner returns fresh traversal state positioned at the root.
func (a *Automaton) Scanner() *Scanner {
	return &Scanner{a: a}
}

type trieNode struct {
	next     map[byte]int32
	depth    int32
	terminal int32
}

type trie struct {
	nodes []trieNode
}

func newTrie() *trie {
	return &trie{nodes: []trieNode{{next: map[byte]int32{}, terminal: noPattern}}}
}

func (t *trie) insert(p []byte, id int32) {
	cur := int32(rootState)
	for _, b := range p {
		nxt, ok := t.nodes[cur].next[b]
		if !ok {
			nxt = int32(len(t.nodes))
			t.nodes = append(t.nodes, trieNode{
				next:     map[byte]int32{},
				depth:    t.nodes[cur].depth + 1,
				terminal: noPattern,
			})
			t.nodes[cur].next[b] = nxt
		}
		cur = nxt
	}
	t.nodes[cur].terminal = id
}
