/*
Package automaton compiles a pattern.Set into an Aho-Corasick style matcher.

	   pattern.Set
	        |
	   +----+----+
	   |  trie   |  one path per pattern
	   +----+----+
	        | breadth first: failure links, output links
	   +----+----+
	   |  table  |  state x byte class -> state
	   +---------+

🎯 Purpose:
- One transition per input byte, whatever the number of patterns
- Report the longest pattern ending at each position
- Report how far back an unfinished match may still start (Scanner.Depth)

⚡ Matching rule:
Leftmost-longest. Among matches the earliest start wins, then the longest
pattern. Two distinct patterns of the same length cannot start at the same
position, so no further tie breaking is needed. A candidate is final once
the scanner's depth no longer reaches back to its start.

🔍 Example:

	set, _ := pattern.FromStrings("super", "S", "superpenguin", "P")
	a := automaton.New(set)
	m, ok := a.Find([]byte("superpenga")) // m.Pattern == 0, m.End == 5
*/
package automaton
