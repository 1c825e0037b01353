/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package fragindex is the Aho-Corasick automaton over a snapshot's
// deduplicated fragment set (C2). Compilation happens once per snapshot
// build (§4.3); lookups during matching are read-only and safe for
// concurrent use from any number of goroutines.
package fragindex

import (
	ahocorasick "github.com/BobuSumisu/aho-corasick"
)

// Hit is one reported occurrence of a fragment in a scanned line.
type Hit struct {
	FragmentID uint32
	Pos        int
}

// Index wraps a compiled automaton plus the literal-to-id mapping needed to
// translate a raw match back into a dense fragment id. Fragment literals are
// deduplicated before being handed to Build (I1: fragment ids are dense and
// stable for the snapshot's lifetime), so the literal->id map is injective
// and a MatchString() lookup is unambiguous.
type Index struct {
	trie      *ahocorasick.Trie
	idByLiteral map[string]uint32
}

// Build compiles an automaton from fragments, where fragments[i] is the
// literal for fragment id i. fragments must already be deduplicated by the
// caller (snapshot.Build assigns dense ids over a deduplicated multiset, §4.4
// step 1).
func Build(fragments []string) *Index {
	idByLiteral := make(map[string]uint32, len(fragments))
	for id, lit := range fragments {
		idByLiteral[lit] = uint32(id)
	}

	builder := ahocorasick.NewTrieBuilder()
	builder.AddStrings(fragments)

	return &Index{
		trie:        builder.Build(),
		idByLiteral: idByLiteral,
	}
}

// Scan runs the automaton over line in a single left-to-right pass (§4.1
// step 1) and appends every (fragment_id, position) occurrence to dst,
// returning the extended slice. The underlying trie reports every
// occurrence of every fragment, overlapping ones included; no leftmost-first
// overlap resolution is applied, so the matcher sees all positions of each
// fragment and picks among them itself.
func (idx *Index) Scan(line []byte, dst []Hit) []Hit {
	matches := idx.trie.Match(line)
	for _, m := range matches {
		id, ok := idx.idByLiteral[m.MatchString()]
		if !ok {
			continue
		}
		dst = append(dst, Hit{FragmentID: id, Pos: int(m.Pos())})
	}
	return dst
}
