// Package thread reconstructs a linear conversation from reply-linked
// tweets. The platform hands back an unordered, possibly incomplete set
// of tweets with replied_to edges; this package turns those edges into a
// forest and walks it deterministically.
package thread

import "sort"

// BuildReplyForest inverts a child→parent reply mapping into a
// parent→children adjacency. Children with no recorded parent are simply
// absent from the input. Pure and total: the empty mapping produces an
// empty forest.
func BuildReplyForest(parents map[uint64]uint64) map[uint64][]uint64 {
	forest := make(map[uint64][]uint64, len(parents))
	for child, parent := range parents {
		forest[parent] = append(forest[parent], child)
	}
	return forest
}

// Linearize walks the forest depth-first from root and returns the visit
// order. Siblings are visited in ascending id order, which approximates
// chronological order since the platform assigns ids monotonically.
// Anything not reachable from root is skipped; that is how a reply the
// author made outside the direct chain stays out of the conversation.
func Linearize(forest map[uint64][]uint64, root uint64) []uint64 {
	children, ok := forest[root]
	if !ok {
		return []uint64{root}
	}

	// Sort a copy so the result never depends on insertion order.
	ordered := make([]uint64, len(children))
	copy(ordered, children)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	result := []uint64{root}
	for _, child := range ordered {
		result = append(result, Linearize(forest, child)...)
	}
	return result
}

// Texts maps a linearized id sequence onto tweet texts, dropping the
// tagging tweet wherever it appears and any id with no text entry.
// Missing entries are expected: third-party tweets are linked into the
// forest to keep ordering intact but never get a text of their own.
func Texts(order []uint64, texts map[uint64]string, taggingID uint64) []string {
	out := make([]string, 0, len(order))
	for _, id := range order {
		if id == taggingID {
			continue
		}
		text, ok := texts[id]
		if !ok {
			continue
		}
		out = append(out, text)
	}
	return out
}
