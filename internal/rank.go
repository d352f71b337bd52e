package internal

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Rank orders propagation: for every edge a->b, rank(a) < rank(b).
type Rank uint64

// Link adds target as a child of source after both already exist, which is
// how loops are closed. Ranks downstream of target are raised until the
// invariant holds again. If raising would reach source itself the edge closes
// a cycle: every raised rank is restored and an *UnresolvedRankError is
// returned.
func Link(tx *Transaction, source, target *Node) error {
	mustShareRuntime(source, target)

	if err := raiseRanks(tx, source, target); err != nil {
		return err
	}

	target.sources = append(target.sources, source)
	source.addChild(tx, target, 0)

	return nil
}

type savedRank struct {
	node *Node
	rank Rank
}

func raiseRanks(tx *Transaction, source, target *Node) error {
	var undo []savedRank
	path := mapset.NewThreadUnsafeSet[*Node]()

	var raise func(n *Node, above Rank) error
	raise = func(n *Node, above Rank) error {
		if n == source || path.Contains(n) {
			return &UnresolvedRankError{Source: source.id, Target: target.id}
		}
		if n.rank > above {
			return nil
		}

		undo = append(undo, savedRank{node: n, rank: n.rank})
		n.setRank(tx, above+1)

		path.Add(n)
		defer path.Remove(n)

		for _, child := range n.Children() {
			if err := raise(child, n.rank); err != nil {
				return err
			}
		}
		return nil
	}

	if err := raise(target, source.rank); err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i].node.setRank(tx, undo[i].rank)
		}
		return err
	}

	return nil
}

// setRank keeps a queued node at the right bucket.
func (n *Node) setRank(tx *Transaction, rank Rank) {
	if tx != nil && tx.heap.Contains(n) {
		tx.heap.Remove(n)
		n.rank = rank
		tx.heap.Insert(n)
		return
	}

	n.rank = rank
}
