package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedNode(id NodeID, rank Rank) *Node {
	return &Node{id: id, rank: rank}
}

func drainIDs(h *rankHeap) []NodeID {
	ids := []NodeID{}
	h.Drain(func(n *Node) { ids = append(ids, n.id) })
	return ids
}

func TestRankHeap(t *testing.T) {
	t.Run("lower ranks first, fifo within a rank", func(t *testing.T) {
		h := newRankHeap()
		h.Insert(rankedNode(1, 2))
		h.Insert(rankedNode(2, 0))
		h.Insert(rankedNode(3, 2))
		h.Insert(rankedNode(4, 1))
		h.Insert(rankedNode(5, 0))

		assert.Equal(t, []NodeID{2, 5, 4, 1, 3}, drainIDs(h))
		assert.Equal(t, 0, h.Len())
	})

	t.Run("inserting a queued node keeps its place", func(t *testing.T) {
		h := newRankHeap()
		a, b := rankedNode(1, 1), rankedNode(2, 1)
		h.Insert(a)
		h.Insert(b)
		h.Insert(a)

		assert.Equal(t, 2, h.Len())
		assert.Equal(t, []NodeID{1, 2}, drainIDs(h))
	})

	t.Run("lower rank inserted while draining comes next", func(t *testing.T) {
		h := newRankHeap()
		low := rankedNode(9, 0)
		h.Insert(rankedNode(1, 3))
		h.Insert(rankedNode(2, 5))

		ids := []NodeID{}
		h.Drain(func(n *Node) {
			ids = append(ids, n.id)
			if n.id == 1 {
				h.Insert(low)
			}
		})

		assert.Equal(t, []NodeID{1, 9, 2}, ids)
	})

	t.Run("remove from head, middle and tail", func(t *testing.T) {
		h := newRankHeap()
		nodes := []*Node{rankedNode(1, 1), rankedNode(2, 1), rankedNode(3, 1), rankedNode(4, 1)}
		for _, n := range nodes {
			h.Insert(n)
		}

		h.Remove(nodes[0])
		h.Remove(nodes[2])
		h.Remove(nodes[3])
		h.Remove(nodes[3])

		assert.False(t, h.Contains(nodes[0]))
		assert.True(t, h.Contains(nodes[1]))
		assert.Equal(t, []NodeID{2}, drainIDs(h))
	})

	t.Run("grows past the initial buckets", func(t *testing.T) {
		h := newRankHeap()
		h.Insert(rankedNode(1, 500))
		h.Insert(rankedNode(2, 70))

		assert.Equal(t, []NodeID{2, 1}, drainIDs(h))
	})

	t.Run("rank change of a queued node", func(t *testing.T) {
		r := NewRuntime()
		tx := &Transaction{rt: r, heap: newRankHeap()}
		a, b := rankedNode(1, 1), rankedNode(2, 2)
		tx.heap.Insert(a)
		tx.heap.Insert(b)

		a.setRank(tx, 3)

		require.Equal(t, Rank(3), a.rank)
		assert.Equal(t, []NodeID{2, 1}, drainIDs(tx.heap))
	})

	t.Run("pop on empty heap", func(t *testing.T) {
		h := newRankHeap()
		assert.Nil(t, h.Pop())
	})
}
