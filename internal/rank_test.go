package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(v any) any { return v }

// assertRanks checks rank(a) < rank(b) for every live edge reachable from
// the given nodes.
func assertRanks(t *testing.T, nodes ...*Node) {
	t.Helper()

	seen := map[*Node]bool{}
	var walk func(n *Node)
	walk = func(n *Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, child := range n.Children() {
			assert.Less(t, n.rank, child.rank, "edge %d -> %d", n.id, child.id)
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
}

func TestDeriveRanks(t *testing.T) {
	r := NewRuntime()

	//  a     b
	//  |     |
	//  m1    |
	//  |     |
	//  m2    |
	//   \   /
	//   merge
	a := r.NewSource(nil)
	b := r.NewSource(nil)
	m1 := NewMap(nil, a, identity)
	m2 := NewMap(nil, m1, identity)
	merge := NewMerge(nil, m2, b, func(l, _ any) any { return l })

	assertRanks(t, a, b)
	assert.Equal(t, Rank(0), a.Rank())
	assert.Equal(t, Rank(2), m2.Rank())
	assert.Equal(t, Rank(3), merge.Rank())
}

func TestLink(t *testing.T) {
	t.Run("raises the target and its dependents", func(t *testing.T) {
		r := NewRuntime()

		// src -> s1 -> s2 ~~> loop -> d1 -> d2
		src := r.NewSource(nil)
		s1 := NewMap(nil, src, identity)
		s2 := NewMap(nil, s1, identity)
		loop := r.NewForward()
		d1 := NewMap(nil, loop, identity)
		d2 := NewMap(nil, d1, identity)

		err := r.Run(func(tx *Transaction) error {
			return Link(tx, s2, loop)
		})
		require.NoError(t, err)

		assertRanks(t, src)
		assert.Equal(t, Rank(3), loop.Rank())
		assert.Equal(t, Rank(4), d1.Rank())
		assert.Equal(t, Rank(5), d2.Rank())
	})

	t.Run("cycle is reported and ranks restored", func(t *testing.T) {
		r := NewRuntime()

		// loop -> m1 -> m2 ~~> loop
		loop := r.NewForward()
		m1 := NewMap(nil, loop, identity)
		m2 := NewMap(nil, m1, identity)

		err := r.Run(func(tx *Transaction) error {
			return Link(tx, m2, loop)
		})

		var rankErr *UnresolvedRankError
		require.ErrorAs(t, err, &rankErr)
		assert.Equal(t, m2.ID(), rankErr.Source)
		assert.Equal(t, loop.ID(), rankErr.Target)
		assert.True(t, IsCycleError(err))

		assert.Equal(t, Rank(0), loop.Rank())
		assert.Equal(t, Rank(1), m1.Rank())
		assert.Equal(t, Rank(2), m2.Rank())
		assert.Empty(t, loop.sources)
	})

	t.Run("does not raise nodes already above", func(t *testing.T) {
		r := NewRuntime()

		src := r.NewSource(nil)
		target := NewMap(nil, NewMap(nil, NewMap(nil, r.NewSource(nil), identity), identity), identity)

		err := r.Run(func(tx *Transaction) error {
			return Link(tx, src, target)
		})
		require.NoError(t, err)
		assert.Equal(t, Rank(3), target.Rank())
	})

	t.Run("mixed runtimes", func(t *testing.T) {
		a := NewRuntime().NewSource(nil)
		b := NewRuntime().NewSource(nil)

		assert.PanicsWithError(t, (&ConfigError{Message: "nodes from different runtimes cannot be combined"}).Error(), func() {
			_ = Link(nil, a, b)
		})
	})
}
