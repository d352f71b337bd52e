package frp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop(t *testing.T) {
	t.Run("cell loop accumulator", func(t *testing.T) {
		//  add ---> snapshot(total) ---> hold ---> total
		//              ^                             |
		//              '-----------------------------'
		rt := NewRuntime()
		add := NewStreamSink[int](InRuntime(rt))

		var total *Cell[int]
		require.NoError(t, rt.Run(func() error {
			loop := NewCellLoop[int](InRuntime(rt))
			total = Snapshot(add.AsStream(), loop.AsCell(), func(delta, sum int) int {
				return sum + delta
			}).Hold(0)
			return loop.Loop(total)
		}))

		require.NoError(t, add.Send(5))
		require.NoError(t, add.Send(10))

		assert.Equal(t, 15, total.Sample())
	})

	t.Run("stream loop raises ranks", func(t *testing.T) {
		log := []int{}
		rt := NewRuntime()
		sink := NewStreamSink[int](InRuntime(rt))

		require.NoError(t, rt.Run(func() error {
			loop := NewStreamLoop[int](InRuntime(rt))
			plusOne := Map(loop.AsStream(), func(v int) int { return v + 1 })

			deep := Map(Map(Map(sink.AsStream(), func(v int) int { return v }), func(v int) int { return v }), func(v int) int { return v * 10 })
			// fires together with deep, so it must be ranked after it
			Snapshot(deep, NewCell(0, InRuntime(rt)), func(v, _ int) int { return v }).
				OrElse(plusOne).
				Listen(func(v int) { log = append(log, v) })

			return loop.Loop(deep)
		}))

		require.NoError(t, sink.Send(1))

		assert.Equal(t, []int{10}, log)
	})

	t.Run("lift over a cell loop", func(t *testing.T) {
		rt := NewRuntime()
		input := NewCellSink(2, InRuntime(rt))

		var doubled *Cell[int]
		require.NoError(t, rt.Run(func() error {
			loop := NewCellLoop[int](InRuntime(rt))
			doubled = MapCell(loop.AsCell(), func(v int) int { return v * 2 })
			return loop.Loop(input.AsCell())
		}))

		assert.Equal(t, 4, doubled.Sample())
		require.NoError(t, input.Send(3))
		assert.Equal(t, 6, doubled.Sample())
	})

	t.Run("listening to a lift over a cell loop sees its first value", func(t *testing.T) {
		//  constant(5) ---> loop ---> map(+100) ---> listen
		//                                  '-------> snapshot(tick)
		log := []string{}
		rt := NewRuntime()
		tick := NewStreamSink[string](InRuntime(rt))

		require.NoError(t, rt.Run(func() error {
			loop := NewCellLoop[int](InRuntime(rt))
			shifted := MapCell(loop.AsCell(), func(v int) int { return v + 100 })

			_, err := shifted.Listen(func(v int) { log = append(log, fmt.Sprint("listen ", v)) })
			require.NoError(t, err)

			Snapshot(tick.AsStream(), shifted, func(name string, v int) string {
				return fmt.Sprint(name, " ", v)
			}).Listen(func(v string) { log = append(log, v) })
			_ = tick.Send("snapshot")

			return loop.Loop(NewCell(5, InRuntime(rt)))
		}))

		assert.ElementsMatch(t, []string{"listen 105", "snapshot 105"}, log)
	})

	t.Run("cycle without a delay", func(t *testing.T) {
		rt := NewRuntime()

		err := rt.Run(func() error {
			loop := NewStreamLoop[int](InRuntime(rt))
			next := Map(loop.AsStream(), func(v int) int { return v + 1 })
			return loop.Loop(next)
		})

		var rankErr *UnresolvedRankError
		require.ErrorAs(t, err, &rankErr)
		assert.Equal(t, CodeUnresolvedRank, rankErr.Code())
		assert.True(t, IsCycleError(err))
	})

	t.Run("defer breaks the cycle", func(t *testing.T) {
		// countdown: every value v > 0 is fed back as v-1 in the next transaction
		log := []int{}
		rt := NewRuntime()
		start := NewStreamSink[int](InRuntime(rt))

		require.NoError(t, rt.Run(func() error {
			loop := NewStreamLoop[int](InRuntime(rt))
			in := start.OrElse(loop.AsStream())
			in.Listen(func(v int) { log = append(log, v) })

			next := FilterMap(in, func(v int) (int, bool) { return v - 1, v > 0 })
			return loop.Loop(next.Defer())
		}))

		require.NoError(t, start.Send(3))

		assert.Equal(t, []int{3, 2, 1, 0}, log)
	})

	t.Run("binding twice", func(t *testing.T) {
		rt := NewRuntime()
		a := NewStreamSink[int](InRuntime(rt))

		err := rt.Run(func() error {
			loop := NewStreamLoop[int](InRuntime(rt))
			require.NoError(t, loop.Loop(a.AsStream()))
			return loop.Loop(a.AsStream())
		})

		assert.ErrorIs(t, err, ErrLoopAlreadyBound)
	})

	t.Run("binding outside a transaction", func(t *testing.T) {
		rt := NewRuntime()

		loop := NewCellLoop[int](InRuntime(rt))
		err := loop.Loop(NewCell(1, InRuntime(rt)))

		assert.ErrorIs(t, err, ErrLoopOutsideTransaction)
	})

	t.Run("sampling an unbound cell loop", func(t *testing.T) {
		loop := NewCellLoop[int](InRuntime(NewRuntime()))

		assert.PanicsWithValue(t, ErrLoopNotBound, func() {
			loop.Sample()
		})
	})
}
