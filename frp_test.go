package frp

import (
	"fmt"
)

func ExampleCellSink() {
	rt := NewRuntime()
	count := NewCellSink(0, InRuntime(rt))
	double := MapCell(count.AsCell(), func(v int) int { return v * 2 })

	l, _ := double.Listen(func(v int) {
		fmt.Println("double", v)
	})
	defer l.Release()

	_ = count.Send(5)
	fmt.Println(count.Sample())

	// Output:
	// double 0
	// double 10
	// 5
}

func ExampleRuntime_Run() {
	rt := NewRuntime()
	clicks := NewStreamSink[int](InRuntime(rt))

	clicks.Listen(func(v int) {
		fmt.Println("clicked", v)
	})

	_ = rt.Run(func() error {
		_ = clicks.Send(1)
		_ = clicks.Send(2)
		return nil
	})

	// Output:
	// clicked 2
}

func ExampleAccum() {
	rt := NewRuntime()
	deposits := NewStreamSink[int](InRuntime(rt))
	balance := Accum(deposits.AsStream(), 100, func(amount, total int) int { return total + amount })

	_ = deposits.Send(20)
	_ = deposits.Send(-50)
	fmt.Println(balance.Sample())

	// Output:
	// 70
}

func ExampleStream_Merge() {
	rt := NewRuntime()
	left := NewStreamSink[string](InRuntime(rt))
	right := NewStreamSink[string](InRuntime(rt))

	both := left.Merge(right.AsStream(), func(l, r string) string { return l + "+" + r })
	both.Listen(func(v string) { fmt.Println(v) })

	_ = left.Send("l")
	_ = rt.Run(func() error {
		_ = right.Send("r")
		_ = left.Send("l")
		return nil
	})

	// Output:
	// l
	// l+r
}
