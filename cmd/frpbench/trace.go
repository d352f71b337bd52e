package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/AnatoleLucet/frp"
)

func traceCommand() *cli.Command {
	return &cli.Command{
		Name:  "trace",
		Usage: "Print the phases and firings of a small pricing graph",
		Flags: commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			if err := runTrace(os.Stdout, s); err != nil {
				return err
			}
			return s.report(os.Stdout)
		},
	}
}

// tracer writes every transaction event to w.
type tracer struct {
	w io.Writer
}

func (t *tracer) PhaseStarted(tx uint64, phase frp.Phase) {
	fmt.Fprintf(t.w, "tx %d %s\n", tx, phase)
}

func (t *tracer) NodeFired(tx uint64, node frp.NodeID, rank frp.Rank) {
	fmt.Fprintf(t.w, "tx %d   fire node=%d rank=%d\n", tx, node, rank)
}

func (t *tracer) TransactionClosed(stats frp.TxStats) {
	fmt.Fprintf(t.w, "tx %d   stats firings=%d listeners=%d errors=%d\n",
		stats.ID, stats.Firings, stats.Listeners, stats.Errors)
}

// runTrace builds
//
//	price   qty
//	    \   /
//	    total
//	      |
//	   withTax -> listener
//
// and updates it twice: once alone, once with both inputs in one transaction.
func runTrace(w io.Writer, s *session) error {
	rt := s.runtime("trace", frp.WithObserver(&tracer{w: w}))

	price := frp.NewCellSink(10, frp.InRuntime(rt))
	qty := frp.NewCellSink(1, frp.InRuntime(rt))
	total := frp.Lift2(price.AsCell(), qty.AsCell(), func(p, q int) int { return p * q })
	withTax := frp.MapCell(total, func(v int) int { return v + v/10 })

	l, err := withTax.Listen(func(v int) {
		fmt.Fprintf(w, "       listener total=%d\n", v)
	})
	if err != nil {
		return err
	}
	defer l.Release()

	if err := price.Send(20); err != nil {
		return err
	}

	err = rt.Run(func() error {
		if err := price.Send(30); err != nil {
			return err
		}
		return qty.Send(2)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "sample total=%d\n", withTax.Sample())
	return nil
}
