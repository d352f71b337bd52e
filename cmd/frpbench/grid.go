package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"

	"github.com/AnatoleLucet/frp"
)

const (
	widthKey  = "width"
	heightKey = "height"
	itersKey  = "iters"
)

func gridCommand() *cli.Command {
	return &cli.Command{
		Name:  "grid",
		Usage: "Time sends through width chains of height mapped cells",
		Flags: commonFlags(
			&cli.IntSliceFlag{
				Name:  widthKey,
				Usage: "Number of chains",
				Value: []int64{1, 10, 100},
			},
			&cli.IntSliceFlag{
				Name:  heightKey,
				Usage: "Length of each chain",
				Value: []int64{1, 10, 100},
			},
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "Sends per grid",
				Value: 100,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			cfg := gridConfig{
				widths:  toInts(cmd.IntSlice(widthKey)),
				heights: toInts(cmd.IntSlice(heightKey)),
				iters:   int(cmd.Int(itersKey)),
			}
			if err := runGrid(os.Stdout, s, cfg); err != nil {
				return err
			}
			return s.report(os.Stdout)
		},
	}
}

type gridConfig struct {
	widths  []int
	heights []int
	iters   int
}

func runGrid(w io.Writer, s *session, cfg gridConfig) error {
	tbl := table.NewWriter()
	tbl.SetTitle("frp grid")
	tbl.SetOutputMirror(w)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "fired"})

	for _, width := range cfg.widths {
		for _, height := range cfg.heights {
			rt := s.runtime(fmt.Sprintf("grid-%dx%d", width, height))
			src := frp.NewCellSink(1, frp.InRuntime(rt))

			fired := 0
			for i := 0; i < width; i++ {
				last := src.AsCell()
				for j := 0; j < height; j++ {
					last = frp.MapCell(last, addOne)
				}
				last.Updates().Listen(func(int) { fired++ })
			}

			tach := tachymeter.New(&tachymeter.Config{Size: cfg.iters})
			for i := 0; i < cfg.iters; i++ {
				start := time.Now()
				if err := src.Send(src.Sample() + 1); err != nil {
					return err
				}
				tach.AddTime(time.Since(start))
			}

			if want := width * cfg.iters; fired != want {
				return fmt.Errorf("grid %dx%d: %d leaf firings, want %d", width, height, fired, want)
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", width, height),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					fired,
				},
			})
		}
	}

	tbl.Render()
	return nil
}

func addOne(v int) int {
	return v + 1
}

func toInts(values []int64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
