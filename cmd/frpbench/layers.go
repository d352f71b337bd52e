package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/AnatoleLucet/frp"
)

const (
	configKey = "config"
	setKey    = "set"
)

func layersCommand() *cli.Command {
	return &cli.Command{
		Name:  "layers",
		Usage: "Run layered lifted-cell graphs and report update rates",
		Flags: commonFlags(
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML file with the scenarios to run",
			},
			&cli.StringSliceFlag{
				Name:  setKey,
				Usage: "Override a scenario field for every scenario (key=value)",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			cfg, err := loadConfig(cmd.String(configKey))
			if err != nil {
				return err
			}
			if err := applyOverrides(&cfg, cmd.StringSlice(setKey)); err != nil {
				return err
			}

			if err := runLayers(os.Stdout, s, cfg); err != nil {
				return err
			}
			return s.report(os.Stdout)
		},
	}
}

type layersResult struct {
	duration time.Duration
	count    int64
	digest   uint64
}

func runLayers(w io.Writer, s *session, cfg benchConfig) error {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"size", "sources", "iterations", "test", "time", "updateRate", "digest"})

	for _, sc := range cfg.Scenarios {
		if err := sc.validate(); err != nil {
			return err
		}

		var best *layersResult
		for i := 0; i < max(cfg.Repeats, 1); i++ {
			res, err := runScenario(s, sc)
			if err != nil {
				return err
			}
			if best != nil && best.digest != res.digest {
				return fmt.Errorf("%s: digest changed between runs (%x != %x)", sc.Name, best.digest, res.digest)
			}
			if best == nil || res.duration < best.duration {
				best = res
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))

		tbl.Append([]string{
			fmt.Sprintf("%dx%d", sc.Width, sc.Layers),
			fmt.Sprint(sc.Sources),
			humanize.Comma(int64(sc.Iterations)),
			sc.Name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			fmt.Sprintf("%016x", best.digest),
		})
	}

	tbl.Render()
	return nil
}

// runScenario builds the graph in a fresh runtime, sends to one source per
// iteration and hashes every leaf value seen by the listeners.
func runScenario(s *session, sc scenario) (*layersResult, error) {
	rt := s.runtime(sc.Name)

	sources := make([]*frp.CellSink[int], sc.Width)
	row := make([]*frp.Cell[int], sc.Width)
	for i := range sources {
		sources[i] = frp.NewCellSink(i, frp.InRuntime(rt))
		row[i] = sources[i].AsCell()
	}

	var count int64
	for layer := 1; layer < sc.Layers; layer++ {
		next := make([]*frp.Cell[int], sc.Width)
		for i := range next {
			deps := make([]*frp.Cell[int], sc.Sources)
			for j := range deps {
				deps[j] = row[(i+j)%sc.Width]
			}
			next[i] = frp.LiftAll(deps, func(values []int) int {
				count++
				sum := 0
				for _, v := range values {
					sum += v
				}
				return sum % 1_000_003
			})
		}
		row = next
	}

	digest := xxhash.New()
	buf := make([]byte, 0, 20)
	for _, leaf := range row {
		leaf.Updates().Listen(func(v int) {
			buf = strconv.AppendInt(buf[:0], int64(v), 10)
			_, _ = digest.Write(buf)
		})
	}

	count = 0
	start := time.Now()
	for i := 0; i < sc.Iterations; i++ {
		src := i % sc.Width
		if err := sources[src].Send(i + src); err != nil {
			return nil, err
		}
	}

	return &layersResult{
		duration: time.Since(start),
		count:    count,
		digest:   digest.Sum64(),
	}, nil
}
