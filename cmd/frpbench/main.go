package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/urfave/cli/v3"

	"github.com/AnatoleLucet/frp"
	"github.com/AnatoleLucet/frp/internal/logging"
	"github.com/AnatoleLucet/frp/metrics"
)

const (
	metricsKey  = "metrics"
	logLevelKey = "log-level"
)

func main() {
	cmd := &cli.Command{
		Name:  "frpbench",
		Usage: "Benchmark and trace the frp runtime",
		Commands: []*cli.Command{
			gridCommand(),
			layersCommand(),
			traceCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func commonFlags(flags ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.BoolFlag{
			Name:  metricsKey,
			Usage: "Collect Prometheus metrics and print them after the run",
		},
		&cli.StringFlag{
			Name:  logLevelKey,
			Usage: "Runtime log level (debug, info, warn, error)",
			Value: "warn",
		},
	}, flags...)
}

// session holds what every command needs to build runtimes: the logger and,
// with --metrics, the registry the observer reports to.
type session struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	observer *metrics.Observer
}

func newSession(cmd *cli.Command) (*session, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String(logLevelKey))); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", logLevelKey, err)
	}

	s := &session{logger: logging.New(level)}

	if cmd.Bool(metricsKey) {
		s.registry = prometheus.NewRegistry()
		obs, err := metrics.New(s.registry)
		if err != nil {
			return nil, err
		}
		s.observer = obs
	}

	return s, nil
}

func (s *session) runtime(name string, extra ...frp.Option) *frp.Runtime {
	opts := []frp.Option{frp.WithName(name), frp.WithLogger(s.logger)}
	opts = append(opts, extra...)
	if s.observer != nil {
		opts = append(opts, frp.WithObserver(s.observer))
	}
	return frp.NewRuntime(opts...)
}

// report prints the gathered metric families when --metrics is set.
func (s *session) report(w io.Writer) error {
	if s.registry == nil {
		return nil
	}

	families, err := s.registry.Gather()
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %s\n", mf.GetName(), formatLabels(m.GetLabel()), formatValue(mf.GetType(), m))
		}
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}

	labels := make([]string, len(pairs))
	for i, p := range pairs {
		labels[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	sort.Strings(labels)
	return "{" + strings.Join(labels, ",") + "}"
}

func formatValue(typ dto.MetricType, m *dto.Metric) string {
	switch typ {
	case dto.MetricType_COUNTER:
		return fmt.Sprint(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprint(m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}
