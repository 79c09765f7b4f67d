package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"sort"

	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/dependencies/binding"
	"github.com/on-the-ground/composable_go/dependencies/idgen"
	"github.com/on-the-ground/composable_go/dependencies/log"
	"github.com/on-the-ground/composable_go/internal/config"
	"github.com/on-the-ground/composable_go/metrics"
	"github.com/on-the-ground/composable_go/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// session carries the dependencies shared by every command.
type session struct {
	ctx      context.Context
	registry *prometheus.Registry
	options  []store.Option
	teardown []func() context.Context
}

func newSession(ctx context.Context, c config.Config, bindings ...map[string]any) (*session, error) {
	level, err := c.ZapLevel()
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Encoding = "console"
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	s := &session{options: []store.Option{store.WithName(c.Store.Name)}}
	ctx, endOfLog := log.WithZapEffectHandler(ctx, c.Log.Handler.BufferSize, logger)
	s.teardown = append(s.teardown, endOfLog)

	ctx, endOfIDs := idgen.WithEffectHandler(ctx, c.IDGen.Handler.BufferSize, idgen.Live())
	s.teardown = append(s.teardown, endOfIDs)

	all := map[string]any{}
	for _, b := range bindings {
		maps.Copy(all, b)
	}
	ctx, endOfBindings := binding.WithEffectHandler(
		ctx,
		dependencies.NewScopeConfig(c.Binding.Handler.BufferSize, c.Binding.Handler.NumWorkers),
		all,
	)
	s.teardown = append(s.teardown, endOfBindings)

	if c.Store.Metrics {
		s.registry = prometheus.NewRegistry()
		s.options = append(s.options, store.WithMetrics(metrics.NewCollector(s.registry)))
	}
	s.ctx = ctx
	return s, nil
}

func (s *session) close() {
	for i := len(s.teardown) - 1; i >= 0; i-- {
		s.teardown[i]()
	}
}

// printMetrics writes every non-zero sample, sorted by name.
func (s *session) printMetrics(w io.Writer) error {
	if s.registry == nil {
		return nil
	}
	families, err := s.registry.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			}
			if v == 0 {
				continue
			}
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// waitFor blocks until done holds for the store's state.
func waitFor[S any, A any](ctx context.Context, s *store.Store[S, A], done func(S) bool) (S, error) {
	ch := make(chan S, 1)
	cancel := store.ObserveState(s, func(st S) {
		if done(st) {
			select {
			case ch <- st:
			default:
			}
		}
	})
	defer cancel()

	if st := s.State(); done(st) {
		return st, nil
	}
	select {
	case st := <-ch:
		return st, nil
	case <-ctx.Done():
		var zero S
		return zero, ctx.Err()
	}
}
