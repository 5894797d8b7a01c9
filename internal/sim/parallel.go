package sim

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Compare runs independent configurations concurrently, one goroutine per
// configuration. Each run is itself sequential and headless. metrics, if
// non-nil, builds a fresh metric set for each configuration.
func Compare(ctx context.Context, cfgs []Config, metrics func(Config) []Metric) ([]*Result, error) {
	results := make([]*Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	for i, cfg := range cfgs {
		g.Go(func() error {
			s := New(cfg)
			if metrics != nil {
				for _, m := range metrics(cfg) {
					s.AddMetric(m)
				}
			}

			res, err := s.Run(ctx, nil)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
