package sink

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

// Multi submits to every sink concurrently. The first failure cancels the
// others and is returned.
type Multi []contract.OrderSink

func (m Multi) Submit(ctx context.Context, order contract.FinalizedOrder) error {
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0].Submit(ctx, order)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range m {
		s := s
		g.Go(func() error {
			return s.Submit(gctx, order)
		})
	}
	return g.Wait()
}
