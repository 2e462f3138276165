package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/claims-validator/internal/entity"
)

// reviewPool runs AI reviews for a batch with at most limit calls in flight.
// results[i] receives exactly one value, the findings for claims[i].
type reviewPool struct {
	results []chan []entity.Finding
	done    chan struct{}
}

func startReviews(ctx context.Context, reviewer Reviewer, claims []*entity.Claim, rs *entity.RuleSet, limit int) *reviewPool {
	p := &reviewPool{
		results: make([]chan []entity.Finding, len(claims)),
		done:    make(chan struct{}),
	}
	for i := range p.results {
		p.results[i] = make(chan []entity.Finding, 1)
	}
	if limit < 1 {
		limit = 1
	}

	go func() {
		defer close(p.done)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for i, claim := range claims {
			if gctx.Err() != nil {
				break
			}
			// Go blocks while limit reviews are in flight.
			g.Go(func() error {
				p.results[i] <- reviewer.Review(gctx, claim, rs)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return p
}

// await returns the findings for claim i, or ctx.Err() if ctx ends first.
func (p *reviewPool) await(ctx context.Context, i int) ([]entity.Finding, error) {
	select {
	case f := <-p.results[i]:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// wait blocks until every started review has returned.
func (p *reviewPool) wait() {
	<-p.done
}
