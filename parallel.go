package lexdfa

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alecthomas/lexdfa/dfa"
)

// CompileAll compiles independent pattern sets concurrently, one DFA per set.
//
// Each build is self-contained; the first error cancels builds that have not
// started yet and is returned.
func CompileAll(ctx context.Context, sets [][]Pattern, options ...Option) ([]*dfa.DFA, error) {
	out := make([]*dfa.DFA, len(sets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, patterns := range sets {
		i, patterns := i, patterns
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := Compile(patterns, options...)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
