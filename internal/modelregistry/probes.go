package modelregistry

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Prober checks whether one provider is reachable and returns the status
// that reflects it. Implementations must be time-bounded internally; Probe
// additionally enforces an outer deadline via ctx.
type Prober interface {
	Provider() Provider
	Probe(ctx context.Context) (Status, error)
}

// ProbeAll runs every prober with bounded concurrency (at most maxConcurrent
// at a time) and a per-probe timeout. A failing probe downgrades that
// provider's status to error but never aborts the others and never removes
// any registry entry.
func ProbeAll(ctx context.Context, probers []Prober, maxConcurrent int, perProbeTimeout time.Duration) map[Provider]Status {
	results := make(map[Provider]Status, len(probers))
	if len(probers) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(int64(maxConcurrent))
	eg, egCtx := errgroup.WithContext(ctx)

	type outcome struct {
		provider Provider
		status   Status
	}
	out := make(chan outcome, len(probers))

	for _, p := range probers {
		p := p
		eg.Go(func() error {
			if err := sem.Acquire(egCtx, 1); err != nil {
				out <- outcome{p.Provider(), StatusError}
				return nil
			}
			defer sem.Release(1)

			probeCtx, cancel := context.WithTimeout(egCtx, perProbeTimeout)
			defer cancel()

			status, err := p.Probe(probeCtx)
			if err != nil {
				status = StatusError
			}
			out <- outcome{p.Provider(), status}
			return nil
		})
	}

	// errgroup.Go bodies never return an error here by design (probe
	// failures are data, not fatal), so Wait cannot fail.
	_ = eg.Wait()
	close(out)

	for o := range out {
		results[o.provider] = o.status
	}
	return results
}
