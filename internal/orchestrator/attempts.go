package orchestrator

import (
	"context"
	"time"

	"github.com/localforge/artisan/internal/artifacttype"
	"github.com/localforge/artisan/internal/modelregistry"
	"github.com/localforge/artisan/internal/providers"
)

// callAndValidate performs one provider call against modelID, then scores
// the result with C4. A failed call or validation is recorded in the
// returned Attempt's Errors field and its error is also returned as
// callErr, so the caller can inspect a *providers.CallError to decide
// whether to retry.
func (o *Orchestrator) callAndValidate(
	ctx context.Context,
	driver providers.Driver,
	modelID string,
	provider modelregistry.Provider,
	typ artifacttype.Type,
	systemPrompt, userPrompt string,
	callOpts providers.CallOptions,
	timeout time.Duration,
	retryIndex int,
	threshold int,
) (attempt Attempt, isValid bool, callErr error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, name := modelregistry.SplitModelID(modelID)

	start := time.Now()
	result, err := driver.Complete(callCtx, name, systemPrompt, userPrompt, callOpts)
	duration := time.Since(start)

	attempt = Attempt{
		Model:      modelID,
		Provider:   string(provider),
		RetryIndex: retryIndex,
		Duration:   duration,
	}

	if err != nil {
		attempt.Errors = []string{err.Error()}
		return attempt, false, err
	}

	valResult, valErr := o.validation.ValidateWithThreshold(typ.Name, result.Content, threshold)
	if valErr != nil {
		attempt.Errors = []string{valErr.Error()}
		return attempt, false, valErr
	}

	attempt.Content = result.Content
	attempt.Score = valResult.Score
	attempt.Errors = valResult.Errors
	return attempt, valResult.IsValid, nil
}

// recordProviderStat tallies one call attempt into stats, keyed by provider
// name, incrementing RateLimited on a 429 classification per spec.md §5.
func recordProviderStat(stats map[string]ProviderCallStats, provider string, callErr error) {
	s := stats[provider]
	s.Attempts++
	if callErr != nil {
		s.Errors++
		if providers.IsRateLimited(callErr) {
			s.RateLimited++
		}
	}
	stats[provider] = s
}

// trackBest updates best with attempt if attempt scored strictly higher.
// Ties keep the earliest attempt, matching spec.md §8's ordering guarantee.
func trackBest(best *Attempt, candidate Attempt) *Attempt {
	if candidate.Content == "" {
		return best
	}
	if best == nil || candidate.Score > best.Score {
		c := candidate
		return &c
	}
	return best
}

