// Package vram implements C5's VRAMUnloader collaborator: it evicts a
// just-used local model from GPU memory unless that model is in the
// configured persistent set, per spec.md §5's shared-resource model.
package vram

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaUnloader asks a local Ollama daemon to drop a model from memory.
// Non-Ollama model IDs (no "ollama:" prefix) are silently ignored — cloud
// models have no local VRAM footprint to release.
type OllamaUnloader struct {
	client  ollamaClient
	timeout time.Duration
	logger  *zap.Logger
}

type ollamaClient interface {
	Unload(ctx context.Context, model string) error
}

// New constructs an OllamaUnloader. logger may be nil.
func New(client ollamaClient, logger *zap.Logger) *OllamaUnloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OllamaUnloader{client: client, timeout: 10 * time.Second, logger: logger}
}

// Unload implements orchestrator.VRAMUnloader. It is best-effort: a
// failure is logged and also returned, and the orchestrator only logs it,
// since the generation call it follows has already completed.
func (u *OllamaUnloader) Unload(modelID string) error {
	provider, bare, ok := strings.Cut(modelID, ":")
	if !ok || provider != "ollama" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()

	if err := u.client.Unload(ctx, bare); err != nil {
		u.logger.Warn("vram unload failed", zap.String("model", modelID), zap.Error(err))
		return err
	}
	return nil
}
