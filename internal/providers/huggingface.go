package providers

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// HuggingFaceClient probes for a locally-cached model snapshot directory
// and, when present, shells out to a local inference script for a
// best-effort completion. It follows the shape of the teacher's
// CLI-subprocess clients (ClaudeCodeCLIClient/CodexCLIClient): a provider
// that wraps a subprocess instead of doing plain HTTPS, since HuggingFace
// models run in-process or via a local runtime rather than over the
// network.
type HuggingFaceClient struct {
	cacheDir       string
	inferenceScript string // path to a local inference entrypoint, e.g. a Python script
}

// NewHuggingFaceClient builds a client rooted at cacheDir (typically
// ~/.cache/huggingface/hub).
func NewHuggingFaceClient(cacheDir, inferenceScript string) *HuggingFaceClient {
	return &HuggingFaceClient{cacheDir: cacheDir, inferenceScript: inferenceScript}
}

// Name implements Driver.
func (c *HuggingFaceClient) Name() string { return "huggingface" }

// snapshotDirName mirrors HuggingFace Hub's cache layout:
// models--<org>--<name>.
func snapshotDirName(repoID string) string {
	return "models--" + strings.ReplaceAll(repoID, "/", "--")
}

// HasLocalSnapshot reports whether repoID has a cached snapshot directory,
// used by C3's model-status probe.
func (c *HuggingFaceClient) HasLocalSnapshot(repoID string) bool {
	path := filepath.Join(c.cacheDir, snapshotDirName(repoID))
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Complete shells out to the configured inference script, passing the
// prompt over stdin and reading the completion from stdout. If no
// inference script is configured, it returns a terminal (non-retriable)
// error: HuggingFace local inference is opt-in infrastructure, not assumed
// present.
func (c *HuggingFaceClient) Complete(ctx context.Context, model, systemMessage, prompt string, opts CallOptions) (CallResult, error) {
	if c.inferenceScript == "" {
		return CallResult{}, &CallError{Err: fmt.Errorf("no huggingface inference script configured"), Retriable: false}
	}
	if !c.HasLocalSnapshot(model) {
		return CallResult{}, &CallError{Err: fmt.Errorf("no local snapshot for %s", model), Retriable: false}
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, c.inferenceScript, "--model", model, "--temperature", fmt.Sprintf("%f", opts.Temperature))
	var stdin bytes.Buffer
	if systemMessage != "" {
		stdin.WriteString(systemMessage)
		stdin.WriteString("\n---\n")
	}
	stdin.WriteString(prompt)
	cmd.Stdin = &stdin

	out, err := cmd.Output()
	if err != nil {
		return CallResult{}, classifyTransportError(fmt.Errorf("huggingface inference failed: %w", err))
	}

	return CallResult{
		Content:  strings.TrimSpace(string(out)),
		Duration: time.Since(start),
	}, nil
}
