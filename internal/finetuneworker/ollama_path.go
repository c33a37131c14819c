package finetuneworker

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/localforge/artisan/internal/finetunepool"
	"github.com/localforge/artisan/internal/providers"
)

// topKExamplesEmbedded caps how many training examples get folded into the
// Modelfile's system message; more than this just bloats the prompt
// without materially changing the model's behavior.
const topKExamplesEmbedded = 20

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sanitizeModelName replaces anything Ollama's model-name grammar doesn't
// accept with an underscore.
func sanitizeModelName(name string) string {
	return strings.Trim(nonAlphanumeric.ReplaceAllString(name, "_"), "_")
}

// runOllamaPath implements spec.md §4.7's CPU-friendly default path: the
// training examples are embedded directly into a Modelfile system prompt
// rather than run through a gradient-based fine-tune, and Ollama's own
// `create` endpoint bakes that into a named model.
func runOllamaPath(ctx context.Context, job finetunepool.TrainingJob, client *providers.OllamaClient, cancelled func() bool) (string, error) {
	if cancelled() {
		return "", errCancelled
	}

	modelfile := buildModelfile(job)
	modelName := fmt.Sprintf("%s_%s_ft_%d", job.ArtifactType, sanitizeModelName(job.BaseModel), time.Now().Unix())

	if cancelled() {
		return "", errCancelled
	}

	if err := client.Create(ctx, modelName, modelfile); err != nil {
		return "", fmt.Errorf("ollama create failed: %w", err)
	}

	return modelName, nil
}

// buildModelfile assembles a Modelfile built FROM the base model whose
// system message carries the last topKExamplesEmbedded few-shot examples,
// and a handful of decoding parameters tuned for consistent artifact
// generation.
func buildModelfile(job finetunepool.TrainingJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM %s\n\n", job.BaseModel)
	fmt.Fprintf(&b, "PARAMETER temperature 0.2\n")
	fmt.Fprintf(&b, "PARAMETER num_ctx 8192\n\n")

	b.WriteString("SYSTEM \"\"\"\n")
	fmt.Fprintf(&b, "You generate %s artifacts. Study the following examples of high-quality output before responding to new requests.\n\n", job.ArtifactType)

	examples := job.TrainingExamples
	if len(examples) > topKExamplesEmbedded {
		examples = examples[len(examples)-topKExamplesEmbedded:]
	}
	for i, e := range examples {
		fmt.Fprintf(&b, "Example %d:\nRequest: %s\nResponse: %s\n\n", i+1, truncateForPrompt(e.Prompt, 500), truncateForPrompt(e.Completion, 1500))
	}
	b.WriteString("\"\"\"\n")

	return b.String()
}

func truncateForPrompt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
