package finetuneworker

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/localforge/artisan/internal/finetunepool"
	"github.com/localforge/artisan/internal/store"
)

// errCancelled is returned by a training path's run function when it
// observes the job's cancellation flag mid-run.
var errCancelled = errors.New("training cancelled")

type datasetLine struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}

// writeDataset serializes a job's training examples as one JSON object per
// line, per spec.md §4.7's "write a (prompt, completion) pair into a
// JSONL" step. The file lives under datasets/<job_id>.jsonl in the shared
// store directory so both training paths can reference it by path.
func writeDataset(s *store.Store, job finetunepool.TrainingJob) (string, error) {
	path := s.Path(filepath.Join("datasets", job.ID+".jsonl"))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create dataset directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create dataset file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range job.TrainingExamples {
		if err := enc.Encode(datasetLine{Prompt: e.Prompt, Completion: e.Completion}); err != nil {
			return "", fmt.Errorf("failed to encode dataset line: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush dataset file: %w", err)
	}

	return path, nil
}

// validateDataset enforces the dataset precondition common to both training
// paths: the file exists, is non-empty, every line parses as JSON, and at
// least one line is present.
func validateDataset(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("dataset file missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("dataset file is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()

	lineCount := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if !json.Valid(line) {
			return fmt.Errorf("dataset line %d is not valid JSON", lineCount+1)
		}
		lineCount++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan dataset file: %w", err)
	}
	if lineCount == 0 {
		return fmt.Errorf("dataset has no usable lines")
	}

	return nil
}
