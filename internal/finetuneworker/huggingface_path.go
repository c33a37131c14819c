package finetuneworker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/localforge/artisan/internal/config"
	"github.com/localforge/artisan/internal/finetunepool"
)

// hfTrainingScriptEnv names the environment variable pointing at the
// external LoRA/QLoRA training entrypoint; like OLLAMA_BASE_URL this is a
// piece of opt-in local infrastructure the worker assumes is on PATH by
// default.
const hfTrainingScriptEnv = "ARTISAN_HF_TRAIN_SCRIPT"

const defaultHFTrainingScript = "artisan-train-lora"

// loraConfig mirrors the fixed hyperparameters spec.md §4.7 requires for
// the HuggingFace path: 4-bit quantization, gradient checkpointing, LoRA
// on the attention projections at rank 16, batch size 1 with gradient
// accumulation 8, 3% warmup, cosine decay, and a paged 8-bit optimizer.
type loraConfig struct {
	BaseModel            string   `json:"base_model"`
	DatasetPath          string   `json:"dataset_path"`
	OutputDir            string   `json:"output_dir"`
	Load4Bit             bool     `json:"load_in_4bit"`
	GradientCheckpointing bool    `json:"gradient_checkpointing"`
	LoRARank             int      `json:"lora_rank"`
	LoRATargetModules    []string `json:"lora_target_modules"`
	BatchSize            int      `json:"batch_size"`
	GradientAccumulation int      `json:"gradient_accumulation_steps"`
	WarmupRatio          float64  `json:"warmup_ratio"`
	LRSchedule           string   `json:"lr_scheduler_type"`
	Optimizer            string   `json:"optimizer"`
}

func newLoRAConfig(job finetunepool.TrainingJob, datasetPath, outputDir string, hf config.HFTrainingConfig) loraConfig {
	rank := hf.LoRARank
	if rank <= 0 {
		rank = 16
	}
	gradAccum := hf.GradientAccumulation
	if gradAccum <= 0 {
		gradAccum = 8
	}

	return loraConfig{
		BaseModel:             job.BaseModel,
		DatasetPath:           datasetPath,
		OutputDir:             outputDir,
		Load4Bit:              true,
		GradientCheckpointing: true,
		LoRARank:              rank,
		LoRATargetModules:     []string{"q_proj", "v_proj", "k_proj", "o_proj"},
		BatchSize:             1,
		GradientAccumulation:  gradAccum,
		WarmupRatio:           0.03,
		LRSchedule:            "cosine",
		Optimizer:             "paged_adamw_8bit",
	}
}

// runHuggingFacePath implements spec.md §4.7's LoRA/QLoRA path: it shells
// out to an external training script (CUDA + bitsandbytes + peft are not
// something a Go process links directly) with a config file describing
// the fixed hyperparameters, and reports an out-of-memory condition with a
// clear, specific error rather than a bare subprocess failure.
func runHuggingFacePath(ctx context.Context, job finetunepool.TrainingJob, datasetPath string, hf config.HFTrainingConfig, cancelled func() bool) (string, error) {
	if cancelled() {
		return "", errCancelled
	}

	outputDir := filepath.Join(filepath.Dir(datasetPath), "..", "hf-output", job.ID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create hf output directory: %w", err)
	}

	cfg := newLoRAConfig(job, datasetPath, outputDir, hf)
	cfgPath := filepath.Join(outputDir, "train_config.json")
	cfgBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal lora config: %w", err)
	}
	if err := os.WriteFile(cfgPath, cfgBytes, 0o644); err != nil {
		return "", fmt.Errorf("failed to write lora config: %w", err)
	}

	script := os.Getenv(hfTrainingScriptEnv)
	if script == "" {
		script = defaultHFTrainingScript
	}

	if cancelled() {
		return "", errCancelled
	}

	cmd := exec.CommandContext(ctx, script, "--config", cfgPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		return "", errCancelled
	}

	combined := stderr.String()
	if runErr != nil {
		if isOOMError(combined) {
			return "", fmt.Errorf("out of GPU memory during training after %s: %s", elapsed.Round(time.Second), extractOOMDetail(combined))
		}
		return "", fmt.Errorf("huggingface training script failed: %w: %s", runErr, strings.TrimSpace(combined))
	}

	fineTunedModel := strings.TrimSpace(stdout.String())
	if fineTunedModel == "" {
		fineTunedModel = fmt.Sprintf("%s_%s_ft_%d", job.ArtifactType, sanitizeModelName(job.BaseModel), time.Now().Unix())
	}
	return fineTunedModel, nil
}

func isOOMError(stderr string) bool {
	lower := strings.ToLower(stderr)
	return strings.Contains(lower, "out of memory") || strings.Contains(lower, "cuda oom") || strings.Contains(lower, "cublas_status_alloc_failed")
}

func extractOOMDetail(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "memory") {
			return strings.TrimSpace(line)
		}
	}
	return "no further detail in training script output"
}
