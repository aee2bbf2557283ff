//go:build localmodel

package localmodel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robitlab/robit/internal/providers"
)

// runnerName is the inference runner expected inside the model directory.
const runnerName = "run"

// Available reports whether local model support is compiled in.
func Available() bool { return true }

// Client drives a local model through the runner binary shipped in the
// model directory. One generation per call; no server process is kept.
type Client struct {
	modelDir    string
	runner      string
	temperature float64
	maxTokens   int
}

// New validates the model directory and returns a local client.
func New(cfg Config) (providers.Provider, error) {
	dir := strings.TrimSpace(cfg.ModelDir)
	if dir == "" {
		return nil, fmt.Errorf("local model: model dir is empty")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local model: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local model: %s is not a directory", dir)
	}
	runner := filepath.Join(dir, runnerName)
	if _, err := os.Stat(runner); err != nil {
		return nil, fmt.Errorf("local model: runner missing: %w", err)
	}
	return &Client{
		modelDir:    dir,
		runner:      runner,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (c *Client) Name() string         { return "local" }
func (c *Client) DefaultModel() string { return filepath.Base(c.modelDir) }

func (c *Client) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	args := []string{
		"--temperature", strconv.FormatFloat(c.temperature, 'f', -1, 64),
	}
	if c.maxTokens > 0 {
		args = append(args, "--max-tokens", strconv.Itoa(c.maxTokens))
	}

	var prompt strings.Builder
	for _, msg := range req.Messages {
		prompt.WriteString(msg.Role)
		prompt.WriteString(": ")
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}

	cmd := exec.CommandContext(ctx, c.runner, args...)
	cmd.Dir = c.modelDir
	cmd.Stdin = strings.NewReader(prompt.String())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("local model: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return &providers.ChatResponse{
		Content:      strings.TrimSpace(stdout.String()),
		FinishReason: "stop",
	}, nil
}
