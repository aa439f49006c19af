package classifier

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Failure taxonomy of a predictor invocation. All three surface as the same
// severity at the HTTP layer but carry different operator-facing messages.
var (
	// ErrInvocation covers process-level failures: missing interpreter,
	// non-zero exit, timeout.
	ErrInvocation = errors.New("prediction script execution failed")
	// ErrUnusableOutput covers empty or unparseable predictor output.
	ErrUnusableOutput = errors.New("prediction script returned unusable output")
	// ErrPrediction covers semantic failures the predictor reports itself
	// through an "error" field in its structured output.
	ErrPrediction = errors.New("prediction failed")
)

// Result is the structured output contract of the external predictor:
// exactly one JSON line on stdout.
type Result struct {
	PredictedClass string   `json:"predicted_class"`
	Confidence     float64  `json:"confidence"`
	Handling       []string `json:"handling"`
	Error          string   `json:"error,omitempty"`
}

type Config struct {
	// Interpreter runs the predictor script, e.g. "python3".
	Interpreter string
	// InterpreterArgs are passed before the script path, e.g. ["-u"].
	InterpreterArgs []string
	// ScriptPath locates the predictor script.
	ScriptPath string
	// Timeout bounds a single invocation; zero means DefaultTimeout.
	Timeout time.Duration
}

// Invoker runs the external predictor process with an image path and parses
// its structured output. The predictor itself is a black box.
type Invoker struct {
	config Config
}

func NewInvoker(config Config) (*Invoker, error) {
	if config.Interpreter == "" {
		return nil, fmt.Errorf("classifier interpreter is not set")
	}
	if config.ScriptPath == "" {
		return nil, fmt.Errorf("classifier script path is not set")
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Invoker{config: config}, nil
}

// Invoke runs the predictor with imagePath as its positional argument and
// blocks until it finishes, fails or the timeout elapses. Cancelling ctx
// kills the process.
func (i *Invoker) Invoke(ctx context.Context, imagePath string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, i.config.Timeout)
	defer cancel()

	args := append(append([]string{}, i.config.InterpreterArgs...), i.config.ScriptPath, imagePath)
	cmd := exec.CommandContext(ctx, i.config.Interpreter, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// A killed predictor can leave children holding the output pipes; don't
	// let them delay Wait past the deadline.
	cmd.WaitDelay = time.Second

	start := time.Now()
	slog.Info("invoking prediction script",
		"interpreter", i.config.Interpreter,
		"script", i.config.ScriptPath,
		"image_path", imagePath)

	err := cmd.Run()
	duration := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			slog.Error("prediction script timed out",
				"timeout", i.config.Timeout, "duration_ms", duration.Milliseconds())
			return nil, fmt.Errorf("%w: timed out after %s", ErrInvocation, i.config.Timeout)
		}
		// The predictor may have written a structured error to stderr
		// before dying; prefer that over the raw exec error.
		if message := structuredError(stderr.Bytes()); message != "" {
			slog.Error("prediction script failed with structured error",
				"error", message, "duration_ms", duration.Milliseconds())
			return nil, fmt.Errorf("%w: %s", ErrInvocation, message)
		}
		slog.Error("prediction script failed",
			"error", err, "stderr", strings.TrimSpace(stderr.String()),
			"duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("%w: %v", ErrInvocation, err)
	}

	line := firstLine(stdout.Bytes())
	if line == "" {
		slog.Error("prediction script returned no output", "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("%w: no output", ErrUnusableOutput)
	}

	var result Result
	if err := json.Unmarshal([]byte(line), &result); err != nil {
		slog.Error("failed to parse prediction output",
			"error", err, "output", line, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("%w: %v", ErrUnusableOutput, err)
	}

	if result.Error != "" {
		slog.Error("prediction script reported an error",
			"error", result.Error, "duration_ms", duration.Milliseconds())
		return nil, fmt.Errorf("%w: %s", ErrPrediction, result.Error)
	}

	slog.Info("prediction script completed",
		"predicted_class", result.PredictedClass,
		"confidence", result.Confidence,
		"duration_ms", duration.Milliseconds())
	return &result, nil
}

// structuredError scans the predictor's stderr for a JSON object carrying an
// "error" field and returns its text, or "" when none is found.
func structuredError(stderr []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(stderr))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(line), &payload); err == nil && payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}

func firstLine(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			return line
		}
	}
	return ""
}
