package classify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ExecPredictor calls an external program that wraps the original model
// artifact. The program is invoked as
//
//	<binary> predict --model <modelPath>
//
// and receives one JSON line {"x":[...]} on stdin. It must print the
// predicted class as a JSON number (or a one-element array) on stdout.
type ExecPredictor struct {
	binary    string
	modelPath string
	timeout   time.Duration
}

type execSample struct {
	X []float64 `json:"x"`
}

func NewExecPredictor(binary, modelPath string, timeout time.Duration) *ExecPredictor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExecPredictor{binary: binary, modelPath: modelPath, timeout: timeout}
}

func (p *ExecPredictor) Predict(ctx context.Context, x []float64) (float64, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(execSample{X: x}); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, p.binary, "predict", "--model", p.modelPath)
	cmd.Stdin = &buf
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("predict error: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		return parsePrediction(line)
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("predict error: no output")
}

func parsePrediction(line []byte) (float64, error) {
	var v float64
	if err := json.Unmarshal(line, &v); err == nil {
		return v, nil
	}
	var arr []float64
	if err := json.Unmarshal(line, &arr); err != nil {
		return 0, fmt.Errorf("predict error: unparseable output %q", string(line))
	}
	if len(arr) == 0 {
		return 0, fmt.Errorf("predict error: empty prediction")
	}
	return arr[0], nil
}

func (p *ExecPredictor) Close() error { return nil }
