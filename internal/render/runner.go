package render

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// maxLoggedStderr caps how much of a failing command's stderr reaches the log.
const maxLoggedStderr = 8 << 10

// Runner executes an external rasterizer; tests substitute a fake that writes
// page files itself.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	err := cmd.Run()
	attrs := []any{
		"cmd", name,
		"args", strings.Join(args, " "),
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if err != nil {
		r.logger.Error("render.exec.failed", append(attrs,
			"error", err,
			"stderr", stderrTail(stderr.Bytes()),
		)...)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	r.logger.Debug("render.exec.ok", attrs...)
	return stdout.Bytes(), stderr.Bytes(), nil
}

// stderrTail keeps the end of the output, where pdftoppm reports the fatal error.
func stderrTail(b []byte) string {
	if len(b) <= maxLoggedStderr {
		return string(b)
	}
	return "...(truncated)" + string(b[len(b)-maxLoggedStderr:])
}
