package export

import (
	"context"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Companion is an external lighting tool run on the written files. Its
// failures are logged, never returned.
type Companion struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// Enabled reports whether a tool is configured.
func (c Companion) Enabled() bool {
	return c.Path != ""
}

// Run invokes the tool with Args followed by files and reports whether it
// exited successfully.
func (c Companion) Run(ctx context.Context, log *zap.Logger, files []string) bool {
	if log == nil {
		log = zap.NewNop()
	}
	if !c.Enabled() {
		return false
	}
	if runtime.GOOS == "js" || runtime.GOOS == "wasip1" {
		log.Warn("lighting companion is not supported on this platform", zap.String("os", runtime.GOOS))
		return false
	}

	bin, err := exec.LookPath(c.Path)
	if err != nil {
		log.Warn("lighting companion not found", zap.String("path", c.Path), zap.Error(err))
		return false
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), c.Args...), files...)
	start := time.Now()
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = time.Second
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		log.Warn("lighting companion timed out", zap.String("path", bin), zap.Duration("timeout", c.Timeout))
		return false
	}
	if err != nil {
		log.Warn("lighting companion failed",
			zap.String("path", bin),
			zap.Error(err),
			zap.ByteString("output", out))
		return false
	}

	log.Debug("lighting companion finished",
		zap.String("path", bin),
		zap.Duration("took", time.Since(start)),
		zap.ByteString("output", out))
	return true
}
