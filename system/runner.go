// Package system shells out to the host tools the provisioners drive
// (useradd, nginx, systemctl, promtool, certbot) behind a small
// interface so provisioning logic stays testable.
package system

import (
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"dockhand/logger"
)

type (
	Runner interface {
		// Run executes a command, discarding output on success. On
		// failure the combined output is folded into the error.
		Run(ctx context.Context, name string, args ...string) error
		// LookPath reports whether a tool is installed on this host.
		LookPath(name string) (string, error)
	}

	execRunner struct{}
)

func NewRunner() Runner {
	return &execRunner{}
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) error {
	logger.Debug("exec", zap.String("cmd", name), zap.Strings("args", args))
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(string(out)))
	}
	return nil
}

func (r *execRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
