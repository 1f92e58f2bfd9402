package trafficlight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/Songmu/wrapcommander"
	"github.com/mattn/go-shellwords"
)

// CommandHook runs an external command on phase transitions. The phases are
// passed in TRAFFICLIGHT_PHASE_FROM and TRAFFICLIGHT_PHASE_TO.
type CommandHook struct {
	*hookRunner
	commands []string
}

func NewCommandHook(cfg *HookConfig) (*CommandHook, error) {
	cmds, err := shellwords.Parse(cfg.Command.Run)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %s %w", cfg.Command.Run, err)
	}
	if len(cmds) == 0 {
		return nil, fmt.Errorf("hook %s: no command", cfg.Name)
	}
	runner, err := newHookRunner(cfg)
	if err != nil {
		return nil, err
	}
	return &CommandHook{
		hookRunner: runner,
		commands:   cmds,
	}, nil
}

func (h *CommandHook) OnTransition(ctx context.Context, from, to Phase, at time.Time) {
	h.dispatch(ctx, to, func(ctx context.Context, logger *slog.Logger) error {
		return h.run(ctx, logger, from, to)
	})
}

func (h *CommandHook) run(ctx context.Context, logger *slog.Logger, from, to Phase) error {
	logger = logger.With(
		"module", "commandhook",
		"commands", fmt.Sprintf("%v", h.commands),
	)
	logger.Debug("executing command")
	var cmd *exec.Cmd
	switch len(h.commands) {
	case 0:
		return errors.New("no command")
	case 1:
		cmd = exec.CommandContext(ctx, h.commands[0])
	default:
		cmd = exec.CommandContext(ctx, h.commands[0], h.commands[1:]...)
	}
	cmd.Env = append(cmd.Env, os.Environ()...)
	cmd.Env = append(cmd.Env,
		"TRAFFICLIGHT_PHASE_FROM="+from.String(),
		"TRAFFICLIGHT_PHASE_TO="+to.String(),
	)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 3 * time.Second
	out, err := cmd.CombinedOutput()
	if err != nil {
		logger.Debug("command output", slog.String("output", string(out)))
		return fmt.Errorf("command failed with exit code %d: %w", wrapcommander.ResolveExitCode(err), err)
	}
	logger.Debug("command succeeded",
		slog.Int("exit_code", wrapcommander.ResolveExitCode(err)),
		slog.String("output", string(out)),
	)
	return nil
}
