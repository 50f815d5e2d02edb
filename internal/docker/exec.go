package docker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
)

const (
	// execPollInterval is the fixed delay between exec state checks.
	execPollInterval = 200 * time.Millisecond

	// execDeadline bounds how long a single detached exec may run before
	// it is reported as timed out.
	execDeadline = 30 * time.Second
)

// ErrExecStart marks a command that could not even be started inside the
// container, typically because the binary does not exist in the image.
var ErrExecStart = errors.New("exec failed to start")

// ErrExecTimeout marks a command that did not finish within the deadline.
var ErrExecTimeout = errors.New("exec timed out")

// ExitError reports a command that ran to completion with a non-zero code.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exec exited with code %d", e.Code)
}

// RunDetached runs cmd inside the container as root, detached from any
// stream, and polls the exec state until it finishes. It returns nil on a
// zero exit code, ErrExecStart when the command could not start, ErrExecTimeout
// when the deadline passes, and an ExitError otherwise.
func (c *Client) RunDetached(ctx context.Context, containerID string, cmd []string) error {
	if len(cmd) == 0 {
		return fmt.Errorf("empty exec command for container %s", containerID)
	}

	resp, err := c.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		User:   "root",
		Cmd:    cmd,
		Detach: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", ErrExecStart, err)
	}

	if err := c.cli.ContainerExecStart(ctx, resp.ID, container.ExecStartOptions{Detach: true}); err != nil {
		return fmt.Errorf("%w: %s", ErrExecStart, err)
	}

	deadline := time.After(execDeadline)
	for {
		inspect, err := c.cli.ContainerExecInspect(ctx, resp.ID)
		if err != nil {
			return fmt.Errorf("failed to inspect exec %s: %w", resp.ID, err)
		}
		if !inspect.Running {
			if inspect.ExitCode != 0 {
				return &ExitError{Code: inspect.ExitCode}
			}
			return nil
		}

		select {
		case <-time.After(execPollInterval):
		case <-deadline:
			return fmt.Errorf("%w after %s", ErrExecTimeout, execDeadline)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
