//go:build !windows

package launcher

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/creack/pty"
)

// startProcess launches cmd under a pseudo-terminal. Godot line-buffers
// stdout only when it detects a terminal; behind a plain pipe the
// readiness banner can sit in the stdio buffer indefinitely.
func startProcess(cmd *exec.Cmd) (io.ReadCloser, error) {
	return pty.Start(cmd)
}

// terminate shuts down the host process group. PTY-launched commands run
// in their own session/process group on unix, so killing -PID is scoped
// to this host only.
func terminate(cmd *exec.Cmd, grace time.Duration) error {
	if cmd == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	if p := cmd.Process; p != nil && p.Pid > 0 {
		if err := syscall.Kill(-p.Pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			_ = p.Signal(syscall.SIGTERM)
		}
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
	}

	if p := cmd.Process; p != nil && p.Pid > 0 {
		if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			_ = p.Kill()
		}
	}

	select {
	case <-done:
		return nil
	case <-time.After(1500 * time.Millisecond):
		return fmt.Errorf("timed out waiting for host to exit")
	}
}
