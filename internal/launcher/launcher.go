// Package launcher spawns a bridge-enabled host process, assembles its
// GDRB_* environment, and discovers the readiness banner: from stdout
// when it can be captured (under a pty on unix so the host's stdio stays
// line-buffered), or through the ready-file side channel otherwise.
package launcher

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/bridgeclient"
)

const defaultStartupTimeout = 30 * time.Second

// Options configure one host launch.
type Options struct {
	// Command is the host binary and its arguments.
	Command []string
	// Dir is the working directory; empty inherits the launcher's.
	Dir string
	// Token pins the shared secret. Empty lets the host generate one via
	// the legacy activation flag.
	Token string
	// Port pins the loopback port; 0 lets the kernel choose.
	Port int
	// Tier is the session capability ceiling (0..3).
	Tier int
	// DangerEnabled permits eval on the host.
	DangerEnabled bool
	// InputMode is "os" or "" for synthetic.
	InputMode string
	// ForceWindowed asks the host for windowed presentation.
	ForceWindowed bool
	// ReadyFile, when set, is passed to the host and watched for the
	// banner instead of stdout. Use for hosts whose stdout cannot be
	// captured.
	ReadyFile string
	// StartupTimeout bounds the wait for the banner.
	StartupTimeout time.Duration
	// Logger receives launch progress and host output. Defaults to
	// stderr.
	Logger *log.Logger
}

// Host is a running bridge-enabled process with its parsed banner.
type Host struct {
	Banner *bridgeclient.Banner

	cmd    *exec.Cmd
	stdout io.ReadCloser
	logger *log.Logger
	done   chan struct{}
}

// Launch starts the host and blocks until the readiness banner is parsed
// or the startup timeout elapses. On timeout the process is killed.
func Launch(opts Options) (*Host, error) {
	if len(opts.Command) == 0 {
		return nil, fmt.Errorf("launcher: command is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr, "[launcher] ", log.LstdFlags)
	}
	if opts.StartupTimeout <= 0 {
		opts.StartupTimeout = defaultStartupTimeout
	}

	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), bridgeEnv(opts)...)

	stdout, err := startProcess(cmd)
	if err != nil {
		return nil, fmt.Errorf("launcher: start %s: %w", opts.Command[0], err)
	}

	h := &Host{
		cmd:    cmd,
		stdout: stdout,
		logger: opts.Logger,
		done:   make(chan struct{}),
	}

	var banner *bridgeclient.Banner
	if opts.ReadyFile != "" {
		go h.drainStdout(nil)
		banner, err = watchReadyFile(opts.ReadyFile, opts.StartupTimeout)
	} else {
		banner, err = h.scanBanner(opts.StartupTimeout)
	}
	if err != nil {
		h.Close()
		return nil, err
	}

	h.Banner = banner
	opts.Logger.Printf("host ready: pid=%d port=%d tier=%d input_mode=%s",
		cmd.Process.Pid, banner.Port, banner.TierDefault, banner.InputMode)
	return h, nil
}

// bridgeEnv builds the GDRB_* variables for the activation gate.
func bridgeEnv(opts Options) []string {
	var env []string
	if opts.Token != "" {
		env = append(env, "GDRB_TOKEN="+opts.Token)
	} else {
		env = append(env, "GODOT_DEBUG_SERVER=1")
	}
	if opts.Port > 0 {
		env = append(env, "GDRB_PORT="+strconv.Itoa(opts.Port))
	}
	env = append(env, "GDRB_TIER="+strconv.Itoa(opts.Tier))
	if opts.DangerEnabled {
		env = append(env, "GDRB_ENABLE_DANGER=1")
	}
	if opts.InputMode != "" {
		env = append(env, "GDRB_INPUT_MODE="+opts.InputMode)
	}
	if opts.ReadyFile != "" {
		env = append(env, "GDRB_READY_FILE="+opts.ReadyFile)
	}
	if opts.ForceWindowed {
		env = append(env, "GDRB_FORCE_WINDOWED=1")
	}
	return env
}

// scanBanner reads host stdout line by line until the readiness banner
// appears. Engine chatter before the banner is forwarded to the logger;
// everything after keeps draining in the background so the host never
// blocks on a full pty buffer.
func (h *Host) scanBanner(timeout time.Duration) (*bridgeclient.Banner, error) {
	type result struct {
		banner *bridgeclient.Banner
		err    error
	}
	found := make(chan result, 1)

	go func() {
		scanner := bufio.NewScanner(h.stdout)
		for scanner.Scan() {
			line := scanner.Text()
			banner, err := bridgeclient.ParseBanner(line)
			if err != nil {
				h.logger.Printf("host: %s", line)
				continue
			}
			found <- result{banner: banner}
			h.drainStdout(scanner)
			return
		}
		found <- result{err: fmt.Errorf("launcher: host exited before readiness banner")}
	}()

	select {
	case r := <-found:
		return r.banner, r.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("launcher: no readiness banner within %v", timeout)
	}
}

// drainStdout forwards remaining host output to the logger until the
// process exits.
func (h *Host) drainStdout(scanner *bufio.Scanner) {
	if scanner == nil {
		scanner = bufio.NewScanner(h.stdout)
	}
	for scanner.Scan() {
		h.logger.Printf("host: %s", scanner.Text())
	}
}

// Wait blocks until the host process exits.
func (h *Host) Wait() error {
	return h.cmd.Wait()
}

// Close kills the host process and reaps it.
func (h *Host) Close() {
	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}

	h.stdout.Close()
	if err := terminate(h.cmd, 2*time.Second); err != nil {
		h.logger.Printf("host shutdown: %v", err)
	}
}
