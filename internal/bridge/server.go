// Package bridge is the in-process debug server: a background I/O worker
// owning the loopback listener, and a main-thread tick that dispatches
// commands against the live scene graph. The two sides share only the two
// queues and the read-only session config.
package bridge

import (
	"crypto/rand"
	"io"
	"log"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/diag"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/engine"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

// Config is the session identity, fixed for the lifetime of the process.
type Config struct {
	// Token is the shared secret. Generated when empty.
	Token string
	// Port to bind on loopback; 0 lets the kernel choose.
	Port int
	// Tier is the session's capability ceiling.
	Tier registry.Tier
	// DangerEnabled is the second gate for eval.
	DangerEnabled bool
	// InputMode routes injected input.
	InputMode engine.InputMode
	// ReadyFile, when set, receives a copy of the banner JSON for hosts
	// launched without a captured stdout.
	ReadyFile string
	// ForceWindowed switches the host to windowed presentation at startup.
	ForceWindowed bool

	// Banner is where the readiness line is written. Defaults to stdout.
	Banner io.Writer
	// Logger receives bridge-internal log output. Defaults to stderr.
	Logger *log.Logger
}

// Bridge is one activated debug-server session.
type Bridge struct {
	cfg    Config
	eng    engine.Engine
	sink   *diag.Sink
	logger *log.Logger

	in  requestQueue
	out responseQueue

	stop       atomic.Bool
	workerDone chan struct{}
	ready      chan struct{}
	boundPort  int
	bindErr    error

	// Main-thread state. Touched only from Tick.
	waits           []*pendingWait
	deferredRelease *releaseSlot
	padReleases     []padRelease
	pendingQuit     bool
}

// FeatureTags is the set of build-feature tags the host binary was
// compiled with. Shipped retail builds carry none of the activating tags.
type FeatureTags []string

// HasAny reports whether any of names is present.
func (f FeatureTags) HasAny(names ...string) bool {
	for _, tag := range f {
		for _, name := range names {
			if tag == name {
				return true
			}
		}
	}
	return false
}

// Activate evaluates the two-factor activation gate and, when both factors
// hold, starts the bridge. It returns nil when the gate fails: no
// threads, no port, no banner. The gates are independent on purpose: the
// feature tag keeps shipped binaries inert, the environment keeps
// development binaries from starting unintentionally.
func Activate(eng engine.Engine, features FeatureTags, logger *log.Logger) *Bridge {
	if !features.HasAny("grb", "debug", "editor") {
		return nil
	}
	cfg, ok := configFromEnv(os.Getenv)
	if !ok {
		return nil
	}
	cfg.Logger = logger
	b := New(eng, cfg)
	b.Start()
	return b
}

// New creates a bridge without starting it. Fills config defaults and
// generates a token if none was supplied.
func New(eng engine.Engine, cfg Config) *Bridge {
	if cfg.Token == "" {
		cfg.Token = generateToken()
	}
	if cfg.InputMode == "" {
		cfg.InputMode = engine.ModeSynthetic
	}
	if cfg.Banner == nil {
		cfg.Banner = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[GDRB] ", log.LstdFlags)
	}
	return &Bridge{
		cfg:        cfg,
		eng:        eng,
		sink:       diag.NewSink(),
		logger:     cfg.Logger,
		workerDone: make(chan struct{}),
		ready:      make(chan struct{}),
	}
}

// Start wires the bridge into the host and launches the I/O worker. The
// worker binds, prints the readiness banner and enters its
// accept/read/write loop; bind failure is reported through WaitReady.
func (b *Bridge) Start() {
	// Automation needs full frame rate even when the window is unfocused.
	b.eng.SetLowProcessorMode(false)
	if b.cfg.ForceWindowed {
		b.eng.SetWindowed(true)
	}
	if b.cfg.InputMode == engine.ModeSynthetic {
		b.eng.SetInputIntercept(true)
	}
	b.eng.AttachLogSink(b.sink)
	go b.run()
}

// WaitReady blocks until the listener is bound or the worker exited,
// returning the resolved port.
func (b *Bridge) WaitReady(timeout time.Duration) (int, error) {
	select {
	case <-b.ready:
		return b.boundPort, nil
	case <-b.workerDone:
		return 0, b.bindErr
	case <-time.After(timeout):
		return 0, errTimeout
	}
}

// Token returns the session secret.
func (b *Bridge) Token() string {
	return b.cfg.Token
}

// Sink returns the diagnostic sink, for hosts that feed it directly.
func (b *Bridge) Sink() *diag.Sink {
	return b.sink
}

// Tick runs the main-thread frame work: honor a deferred quit, inject the
// deferred mouse release, release due gamepad buttons, poll pending waits,
// then drain and dispatch the inbound queue.
func (b *Bridge) Tick() {
	if b.pendingQuit {
		b.pendingQuit = false
		b.eng.RequestQuit()
	}
	b.applyDeferredRelease()
	b.applyPadReleases()
	b.pollWaits()
	for _, p := range b.in.drain() {
		b.dispatch(p)
	}
}

// Shutdown stops the I/O worker and detaches the log sink. Called on host
// exit; pending responses are discarded.
func (b *Bridge) Shutdown() {
	if b.stop.Swap(true) {
		return
	}
	<-b.workerDone
	b.eng.DetachLogSink()
	b.logger.Printf("bridge stopped")
}

func (b *Bridge) respondOK(id string, data map[string]any) {
	b.out.push(types.EmitOK(id, data))
}

func (b *Bridge) respondError(id string, e *types.Error) {
	b.out.push(types.EmitError(id, e))
}

// configFromEnv reads the environment half of the activation gate. Returns
// ok=false when neither a token nor the legacy flag is present.
func configFromEnv(getenv func(string) string) (Config, bool) {
	token := getenv("GDRB_TOKEN")
	if token == "" && getenv("GODOT_DEBUG_SERVER") != "1" {
		return Config{}, false
	}

	cfg := Config{Token: token}
	if port, err := strconv.Atoi(getenv("GDRB_PORT")); err == nil && port > 0 && port < 1<<16 {
		cfg.Port = port
	}
	cfg.Tier = registry.TierInput
	if tier, err := strconv.Atoi(getenv("GDRB_TIER")); err == nil {
		cfg.Tier = registry.ClampTier(tier)
	}
	cfg.DangerEnabled = getenv("GDRB_ENABLE_DANGER") == "1"
	cfg.InputMode = engine.ModeSynthetic
	if getenv("GDRB_INPUT_MODE") == "os" {
		cfg.InputMode = engine.ModeOS
	}
	cfg.ReadyFile = getenv("GDRB_READY_FILE")
	cfg.ForceWindowed = getenv("GDRB_FORCE_WINDOWED") == "1"
	return cfg, true
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// generateToken returns 24 random characters from a 62-symbol alphabet,
// ~142 bits of entropy.
func generateToken() string {
	buf := make([]byte, 24)
	rand.Read(buf)
	for i, c := range buf {
		buf[i] = tokenAlphabet[int(c)%len(tokenAlphabet)]
	}
	return string(buf)
}
