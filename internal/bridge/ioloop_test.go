package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/enginesim"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/registry"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

// startTestServer runs a full bridge with its I/O worker and a background
// frame loop, returning the bound port and the banner line.
func startTestServer(t *testing.T, cfg Config) (*Bridge, *enginesim.Sim, int, string) {
	t.Helper()
	sim := enginesim.New()
	buildScene(sim)

	var bannerBuf bytes.Buffer
	if cfg.Token == "" {
		cfg.Token = testToken
	}
	cfg.Banner = &bannerBuf
	cfg.Logger = discardLogger()
	b := New(sim, cfg)
	b.Start()

	port, err := b.WaitReady(5 * time.Second)
	if err != nil {
		t.Fatalf("server not ready: %v", err)
	}

	var stopped atomic.Bool
	go func() {
		for !stopped.Load() {
			b.Tick()
			sim.Step()
			time.Sleep(2 * time.Millisecond)
		}
	}()
	t.Cleanup(func() {
		stopped.Store(true)
		b.Shutdown()
	})

	return b, sim, port, strings.TrimSpace(bannerBuf.String())
}

func dialBridge(t *testing.T, port int) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendLine(t *testing.T, conn net.Conn, line string) {
	t.Helper()
	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readLine(t *testing.T, conn net.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(line, &env); err != nil {
		t.Fatalf("response not JSON: %v (%q)", err, line)
	}
	return env
}

func TestServer_BannerShape(t *testing.T) {
	_, _, port, banner := startTestServer(t, defaultConfig(registry.TierInput))

	if !strings.HasPrefix(banner, bannerPrefix) {
		t.Fatalf("banner prefix: %q", banner)
	}
	var payload struct {
		Proto       string `json:"proto"`
		Port        int    `json:"port"`
		Token       string `json:"token"`
		TierDefault int    `json:"tier_default"`
		InputMode   string `json:"input_mode"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(banner, bannerPrefix)), &payload); err != nil {
		t.Fatalf("banner payload: %v", err)
	}
	if payload.Proto != types.Proto || payload.Port != port ||
		payload.Token != testToken || payload.TierDefault != 1 || payload.InputMode != "synthetic" {
		t.Fatalf("banner content: %+v", payload)
	}
}

func TestServer_PingOverSocket(t *testing.T) {
	_, _, port, _ := startTestServer(t, defaultConfig(registry.TierInput))
	conn := dialBridge(t, port)

	sendLine(t, conn, `{"id":"a","cmd":"ping"}`)
	env := readLine(t, conn)
	if env["id"] != "a" || env["pong"] != true {
		t.Fatalf("ping over socket: %v", env)
	}
}

func TestServer_MalformedLineThenLive(t *testing.T) {
	_, _, port, _ := startTestServer(t, defaultConfig(registry.TierInput))
	conn := dialBridge(t, port)
	reader := bufio.NewReader(conn)

	read := func() map[string]any {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var env map[string]any
		json.Unmarshal(line, &env)
		return env
	}

	sendLine(t, conn, reqLine("d", "does_not_exist", testToken, nil))
	env := read()
	if errCode(t, env) != types.ErrUnknownCmd {
		t.Fatalf("unknown command: %v", env)
	}

	sendLine(t, conn, "not json")
	env = read()
	if env["id"] != "" || errCode(t, env) != types.ErrBadJSON {
		t.Fatalf("malformed line: %v", env)
	}

	sendLine(t, conn, `{"id":"e","cmd":"ping"}`)
	env = read()
	if env["id"] != "e" || env["pong"] != true {
		t.Fatalf("server dead after parse error: %v", env)
	}
}

func TestServer_SplitWritesAndBatchedLines(t *testing.T) {
	_, _, port, _ := startTestServer(t, defaultConfig(registry.TierInput))
	conn := dialBridge(t, port)
	reader := bufio.NewReader(conn)

	// One request split across two writes, then two requests in one write.
	half := `{"id":"h1","cm`
	rest := `d":"ping"}` + "\n"
	conn.Write([]byte(half))
	time.Sleep(20 * time.Millisecond)
	conn.Write([]byte(rest))
	conn.Write([]byte(`{"id":"h2","cmd":"ping"}` + "\n" + `{"id":"h3","cmd":"ping"}` + "\n"))

	for _, want := range []string{"h1", "h2", "h3"} {
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read %s: %v", want, err)
		}
		var env map[string]any
		json.Unmarshal(line, &env)
		if env["id"] != want {
			t.Fatalf("want %s, got %v", want, env)
		}
	}
}

func TestServer_PreemptsStaleClient(t *testing.T) {
	_, _, port, _ := startTestServer(t, defaultConfig(registry.TierInput))

	clientA := dialBridge(t, port)
	sendLine(t, clientA, `{"id":"a1","cmd":"ping"}`)
	if env := readLine(t, clientA); env["pong"] != true {
		t.Fatalf("client A first ping: %v", env)
	}

	clientB := dialBridge(t, port)
	// Give the accept loop a beat to notice B and close A.
	time.Sleep(50 * time.Millisecond)
	sendLine(t, clientB, `{"id":"b1","cmd":"ping"}`)
	if env := readLine(t, clientB); env["pong"] != true {
		t.Fatalf("client B ping: %v", env)
	}

	// A's socket is closed; a read sees EOF rather than a response.
	clientA.Write([]byte(`{"id":"a2","cmd":"ping"}` + "\n"))
	clientA.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, err := bufio.NewReader(clientA).ReadBytes('\n'); err == nil {
		t.Fatalf("stale client A still receives responses")
	}
}

func TestServer_OversizedLineDropsClient(t *testing.T) {
	_, _, port, _ := startTestServer(t, defaultConfig(registry.TierInput))
	conn := dialBridge(t, port)

	// Stream > 10 MiB without a newline; the server must disconnect.
	junk := bytes.Repeat([]byte("x"), 1<<20)
	conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	for i := 0; i < 11; i++ {
		if _, err := conn.Write(junk); err != nil {
			// Dropped mid-stream: that is the expected outcome.
			return
		}
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, err := bufio.NewReader(conn).ReadBytes('\n'); err == nil {
		t.Fatalf("oversized client not dropped")
	}

	// The listener stays ready for the next client.
	fresh := dialBridge(t, port)
	sendLine(t, fresh, `{"id":"f","cmd":"ping"}`)
	if env := readLine(t, fresh); env["pong"] != true {
		t.Fatalf("server unavailable after oversized client: %v", env)
	}
}

func TestServer_ReadyFile(t *testing.T) {
	dir := t.TempDir()
	readyFile := dir + "/bridge.ready"
	_, _, port, _ := startTestServer(t, Config{Tier: registry.TierInput, ReadyFile: readyFile})

	data, err := readFileRetry(readyFile, time.Second)
	if err != nil {
		t.Fatalf("ready file: %v", err)
	}
	var payload struct {
		Port  int    `json:"port"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("ready file payload: %v", err)
	}
	if payload.Port != port || payload.Token != testToken {
		t.Fatalf("ready file content: %+v", payload)
	}
}
