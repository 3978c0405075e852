package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/diag"
	"github.com/Aesthetic-Engine/godot-runtime-bridge/internal/types"
)

const (
	// maxReadBuffer caps the unterminated read buffer. A client that
	// streams this much without a newline is malformed and gets dropped.
	maxReadBuffer = 10 << 20
	// pollInterval is the idle sleep between socket polls.
	pollInterval = time.Millisecond
	// readChunk is the per-poll read size.
	readChunk = 64 << 10
)

var errTimeout = errors.New("bridge: timed out waiting for listener")

// bannerPrefix starts the single readiness line on stdout. It is the
// launcher's sole discovery mechanism.
const bannerPrefix = "GDRB_READY:"

type banner struct {
	Proto       string `json:"proto"`
	Port        int    `json:"port"`
	Token       string `json:"token"`
	TierDefault int    `json:"tier_default"`
	InputMode   string `json:"input_mode"`
}

// run is the I/O worker: bind, announce, then accept/read/write until the
// stop flag is observed. It holds no engine references; everything crosses
// to the main thread through the queues.
func (b *Bridge) run() {
	defer close(b.workerDone)

	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", b.cfg.Port))
	if err != nil {
		b.bindErr = fmt.Errorf("bridge listen: %w", err)
		b.logger.Printf("bind failed: %v", err)
		b.sink.Log(diag.Entry{Kind: diag.KindError, Function: "bridge.run",
			Rationale: fmt.Sprintf("bind failed: %v", err)})
		return
	}
	defer listener.Close()

	tcpListener := listener.(*net.TCPListener)
	b.boundPort = listener.Addr().(*net.TCPAddr).Port
	b.announce()
	close(b.ready)

	var conn net.Conn
	var buf []byte
	chunk := make([]byte, readChunk)

	dropConn := func() {
		if conn != nil {
			conn.Close()
			conn = nil
		}
		buf = buf[:0]
	}

	for !b.stop.Load() {
		// Accept with a short deadline so the loop keeps servicing reads
		// and writes. A new connection preempts the old one.
		tcpListener.SetDeadline(time.Now().Add(pollInterval))
		if newConn, err := tcpListener.Accept(); err == nil {
			if conn != nil {
				b.logger.Printf("client preempted by new connection from %s", newConn.RemoteAddr())
				conn.Close()
			}
			conn = newConn
			buf = buf[:0]
		}

		if conn == nil {
			// No client: responses addressed to a disconnected client are
			// dropped at write time.
			b.out.drain()
			time.Sleep(pollInterval)
			continue
		}

		conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			buf = b.splitLines(buf)
			if len(buf) > maxReadBuffer {
				b.logger.Printf("read buffer exceeded %d bytes without terminator, dropping client", maxReadBuffer)
				dropConn()
				continue
			}
		}
		if err != nil {
			var netErr net.Error
			if !(errors.As(err, &netErr) && netErr.Timeout()) {
				dropConn()
				continue
			}
		}

		for _, line := range b.out.drain() {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if _, err := conn.Write(line); err != nil {
				b.logger.Printf("write failed: %v", err)
				dropConn()
				break
			}
		}
	}
	dropConn()
}

// splitLines parses every complete line in buf into the inbound queue and
// returns the unconsumed remainder. Empty lines are skipped.
func (b *Bridge) splitLines(buf []byte) []byte {
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			return buf
		}
		line := bytes.TrimRight(buf[:i], "\r")
		buf = buf[i+1:]
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		b.in.push(types.ParseLine(line))
	}
}

// announce writes the readiness banner to stdout and, when configured,
// mirrors the JSON payload to the ready file for hosts launched without a
// captured stdout.
func (b *Bridge) announce() {
	payload, err := json.Marshal(banner{
		Proto:       types.Proto,
		Port:        b.boundPort,
		Token:       b.cfg.Token,
		TierDefault: int(b.cfg.Tier),
		InputMode:   string(b.cfg.InputMode),
	})
	if err != nil {
		b.logger.Printf("banner marshal: %v", err)
		return
	}

	fmt.Fprintf(b.cfg.Banner, "%s%s\n", bannerPrefix, payload)

	if b.cfg.ReadyFile != "" {
		// Atomic write: temp file + rename, so watchers never see a
		// half-written banner.
		tmp := b.cfg.ReadyFile + ".tmp"
		os.MkdirAll(filepath.Dir(b.cfg.ReadyFile), 0700)
		if err := os.WriteFile(tmp, append(payload, '\n'), 0600); err != nil {
			b.logger.Printf("ready file write: %v", err)
			return
		}
		if err := os.Rename(tmp, b.cfg.ReadyFile); err != nil {
			b.logger.Printf("ready file rename: %v", err)
			os.Remove(tmp)
		}
	}
}
