// Package bridgeclient is a synchronous RPC client for the bridge's
// newline-delimited JSON protocol. One goroutine reads the socket and
// correlates responses to waiting callers by request id.
package bridgeclient

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout = 15 * time.Second
	maxReconnect   = 10 * time.Second
	// maxLine bounds a single response line; screenshots dominate.
	maxLine = 32 << 20
)

// CommandError is an ok=false response from the bridge.
type CommandError struct {
	Code    string
	Message string
	Extra   map[string]any
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Response is one reply envelope. Data holds the flattened payload fields
// (everything except id, ok and error).
type Response struct {
	ID   string
	OK   bool
	Data map[string]any
	Err  *CommandError
}

// Client connects to a bridge on loopback.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	pending map[string]chan *Response
	port    int
	token   string
	logger  *log.Logger
	done    chan struct{}
	closed  bool
}

// New creates a client for the bridge at 127.0.0.1:port.
func New(port int, token string, logger *log.Logger) *Client {
	return &Client{
		pending: make(map[string]chan *Response),
		port:    port,
		token:   token,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Connect dials the bridge and starts the read loop.
func (c *Client) Connect() error {
	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", c.port))
	if err != nil {
		return fmt.Errorf("bridge connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)

	c.logger.Printf("Connected to bridge at 127.0.0.1:%d", c.port)
	return nil
}

// ConnectWithRetry dials with exponential backoff, for use right after
// the host process is spawned.
func (c *Client) ConnectWithRetry(maxAttempts int) error {
	backoff := 250 * time.Millisecond
	for i := 0; i < maxAttempts; i++ {
		err := c.Connect()
		if err == nil {
			return nil
		}
		c.logger.Printf("Bridge connect attempt %d/%d failed: %v (retrying in %v)", i+1, maxAttempts, err, backoff)

		select {
		case <-time.After(backoff):
		case <-c.done:
			return fmt.Errorf("bridge client closed")
		}

		backoff *= 2
		if backoff > maxReconnect {
			backoff = maxReconnect
		}
	}
	return fmt.Errorf("failed to connect to bridge after %d attempts", maxAttempts)
}

// Close closes the connection and unblocks pending requests.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.done)

	if c.conn != nil {
		c.conn.Close()
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Send issues one request and waits for its response. The session token is
// attached to every request; token-exempt commands ignore it.
func (c *Client) Send(cmd string, args map[string]any) (*Response, error) {
	return c.SendTimeout(cmd, args, defaultTimeout)
}

// SendTimeout is Send with an explicit wait budget, for wait_for and other
// slow commands.
func (c *Client) SendTimeout(cmd string, args map[string]any, timeout time.Duration) (*Response, error) {
	id := uuid.New().String()
	ch := make(chan *Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("bridge client closed")
	}
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("not connected to bridge")
	}
	c.pending[id] = ch
	c.mu.Unlock()

	forget := func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}

	env := map[string]any{"id": id, "cmd": cmd, "token": c.token}
	if args != nil {
		env["args"] = args
	}
	data, err := json.Marshal(env)
	if err != nil {
		forget()
		return nil, err
	}

	c.mu.Lock()
	_, err = conn.Write(append(data, '\n'))
	c.mu.Unlock()
	if err != nil {
		forget()
		return nil, fmt.Errorf("bridge write: %w", err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("bridge client closed while waiting for response")
		}
		return resp, nil
	case <-time.After(timeout):
		forget()
		return nil, fmt.Errorf("bridge request timeout (id=%s cmd=%s)", id, cmd)
	case <-c.done:
		return nil, fmt.Errorf("bridge client closed")
	}
}

func (c *Client) readLoop(conn net.Conn) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64<<10), maxLine)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := parseResponse(line)
		if resp == nil {
			c.logger.Printf("Unparseable response line: %.120s", line)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// parseResponse splits a raw envelope into id/ok/error and the flattened
// payload fields.
func parseResponse(line []byte) *Response {
	var env map[string]any
	if err := json.Unmarshal(line, &env); err != nil {
		return nil
	}
	resp := &Response{Data: make(map[string]any)}
	resp.ID, _ = env["id"].(string)
	resp.OK, _ = env["ok"].(bool)

	if !resp.OK {
		errObj, _ := env["error"].(map[string]any)
		cmdErr := &CommandError{Extra: make(map[string]any)}
		for k, v := range errObj {
			switch k {
			case "code":
				cmdErr.Code, _ = v.(string)
			case "message":
				cmdErr.Message, _ = v.(string)
			default:
				cmdErr.Extra[k] = v
			}
		}
		resp.Err = cmdErr
		return resp
	}

	for k, v := range env {
		if k == "id" || k == "ok" {
			continue
		}
		resp.Data[k] = v
	}
	return resp
}

// call sends and converts an ok=false envelope into an error return.
func (c *Client) call(cmd string, args map[string]any) (map[string]any, error) {
	resp, err := c.Send(cmd, args)
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, resp.Err
	}
	return resp.Data, nil
}
