package serverquery

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// ErrConnClosed is returned for commands issued after the connection died.
var ErrConnClosed = errors.New("serverquery: connection closed")

const (
	dialTimeout  = 10 * time.Second
	replyTimeout = 10 * time.Second
)

// Conn is one ServerQuery TCP connection. Commands are strictly
// sequential on the wire; notifications can arrive between a command and
// its response and are routed to the notify handler instead.
type Conn struct {
	tcp    net.Conn
	reader *bufio.Reader
	notify func(line string)

	execMu sync.Mutex
	resp   chan string

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects, validates the protocol banner and starts the read loop.
// notify receives every `notify...` line verbatim.
func Dial(addr string, notify func(line string)) (*Conn, error) {
	tcp, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Conn{
		tcp:    tcp,
		reader: bufio.NewReader(tcp),
		notify: notify,
		resp:   make(chan string, 16),
		done:   make(chan struct{}),
	}

	// Banner: "TS3" followed by a welcome line.
	banner, err := c.readLine()
	if err != nil {
		tcp.Close()
		return nil, fmt.Errorf("read banner: %w", err)
	}
	if banner != "TS3" {
		tcp.Close()
		return nil, fmt.Errorf("unexpected banner %q, not a ServerQuery endpoint", banner)
	}
	if _, err := c.readLine(); err != nil {
		tcp.Close()
		return nil, fmt.Errorf("read welcome: %w", err)
	}

	go c.readLoop()
	return c, nil
}

// Close tears down the connection. A polite `quit` is attempted but not
// waited for.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		_, _ = c.tcp.Write([]byte("quit\n"))
		close(c.done)
		c.tcp.Close()
	})
}

// Done is closed when the connection is gone, whichever side ended it.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) readLoop() {
	defer c.closeOnce.Do(func() {
		close(c.done)
		c.tcp.Close()
	})

	for {
		line, err := c.readLine()
		if err != nil {
			return
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "notify") {
			c.notify(line)
			continue
		}
		select {
		case c.resp <- line:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) readLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.Trim(line, "\r\n"), nil
}

// Exec sends one command and collects its response records. The response
// body may be empty; it always ends with an `error` line which decides
// success.
func (c *Conn) Exec(name string, args map[string]string) ([]map[string]string, error) {
	return c.ExecRaw(buildCommand(name, args))
}

// ExecRaw sends a preassembled command line.
func (c *Conn) ExecRaw(cmd string) ([]map[string]string, error) {
	c.execMu.Lock()
	defer c.execMu.Unlock()

	select {
	case <-c.done:
		return nil, ErrConnClosed
	default:
	}

	if _, err := c.tcp.Write([]byte(cmd + "\n")); err != nil {
		return nil, fmt.Errorf("write %q: %w", firstWord(cmd), err)
	}

	var records []map[string]string
	timeout := time.After(replyTimeout)
	for {
		select {
		case line := <-c.resp:
			if strings.HasPrefix(line, "error ") {
				return records, parseErrorLine(line)
			}
			records = append(records, parseRecords(line)...)
		case <-c.done:
			return nil, ErrConnClosed
		case <-timeout:
			return nil, fmt.Errorf("timeout waiting for %q response", firstWord(cmd))
		}
	}
}

func firstWord(cmd string) string {
	if i := strings.IndexByte(cmd, ' '); i > 0 {
		return cmd[:i]
	}
	return cmd
}
