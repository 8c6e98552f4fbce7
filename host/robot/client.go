package robot

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"twipi/host/serial"
)

// ErrClosed is returned by Command after the client has stopped.
var ErrClosed = errors.New("robot: client closed")

// Client talks to the robot's serial console: it writes command lines and
// decodes the JSON log stream coming back.
type Client struct {
	port io.ReadWriteCloser
	log  zerolog.Logger

	events chan Event

	mu     sync.Mutex
	closed bool
}

// Open connects to the robot on cfg.Device.
func Open(cfg *serial.Config, log zerolog.Logger) (*Client, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(port, log), nil
}

// NewClient wraps an already open port.
func NewClient(port io.ReadWriteCloser, log zerolog.Logger) *Client {
	return &Client{
		port:   port,
		log:    log,
		events: make(chan Event, 64),
	}
}

// Events returns the decoded log stream. It is closed when Run returns.
func (c *Client) Events() <-chan Event { return c.events }

// Run reads the port until ctx is cancelled or the port fails.
func (c *Client) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(c.events)
		return c.readLoop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		return c.Close()
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (c *Client) readLoop(ctx context.Context) error {
	r := bufio.NewReader(c.port)
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			ev := ParseEvent(line)
			select {
			case c.events <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if c.isClosed() {
				return nil
			}
			if errors.Is(err, io.EOF) {
				// serial read timeout
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return fmt.Errorf("robot: read: %w", err)
		}
	}
}

// Command sends one console line.
func (c *Client) Command(line string) error {
	if c.isClosed() {
		return ErrClosed
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	c.log.Debug().Str("line", line).Msg("send command")
	if _, err := io.WriteString(c.port, line+"\n"); err != nil {
		return fmt.Errorf("robot: write: %w", err)
	}
	return nil
}

// Exec sends a command and collects console events until none has arrived
// for quiet, or ctx ends. Other events are dropped.
func (c *Client) Exec(ctx context.Context, line string, quiet time.Duration) ([]Event, error) {
	if err := c.Command(line); err != nil {
		return nil, err
	}
	var out []Event
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return out, ErrClosed
			}
			if !ev.IsConsole() {
				continue
			}
			out = append(out, ev)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(quiet)
		case <-timer.C:
			return out, nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

// Close closes the port. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.port.Close()
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
