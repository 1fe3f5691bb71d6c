package cube

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ivesdebruycker/maxcube/internal/logging"
	"go.uber.org/zap"
)

// DefaultPort is the TCP port the cube listens on.
const DefaultPort = 62910

const (
	readBufferSize      = 4096
	defaultWriteTimeout = 10 * time.Second
)

// Transport delivers the raw byte stream of one cube connection. Receive
// yields read chunks in order; Done is closed when the connection is gone,
// whether by Close or by a read error.
type Transport interface {
	Connect(ctx context.Context) error
	Send(data string) error
	Receive() <-chan []byte
	Done() <-chan struct{}
	Close() error
}

// TCPTransport is the production Transport: one TCP connection to the
// cube's command port with a background read loop.
type TCPTransport struct {
	addr         string
	writeTimeout time.Duration

	mu   sync.Mutex
	conn net.Conn

	recv      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewTCPTransport returns a transport for host:port. port 0 selects
// DefaultPort.
func NewTCPTransport(host string, port int) *TCPTransport {
	if port == 0 {
		port = DefaultPort
	}
	return &TCPTransport{
		addr:         net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		writeTimeout: defaultWriteTimeout,
		recv:         make(chan []byte, 16),
		done:         make(chan struct{}),
	}
}

// Connect dials the cube and starts the read loop. The context bounds the
// dial only; the connection itself lives until Close or a read error.
func (t *TCPTransport) Connect(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.addr, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	logging.Info("cube connected", zap.String("addr", t.addr))
	go t.readLoop(conn)
	return nil
}

func (t *TCPTransport) readLoop(conn net.Conn) {
	defer t.markDone()

	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case t.recv <- chunk:
			case <-t.done:
				return
			}
		}
		if err != nil {
			logging.Debug("cube read loop ended",
				zap.String("addr", t.addr),
				zap.Error(err),
			)
			return
		}
	}
}

// Send writes one complete command frame to the connection.
func (t *TCPTransport) Send(data string) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := conn.Write([]byte(data)); err != nil {
		return fmt.Errorf("write to %s: %w", t.addr, err)
	}
	logging.LogFrame("send", data[0], data)
	return nil
}

// Receive returns the inbound chunk channel.
func (t *TCPTransport) Receive() <-chan []byte {
	return t.recv
}

// Done returns a channel closed once the connection is gone.
func (t *TCPTransport) Done() <-chan struct{} {
	return t.done
}

// Close tears the connection down. Safe to call more than once.
func (t *TCPTransport) Close() error {
	var err error
	t.mu.Lock()
	if t.conn != nil {
		err = t.conn.Close()
	}
	t.mu.Unlock()

	t.markDone()
	return err
}

func (t *TCPTransport) markDone() {
	t.closeOnce.Do(func() { close(t.done) })
}
