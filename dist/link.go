package dist

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"go.uber.org/multierr"
)

const (
	maxFrame    = 64 * 1024
	queueSize   = 32
	dialTimeout = 2 * time.Second
	ioTimeout   = 5 * time.Second
)

var errFrameTooLarge = errors.New("frame exceeds maximum size")

// ErrQueueFull is returned by Broadcast when a peer's outbound queue has no
// room for the message.
var ErrQueueFull = errors.New("outbound queue full")

// WriteFrame writes m as a 32-bit length, the kind and the payload.
func WriteFrame(w io.Writer, m Message) error {
	if len(m.Payload)+2 > maxFrame {
		return errFrameTooLarge
	}

	buf := make([]byte, 6, 6+len(m.Payload))
	binary.BigEndian.PutUint32(buf, uint32(len(m.Payload)+2))
	binary.BigEndian.PutUint16(buf[4:], uint16(m.Kind))
	buf = append(buf, m.Payload...)

	_, err := w.Write(buf)

	return err
}

// ReadFrame reads one message written by WriteFrame.
func ReadFrame(r io.Reader) (Message, error) {
	var head [6]byte

	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Message{}, err
	}

	n := binary.BigEndian.Uint32(head[:4])
	if n < 2 || n > maxFrame {
		return Message{}, fmt.Errorf("%w: %d bytes", errFrameTooLarge, n)
	}

	payload := make([]byte, n-2)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, err
	}

	return Message{
		Kind:    Kind(binary.BigEndian.Uint16(head[4:])),
		Payload: payload,
	}, nil
}

// Send dials addr, writes m and hangs up.
func Send(ctx context.Context, addr string, m Message) error {
	var d net.Dialer

	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(ioTimeout))

	return WriteFrame(conn, m)
}

// Link exchanges messages with peers over TCP. Inbound messages are
// delivered on a channel so that they are applied on the caller's loop.
// Outbound messages are queued per peer and written by one goroutine each,
// so that a slow or unreachable peer never blocks the sender.
type Link struct {
	ln  net.Listener
	out []*peer
	log *slog.Logger

	inbound chan Message
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu    sync.Mutex
	conns map[string]net.Conn
	open  map[net.Conn]struct{}
}

type peer struct {
	addr  string
	queue chan Message
}

// Listen starts accepting peer connections on addr. Outgoing connections to
// peers are dialled when the first message for them is queued.
func Listen(addr string, peers []string, log *slog.Logger) (*Link, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	l := &Link{
		ln:      ln,
		log:     log,
		inbound: make(chan Message, 16),
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[string]net.Conn),
		open:    make(map[net.Conn]struct{}),
	}

	for _, addr := range peers {
		p := &peer{addr: addr, queue: make(chan Message, queueSize)}
		l.out = append(l.out, p)

		l.wg.Add(1)

		go l.write(p)
	}

	l.wg.Add(1)

	go l.accept()

	return l, nil
}

// Addr returns the listening address.
func (l *Link) Addr() net.Addr {
	return l.ln.Addr()
}

// Inbound delivers messages received from peers.
func (l *Link) Inbound() <-chan Message {
	return l.inbound
}

func (l *Link) accept() {
	defer l.wg.Done()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}

			l.log.Warn("accepting peer failed", slog.Any("error", err))

			continue
		}

		l.mu.Lock()
		l.open[conn] = struct{}{}
		l.mu.Unlock()

		l.wg.Add(1)

		go l.serve(conn)
	}
}

func (l *Link) serve(conn net.Conn) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		delete(l.open, conn)
		l.mu.Unlock()
		conn.Close()
	}()

	for {
		m, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				l.log.Debug(
					"peer connection closed",
					slog.String("peer", conn.RemoteAddr().String()),
					slog.Any("error", err),
				)
			}

			return
		}

		select {
		case l.inbound <- m:
		case <-l.ctx.Done():
			return
		}
	}
}

// Broadcast queues m for every configured peer without waiting. A message
// is dropped for a peer whose queue is full; peers that cannot be reached
// are redialled for the next queued message.
func (l *Link) Broadcast(m Message) error {
	var errs error

	for _, p := range l.out {
		select {
		case p.queue <- m:
		default:
			errs = multierr.Append(errs, fmt.Errorf("peer %s: %w", p.addr, ErrQueueFull))
		}
	}

	return errs
}

// write drains the queue of p until the link is closed.
func (l *Link) write(p *peer) {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case m := <-p.queue:
			if err := l.sendTo(p.addr, m); err != nil {
				l.log.Debug("sending to peer failed",
					slog.String("peer", p.addr),
					slog.Any("error", err),
				)
			}
		}
	}
}

func (l *Link) sendTo(addr string, m Message) error {
	l.mu.Lock()
	conn, ok := l.conns[addr]
	l.mu.Unlock()

	if !ok {
		d := net.Dialer{Timeout: dialTimeout}

		var err error

		conn, err = d.DialContext(l.ctx, "tcp", addr)
		if err != nil {
			return err
		}

		l.mu.Lock()
		if l.ctx.Err() != nil {
			l.mu.Unlock()
			conn.Close()

			return l.ctx.Err()
		}

		l.conns[addr] = conn
		l.mu.Unlock()
	}

	_ = conn.SetWriteDeadline(time.Now().Add(ioTimeout))

	if err := WriteFrame(conn, m); err != nil {
		l.mu.Lock()
		delete(l.conns, addr)
		l.mu.Unlock()
		conn.Close()

		return err
	}

	return nil
}

// Close stops accepting, closes every connection and waits for the reader
// and writer goroutines to finish. Queued messages are discarded.
func (l *Link) Close() error {
	l.cancel()

	err := l.ln.Close()

	l.mu.Lock()
	for addr, conn := range l.conns {
		err = multierr.Append(err, conn.Close())
		delete(l.conns, addr)
	}

	for conn := range l.open {
		conn.Close()
	}
	l.mu.Unlock()

	l.wg.Wait()

	return err
}
