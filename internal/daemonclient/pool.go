package daemonclient

import (
	"net"
	"sync"
	"time"
)

const (
	// idleWait bounds the fast-path wait for an idle connection before the
	// pool considers dialing a new one.
	idleWait = 100 * time.Millisecond

	dialTimeout = 10 * time.Second
)

var dialFn = func(socketPath string) (net.Conn, error) {
	return net.DialTimeout("unix", socketPath, dialTimeout)
}

// Pool hands out Unix-socket connections to the daemon, capped at size.
// Capacity control is advisory: waiters at the cap are served in no
// particular order.
type Pool struct {
	socketPath string
	size       int

	mu     sync.Mutex
	active int

	idle chan net.Conn
}

// NewPool creates a pool that dials socketPath and keeps at most size
// connections alive.
func NewPool(socketPath string, size int) *Pool {
	return &Pool{
		socketPath: socketPath,
		size:       size,
		idle:       make(chan net.Conn, size),
	}
}

// Get returns a connection to the daemon: an idle one when available within
// the fast-path wait, a freshly dialed one while below the cap, otherwise it
// blocks until some other caller releases one.
func (p *Pool) Get() (net.Conn, error) {
	select {
	case conn := <-p.idle:
		return conn, nil
	case <-time.After(idleWait):
	}

	p.mu.Lock()
	if p.active < p.size {
		p.active++
		p.mu.Unlock()

		conn, err := dialFn(p.socketPath)
		if err != nil {
			p.mu.Lock()
			p.active--
			p.mu.Unlock()
			return nil, err
		}
		return conn, nil
	}
	p.mu.Unlock()

	return <-p.idle, nil
}

// Put releases a connection back to the pool. A broken connection is closed
// and its capacity slot freed; a healthy one goes back on the idle queue.
func (p *Pool) Put(conn net.Conn, broken bool) {
	if conn == nil {
		return
	}
	if broken {
		p.discard(conn)
		return
	}
	select {
	case p.idle <- conn:
	default:
		// The idle queue is sized at the cap, so this only happens if a
		// connection is returned twice. Drop it rather than leak it.
		p.discard(conn)
	}
}

// CloseAll drains and closes every idle connection. Connections currently
// checked out are left to their holders.
func (p *Pool) CloseAll() {
	for {
		select {
		case conn := <-p.idle:
			p.discard(conn)
		default:
			return
		}
	}
}

// Active returns the number of live connections the pool has handed out or
// parked idle.
func (p *Pool) Active() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pool) discard(conn net.Conn) {
	conn.Close()
	p.mu.Lock()
	p.active--
	p.mu.Unlock()
}
