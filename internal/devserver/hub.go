package devserver

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const hubWriteWait = 10 * time.Second

type hubConn struct {
	id      string
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *hubConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), hubWriteWait)
	defer cancel()
	return wsjson.Write(ctx, c.rawConn, v)
}

// Hub keeps every connected board client and fans frames out to all of them.
type Hub struct {
	mu    sync.RWMutex
	conns map[*hubConn]struct{}
}

func NewHub() *Hub { return &Hub{conns: map[*hubConn]struct{}{}} }

func (h *Hub) Join(c *hubConn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Leave(c *hubConn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
	_ = c.rawConn.Close(websocket.StatusNormalClosure, "")
}

// Broadcast sends one frame to every client, dropping the ones that fail.
func (h *Hub) Broadcast(v any) {
	// Take a quick snapshot of the current connections
	h.mu.RLock()
	conns := make([]*hubConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	// Do the I/O outside the lock
	var failed []*hubConn
	for _, c := range conns {
		if err := c.writeJSON(v); err != nil {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		zap.L().Debug("devserver.drop_conn", zap.String("conn", c.id))
		h.Leave(c)
	}
}
