package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// ErrUnknownEvent is returned by dispatch for frame types nothing handles.
// The channel logs these and carries on.
var ErrUnknownEvent = errors.New("unknown_event")

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, raw json.RawMessage) error

// Router keeps a map[type]handler for inbound push frames.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// Register binds a frame type to a strongly-typed handler. The whole frame
// is decoded into Req, so payload fields sitting next to "type" are visible.
func Register[Req any](
	r *Router,
	frameType string,
	h func(ctx context.Context, req Req) error,
) {
	if frameType == "" {
		panic("live router: empty frame type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[frameType] = func(ctx context.Context, raw json.RawMessage) error {
		var req Req
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &req); err != nil {
				return err
			}
		}
		return h(ctx, req)
	}
}

// dispatch is called by the channel's reader loop.
func (r *Router) dispatch(ctx context.Context, frameType string, raw json.RawMessage) error {
	r.mu.RLock()
	h, ok := r.handlers[frameType]
	r.mu.RUnlock()
	if !ok {
		return ErrUnknownEvent
	}
	return h(ctx, raw)
}
