package hub

import (
	"context"
	"errors"
	"net"

	"github.com/DoyleJ11/jankenpon-server/internal/lobby"
	"github.com/DoyleJ11/jankenpon-server/pkg/protocol"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ConnHandler runs one player's connection until it ends. It must call
// Hub.Disconnect for p before returning.
type ConnHandler interface {
	ServeConn(ctx context.Context, conn net.Conn, p *lobby.Player)
}

// Serve accepts connections on ln until ctx is done or the hub shuts down.
// Every connection is handed to handler in its own goroutine.
func (h *Hub) Serve(ctx context.Context, ln net.Listener, handler ConnHandler) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrShuttingDown
	}
	h.listeners = append(h.listeners, ln)
	h.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	h.log.Info("accepting connections", zap.Stringer("addr", ln.Addr()))
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			h.attach(conn, handler)
		}()
	}
}

// Attach serves a connection accepted elsewhere, such as a websocket, and
// blocks until it ends.
func (h *Hub) Attach(conn net.Conn, handler ConnHandler) {
	h.wg.Add(1)
	defer h.wg.Done()
	h.attach(conn, handler)
}

func (h *Hub) attach(conn net.Conn, handler ConnHandler) {
	p, err := h.Connect()
	if err != nil {
		h.log.Debug("refusing connection", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
		_ = conn.Close()
		return
	}

	h.mu.Lock()
	h.conns[p.ID] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, p.ID)
		h.mu.Unlock()
	}()

	handler.ServeConn(h.ctx, conn, p)
}

// Shutdown stops accepting, tells every player the server is going away and
// waits for their sessions to drain. Connections still open when ctx
// expires are closed.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	listeners := h.listeners
	h.mu.Unlock()

	var err error
	for _, ln := range listeners {
		if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = multierr.Append(err, cerr)
		}
	}

	h.BroadcastAll(protocol.DisconnectNotice{})
	h.mu.RLock()
	for _, p := range h.players {
		p.Close()
	}
	h.log.Info("shutting down", zap.Int("players", len(h.players)))
	h.mu.RUnlock()

	drained := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
	case <-ctx.Done():
		h.mu.Lock()
		for _, c := range h.conns {
			if cerr := c.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = multierr.Append(err, cerr)
			}
		}
		h.mu.Unlock()
		h.cancel()
		<-drained
	}
	h.cancel()
	return err
}
