package ws

import (
	"net/http"

	"github.com/DoyleJ11/jankenpon-server/internal/hub"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Handler upgrades the request and serves it as an ordinary player
// connection. Each binary websocket message carries exactly one frame.
func Handler(h *hub.Hub, conns hub.ConnHandler, origins []string, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// e.g. "localhost:*" for a browser client in dev
			OriginPatterns: origins,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
		defer c.Close(websocket.StatusNormalClosure, "bye")

		h.Attach(websocket.NetConn(r.Context(), c, websocket.MessageBinary), conns)
	}
}
