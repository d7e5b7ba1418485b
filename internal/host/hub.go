package host

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/operaton-labs/enginebridge/internal/bridge"
	"github.com/operaton-labs/enginebridge/internal/logging"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Sandboxed callers carry no meaningful origin.
		return true
	},
}

// Hub accepts channel connections and answers their requests through a
// Responder. Each connection gets its own goroutine and rate limiter.
type Hub struct {
	responder *Responder
	metrics   *Metrics
	log       *logging.Logger

	limitRPS   int
	limitBurst int
}

// NewHub wires a hub.
func NewHub(responder *Responder, metrics *Metrics, limitRPS, limitBurst int, log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewNop()
	}
	return &Hub{
		responder:  responder,
		metrics:    metrics,
		log:        log.Component("hub"),
		limitRPS:   limitRPS,
		limitBurst: limitBurst,
	}
}

// HandleChannel upgrades a channel request and serves it until the peer
// disconnects.
func (h *Hub) HandleChannel(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	channel := c.Param("name")
	log := h.log.With(zap.String("conn_id", connID), zap.String("channel", channel))
	log.Info("channel connected")

	h.metrics.Connections.Inc()
	defer h.metrics.Connections.Dec()

	limiter := rate.NewLimiter(rate.Limit(h.limitRPS), h.limitBurst)
	ctx := c.Request.Context()

	var writeMu sync.Mutex
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			log.Info("channel disconnected", zap.Error(err))
			return
		}

		req, err := bridge.Decode(frame)
		if err != nil {
			log.Warn("dropping undecodable frame", zap.Error(err))
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		h.metrics.RequestsTotal.WithLabelValues(req.Action).Inc()
		reply := h.responder.Dispatch(req)
		if reply.Action == bridge.ActionError {
			h.metrics.ErrorsTotal.WithLabelValues(req.Action).Inc()
		} else if reply.Bundle != "" {
			if name, ok := bridge.IsBundleAction(req.Action); ok {
				h.metrics.BundleBytes.WithLabelValues(name).Add(float64(len(reply.Bundle)))
			}
		}

		out, err := reply.Encode()
		if err != nil {
			log.Error("encode reply failed", zap.Error(err))
			continue
		}

		writeMu.Lock()
		err = conn.WriteMessage(websocket.TextMessage, out)
		writeMu.Unlock()
		if err != nil {
			log.Warn("write failed", zap.Error(err))
			return
		}
	}
}
