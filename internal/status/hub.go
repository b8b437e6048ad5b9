package status

import (
	"context"
	"time"

	log "log/slog"

	ws "github.com/gorilla/websocket"

	"nathan/internal/ipc"
)

type HubConfig struct {
	URL   string
	Shard string
	// Reconnect is the pause between dial attempts.
	Reconnect time.Duration
	// Queue bounds pending events; newer events are dropped when full.
	Queue int
	// OnCommand receives control frames addressed to Shard.
	OnCommand ipc.Handler
}

// Hub publishes events as JSON to a websocket hub and listens for control
// frames on the same connection.
type Hub struct {
	cfg    HubConfig
	queue  chan Event
	dialer *ws.Dialer
}

func NewHub(cfg HubConfig) *Hub {
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = 3 * time.Second
	}
	if cfg.Queue <= 0 {
		cfg.Queue = 64
	}
	if cfg.Shard == "" {
		cfg.Shard = "nathan"
	}

	return &Hub{
		cfg:    cfg,
		queue:  make(chan Event, cfg.Queue),
		dialer: &ws.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

func (h *Hub) Publish(e Event) {
	select {
	case h.queue <- e:
	default:
		log.Debug("hub queue full, dropping event", "kind", e.Kind)
	}
}

// Run keeps a connection to the hub until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		conn, err := h.dial(ctx)
		if err != nil {
			return
		}
		log.Info("connected to hub", "url", h.cfg.URL)

		h.serve(ctx, conn)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		log.Warn("hub connection lost, reconnecting", "url", h.cfg.URL)
	}
}

func (h *Hub) dial(ctx context.Context) (*ws.Conn, error) {
	for {
		conn, _, err := h.dialer.DialContext(ctx, h.cfg.URL, nil)
		if err == nil {
			return conn, nil
		}
		log.Debug("dial hub", "url", h.cfg.URL, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.cfg.Reconnect):
		}
	}
}

func (h *Hub) serve(ctx context.Context, conn *ws.Conn) {
	readErr := make(chan error, 1)
	go func() { readErr <- h.readLoop(conn) }()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return

		case err := <-readErr:
			if !isClosed(err) {
				log.Warn("hub read", "err", err)
			}
			return

		case e := <-h.queue:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(e); err != nil {
				log.Warn("hub write", "err", err)
				return
			}
		}
	}
}

func (h *Hub) readLoop(conn *ws.Conn) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		frame, err := ipc.ParseFrame(string(msg))
		if err != nil {
			log.Debug("ignoring hub message", "msg", string(msg), "err", err)
			continue
		}
		if !frame.For(h.cfg.Shard) {
			continue
		}

		cmd, ok := frame.Control()
		if !ok {
			log.Warn("unsupported hub command", "frame", frame.String())
			continue
		}
		if h.cfg.OnCommand != nil {
			h.cfg.OnCommand(cmd)
		}
	}
}

func isClosed(err error) bool {
	return ws.IsCloseError(err,
		ws.CloseNormalClosure,
		ws.CloseGoingAway,
		ws.CloseAbnormalClosure)
}
