package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/headsync/internal/bridge"
	"github.com/conneroisu/headsync/internal/errors"
	"github.com/conneroisu/headsync/internal/head"
	"github.com/conneroisu/headsync/internal/logging"
	"github.com/conneroisu/headsync/internal/navigation"
	"github.com/conneroisu/headsync/internal/taskqueue"
)

// Message types sent by the browser client.
const (
	messageAck            = "ack"
	messageNavigate       = "navigate"
	messageRenderComplete = "render_complete"
	messageHeadContent    = "head_content"
)

// clientMessage is the envelope for everything the client sends.
type clientMessage struct {
	Type     string             `json:"type"`
	Location string             `json:"location,omitempty"`
	Ref      *bridge.ContentRef `json:"ref,omitempty"`
	Ack      *bridge.Ack        `json:"ack,omitempty"`
}

// session binds one websocket connection to a coordinator instance. The
// connection carries both directions of the protocol: bridge commands and
// their acks, and navigation/lifecycle events from the client.
type session struct {
	conn        *websocket.Conn
	source      *navigation.ChannelSource
	bridge      *bridge.WebSocketBridge
	queue       *taskqueue.Queue
	coordinator *head.Coordinator
	logger      logging.Logger
}

func (s *Server) newSession(conn *websocket.Conn, initialLocation string) *session {
	logger := s.logger.WithComponent("session")

	source := navigation.NewChannelSource(initialLocation)
	wsBridge := bridge.NewWebSocketBridge(conn, logger)
	loader := bridge.NewLoader(func(context.Context) (bridge.Bridge, error) {
		// The handle is the session's own connection; acquisition is
		// trivial here but still funneled through the loader so it happens
		// at most once and is released on disposal.
		return wsBridge, nil
	})
	queue := taskqueue.New(logger)

	title := s.titleConfig()
	coordinator := head.New(queue, loader, source, logger, head.Options{
		SuffixFn:  func() string { return s.titleConfig().Suffix },
		TitleCase: title.TitleCase,
	})

	return &session{
		conn:        conn,
		source:      source,
		bridge:      wsBridge,
		queue:       queue,
		coordinator: coordinator,
		logger:      logger,
	}
}

// run drives the session until the connection drops or ctx is cancelled.
func (sess *session) run(ctx context.Context) {
	defer sess.teardown()

	if err := sess.coordinator.Start(ctx); err != nil {
		sess.logger.Error(ctx, err, "coordinator start failed")
		return
	}

	for {
		_, data, err := sess.conn.Read(ctx)
		if err != nil {
			sess.logger.Debug(ctx, "session read ended", "reason", err.Error())
			return
		}

		sess.handleMessage(ctx, data)
	}
}

func (sess *session) handleMessage(ctx context.Context, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sess.logger.Warn(ctx, err, "malformed client message")
		return
	}

	switch msg.Type {
	case messageAck:
		if msg.Ack == nil {
			sess.logger.Warn(ctx, nil, "ack message without payload")
			return
		}
		if !sess.bridge.DeliverAck(*msg.Ack) {
			sess.logger.Debug(ctx, "ack for unknown command", "id", msg.Ack.ID)
		}

	case messageNavigate:
		if msg.Location == "" {
			sess.logger.Warn(ctx, nil, "navigate message without location")
			return
		}
		sess.source.Navigate(msg.Location)

	case messageRenderComplete:
		if err := sess.coordinator.OnAfterRender(ctx); err != nil {
			sess.logger.Error(ctx, err, "render completion rejected")
		}

	case messageHeadContent:
		if msg.Ref == nil {
			sess.logger.Warn(ctx, nil, "head content message without ref")
			return
		}
		if err := sess.coordinator.SetHeadContent(ctx, *msg.Ref); err != nil {
			if errors.IsContractViolation(err) {
				sess.logger.Error(ctx, err, "head content rejected", "ref", msg.Ref.ID)
			} else {
				sess.logger.Warn(ctx, err, "head content failed", "ref", msg.Ref.ID)
			}
		}

	default:
		sess.logger.Debug(ctx, "unknown message type", "type", msg.Type)
	}
}

func (sess *session) teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sess.coordinator.Dispose(ctx); err != nil {
		sess.logger.Warn(ctx, err, "session disposal incomplete")
	}

	sess.source.Close()
	_ = sess.conn.Close(websocket.StatusNormalClosure, "session closed")

	sess.logger.Info(ctx, "session closed")
}
