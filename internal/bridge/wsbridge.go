package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/conneroisu/headsync/internal/errors"
	"github.com/conneroisu/headsync/internal/logging"
)

// Command types understood by the browser-side runtime.
const (
	CommandSetTitle           = "set_title"
	CommandProcessHeadContent = "process_head_content"
)

// Command is a bridge call sent to the client runtime.
type Command struct {
	ID     uint64      `json:"id"`
	Type   string      `json:"type"`
	Title  string      `json:"title,omitempty"`
	Ref    *ContentRef `json:"ref,omitempty"`
	Suffix string      `json:"suffix,omitempty"`
}

// Ack is the client runtime's response to a Command, matched by ID.
type Ack struct {
	ID    uint64 `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Title string `json:"title,omitempty"`
}

// payloadWriter abstracts the outbound frame writer so the command protocol
// can be exercised without a live connection.
type payloadWriter interface {
	Write(ctx context.Context, data []byte) error
}

type connWriter struct {
	conn *websocket.Conn
}

func (w connWriter) Write(ctx context.Context, data []byte) error {
	return w.conn.Write(ctx, websocket.MessageText, data)
}

// WebSocketBridge implements Bridge over a websocket connection to the
// browser runtime. It does not own the connection's read loop; whoever reads
// the connection routes ack payloads back in through DeliverAck. Callers are
// expected to already be serialized by the task queue, but the bridge is
// nevertheless safe for concurrent use.
type WebSocketBridge struct {
	writer payloadWriter
	conn   *websocket.Conn // nil when constructed around a bare writer
	logger logging.Logger

	mu      sync.Mutex
	pending map[uint64]chan Ack
	nextID  atomic.Uint64

	closed    chan struct{}
	closeOnce sync.Once
}

// NewWebSocketBridge wraps an accepted websocket connection.
func NewWebSocketBridge(conn *websocket.Conn, logger logging.Logger) *WebSocketBridge {
	b := newBridge(connWriter{conn: conn}, logger)
	b.conn = conn

	return b
}

func newBridge(writer payloadWriter, logger logging.Logger) *WebSocketBridge {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	return &WebSocketBridge{
		writer:  writer,
		logger:  logger.WithComponent("bridge"),
		pending: make(map[uint64]chan Ack),
		closed:  make(chan struct{}),
	}
}

// DeliverAck routes an ack received on the connection to the waiting call.
// It returns false when no call is waiting for the ack's ID.
func (b *WebSocketBridge) DeliverAck(ack Ack) bool {
	b.mu.Lock()
	ch, ok := b.pending[ack.ID]
	if ok {
		delete(b.pending, ack.ID)
	}
	b.mu.Unlock()

	if !ok {
		return false
	}

	ch <- ack

	return true
}

func (b *WebSocketBridge) call(ctx context.Context, cmd Command) (Ack, error) {
	select {
	case <-b.closed:
		return Ack{}, errors.NewBridgeError(errors.ErrCodeBridgeClosed, "bridge closed", nil)
	default:
	}

	cmd.ID = b.nextID.Add(1)

	ackCh := make(chan Ack, 1)
	b.mu.Lock()
	b.pending[cmd.ID] = ackCh
	b.mu.Unlock()

	payload, err := json.Marshal(cmd)
	if err != nil {
		b.forget(cmd.ID)
		return Ack{}, errors.ErrBridgeCall(cmd.Type, err)
	}

	if err := b.writer.Write(ctx, payload); err != nil {
		b.forget(cmd.ID)
		return Ack{}, errors.ErrBridgeCall(cmd.Type, err)
	}

	select {
	case ack := <-ackCh:
		if !ack.OK {
			return ack, errors.NewBridgeError(
				errors.ErrCodeBridgeCallFailed,
				"bridge call rejected: "+cmd.Type+": "+ack.Error,
				nil,
			)
		}
		return ack, nil
	case <-b.closed:
		b.forget(cmd.ID)
		return Ack{}, errors.NewBridgeError(errors.ErrCodeBridgeClosed, "bridge closed", nil)
	case <-ctx.Done():
		b.forget(cmd.ID)
		return Ack{}, ctx.Err()
	}
}

func (b *WebSocketBridge) forget(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

// SetTitle implements Bridge.
func (b *WebSocketBridge) SetTitle(ctx context.Context, title string) error {
	_, err := b.call(ctx, Command{Type: CommandSetTitle, Title: title})
	if err != nil {
		return err
	}

	b.logger.Debug(ctx, "title set", "title", title)

	return nil
}

// ProcessHeadContent implements Bridge. Clients may omit the discovered
// title from the ack; in that case the markup is scanned locally.
func (b *WebSocketBridge) ProcessHeadContent(ctx context.Context, ref ContentRef, suffix string) (string, error) {
	ack, err := b.call(ctx, Command{
		Type:   CommandProcessHeadContent,
		Ref:    &ref,
		Suffix: suffix,
	})
	if err != nil {
		return "", err
	}

	title := ack.Title
	if title == "" {
		title, _ = ExtractTitle(ref.Markup)
	}

	return title, nil
}

// Close implements Bridge. Pending calls settle with a bridge-closed error.
func (b *WebSocketBridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		if b.conn != nil {
			err = b.conn.Close(websocket.StatusNormalClosure, "bridge closed")
		}
	})

	return err
}
