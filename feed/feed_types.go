package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thrasher-corp/swingtrader/kline"
)

// DefaultReconnectDelay is used when the settings carry no delay
const DefaultReconnectDelay = 5 * time.Second

var (
	// ErrMalformedTick is returned for messages that do not decode into ticks
	ErrMalformedTick = errors.New("malformed tick")

	errNoURL        = errors.New("feed url is empty")
	errFeedDisabled = errors.New("feed disabled")
)

// Handler receives each decoded tick
type Handler func(ctx context.Context, t kline.Tick) error

// Client streams ticks from a websocket, reconnecting until its context ends
type Client struct {
	url            string
	reconnectDelay time.Duration
	dialer         *websocket.Dialer
	handler        Handler
	connected      atomic.Bool
	received       atomic.Int64
}
