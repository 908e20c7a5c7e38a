package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/common"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/kline"
	"github.com/thrasher-corp/swingtrader/log"
)

// NewClient returns a feed client for the settings
func NewClient(s *config.FeedSettings, h Handler) (*Client, error) {
	if err := common.NilGuard(s, h); err != nil {
		return nil, err
	}
	if !s.Enabled {
		return nil, errFeedDisabled
	}
	if s.URL == "" {
		return nil, errNoURL
	}
	delay := s.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	return &Client{
		url:            s.URL,
		reconnectDelay: delay,
		dialer:         &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		handler:        h,
	}, nil
}

// IsConnected reports whether a connection is open
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// Received returns the number of ticks handed to the handler
func (c *Client) Received() int64 {
	return c.received.Load()
}

// Run reads ticks until ctx is done, reconnecting after the delay whenever
// the connection drops
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.read(ctx)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Warnf(log.Feed, "feed %s dropped: %v, reconnecting in %v", c.url, err, c.reconnectDelay)
		t := time.NewTimer(c.reconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) read(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("feed connection %v %v: %w", c.url, resp.StatusCode, err)
		}
		return fmt.Errorf("feed connection %v: %w", c.url, err)
	}
	defer resp.Body.Close()
	c.connected.Store(true)
	defer c.connected.Store(false)
	log.Infof(log.Feed, "feed connected to %s", c.url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-done:
		}
	}()
	defer conn.Close()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		ticks, err := ParseTicks(msg)
		if err != nil {
			log.Warnf(log.Feed, "feed %s: %v", c.url, err)
			continue
		}
		for i := range ticks {
			c.received.Add(1)
			if err := c.handler(ctx, ticks[i]); err != nil {
				log.Errorf(log.Feed, "handling %s tick: %v", ticks[i].Symbol, err)
			}
		}
	}
}

// ParseTicks decodes a tick object or an array of tick objects. A tick holds
// a symbol, a price as a string or number and either an RFC3339 time or a
// millisecond timestamp
func ParseTicks(data []byte) ([]kline.Tick, error) {
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTick, err)
	}
	switch dataType {
	case jsonparser.Object:
		t, err := parseTick(data)
		if err != nil {
			return nil, err
		}
		return []kline.Tick{t}, nil
	case jsonparser.Array:
		var resp []kline.Tick
		var errs error
		_, err := jsonparser.ArrayEach(data, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
			if vt != jsonparser.Object {
				errs = common.AppendError(errs, fmt.Errorf("%w: array element %s", ErrMalformedTick, vt))
				return
			}
			t, err := parseTick(value)
			if err != nil {
				errs = common.AppendError(errs, err)
				return
			}
			resp = append(resp, t)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTick, err)
		}
		return resp, errs
	}
	return nil, fmt.Errorf("%w: unexpected %s", ErrMalformedTick, dataType)
}

func parseTick(data []byte) (kline.Tick, error) {
	var t kline.Tick
	symbol, err := jsonparser.GetString(data, "symbol")
	if err != nil || symbol == "" {
		return t, fmt.Errorf("%w: missing symbol", ErrMalformedTick)
	}
	t.Symbol = symbol
	raw, vt, _, err := jsonparser.Get(data, "price")
	if err != nil || (vt != jsonparser.String && vt != jsonparser.Number) {
		return t, fmt.Errorf("%w: %s missing price", ErrMalformedTick, symbol)
	}
	if t.Price, err = decimal.NewFromString(string(raw)); err != nil || !t.Price.IsPositive() {
		return t, fmt.Errorf("%w: %s price %q", ErrMalformedTick, symbol, raw)
	}
	switch ts, err := jsonparser.GetString(data, "time"); {
	case err == nil:
		if t.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return t, fmt.Errorf("%w: %s time %q", ErrMalformedTick, symbol, ts)
		}
	case errors.Is(err, jsonparser.KeyPathNotFoundError):
		ms, err := jsonparser.GetInt(data, "timestamp")
		if err != nil {
			return t, fmt.Errorf("%w: %s missing time", ErrMalformedTick, symbol)
		}
		t.Time = time.UnixMilli(ms).UTC()
	default:
		return t, fmt.Errorf("%w: %s time: %v", ErrMalformedTick, symbol, err)
	}
	return t, nil
}
