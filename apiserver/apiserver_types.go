package apiserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/eventtypes/order"
	"github.com/thrasher-corp/swingtrader/portfolio"
)

const shutdownTimeout = 5 * time.Second

var (
	errNilController = errors.New("nil controller")
	errNoListenAddr  = errors.New("listen address is empty")
	errInvalidState  = errors.New("invalid position state filter")
	errInvalidPrice  = errors.New("invalid close price")
)

// Controller is the engine surface the server exposes
type Controller interface {
	Ledger() *portfolio.Ledger
	ClosePosition(ctx context.Context, id string, price decimal.Decimal, t time.Time) (*order.ExitInstruction, error)
}

// Route is a single REST endpoint
type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
}

// Server serves the read-only portfolio view and manual closes over HTTP
type Server struct {
	listenAddr string
	controller Controller
	now        func() time.Time
	router     http.Handler
}

// ErrorResponse is returned with every non 2xx status
type ErrorResponse struct {
	Error string `json:"error"`
}
