// Package apiserver exposes the portfolio ledger and the manual close
// operation over a small REST interface
package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/thrasher-corp/swingtrader/config"
	"github.com/thrasher-corp/swingtrader/log"
	"github.com/thrasher-corp/swingtrader/portfolio"
	"github.com/thrasher-corp/swingtrader/portfolio/lifecycle"
)

// New returns a server bound to the controller
func New(s *config.APISettings, c Controller) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: api settings", errNilController)
	}
	if c == nil {
		return nil, errNilController
	}
	if s.ListenAddress == "" {
		return nil, errNoListenAddr
	}
	srv := &Server{
		listenAddr: s.ListenAddress,
		controller: c,
		now:        time.Now,
	}
	srv.router = srv.newRouter()
	return srv, nil
}

// Handler returns the server's router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		log.Infof(log.APIServer, "REST server listening on http://%s", s.listenAddr)
		errs <- httpServer.ListenAndServe()
	}()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Infoln(log.APIServer, "REST server stopped")
	return nil
}

func (s *Server) routes() []Route {
	return []Route{
		{"Index", http.MethodGet, "/", s.getIndex},
		{"GetPortfolio", http.MethodGet, "/portfolio", s.getPortfolio},
		{"GetPositions", http.MethodGet, "/positions", s.getPositions},
		{"GetPosition", http.MethodGet, "/positions/{id}", s.getPosition},
		{"ClosePosition", http.MethodPost, "/positions/{id}/close", s.closePosition},
		{"Metrics", http.MethodGet, "/metrics", promhttp.Handler().ServeHTTP},
	}
}

func (s *Server) newRouter() *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	for _, route := range s.routes() {
		router.
			Methods(route.Method).
			Path(route.Pattern).
			Name(route.Name).
			Handler(RESTLogger(route.HandlerFunc, route.Name))
	}
	return router
}

// RESTLogger logs the requests internally
func RESTLogger(inner http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inner.ServeHTTP(w, r)
		log.Debugf(log.APIServer, "%s\t%s\t%s\t%s", r.Method, r.RequestURI, name, time.Since(start))
	})
}

func (s *Server) getIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"endpoints": {"/portfolio", "/positions", "/positions/{id}", "/positions/{id}/close", "/metrics"},
	})
}

func (s *Server) getPortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Ledger().Snapshot())
}

func (s *Server) getPositions(w http.ResponseWriter, r *http.Request) {
	ledger := s.controller.Ledger()
	state := portfolio.State(strings.ToUpper(r.URL.Query().Get("state")))
	var resp []portfolio.Position
	switch state {
	case "":
		resp = append(ledger.Positions(portfolio.Pending), ledger.Positions(portfolio.Open)...)
	case portfolio.Pending, portfolio.Open:
		resp = ledger.Positions(state)
	case portfolio.Closed:
		resp = ledger.Closed()
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w %q", errInvalidState, state))
		return
	}
	if resp == nil {
		resp = []portfolio.Position{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getPosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := s.controller.Ledger().Position(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w %s", portfolio.ErrPositionNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) closePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	price := decimal.Zero
	if raw := r.URL.Query().Get("price"); raw != "" {
		var err error
		price, err = decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w %q", errInvalidPrice, raw))
			return
		}
	}
	exit, err := s.controller.ClosePosition(r.Context(), id, price, s.now())
	switch {
	case errors.Is(err, portfolio.ErrPositionNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil && exit == nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	case err != nil:
		log.Errorf(log.APIServer, "position %s closed but exit submission failed: %v", id, err)
	}
	writeJSON(w, http.StatusOK, exit)
}

func writeJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Errorf(log.APIServer, "failed to send JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
