// Package mock serves canned JSON responses so a job can be exercised
// locally before pointing it at a real service.
package mock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type compiledRoute struct {
	Route
	re *regexp.Regexp
}

// Server is the local target HTTP server
type Server struct {
	routes     []compiledRoute
	logger     *zap.Logger
	httpServer *http.Server
	hits       atomic.Uint64
	misses     atomic.Uint64
}

// NewServer validates config and creates a server
func NewServer(config *Config, logger *zap.Logger) (*Server, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{logger: logger}
	for _, route := range config.Routes {
		cr := compiledRoute{Route: route}
		if route.PathType == "regex" {
			cr.re = regexp.MustCompile(route.Path)
		}
		s.routes = append(s.routes, cr)
	}
	return s, nil
}

// Handler returns the routing handler
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handleRequest)
}

// Start binds addr and serves in the background. It returns the bound
// address, which differs from addr when the port is 0.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("target server error", zap.Error(err))
		}
	}()

	return ln.Addr().String(), nil
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// Hits returns how many requests matched a route
func (s *Server) Hits() uint64 {
	return s.hits.Load()
}

// Misses returns how many requests matched no route
func (s *Server) Misses() uint64 {
	return s.misses.Load()
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	r.Body.Close()

	route := s.findMatchingRoute(r.Method, r.URL.Path)
	if route == nil {
		s.misses.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, `{"error":"no route for %s %s"}`, r.Method, r.URL.Path)
		s.logger.Debug("no route", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		return
	}
	s.hits.Add(1)

	if route.DelayMs > 0 {
		select {
		case <-time.After(time.Duration(route.DelayMs) * time.Millisecond):
		case <-r.Context().Done():
			return
		}
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}

	w.Header().Set("Content-Type", "application/json")
	for key, value := range route.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(route.Body))
}

// findMatchingRoute finds the first route that matches the method and path
func (s *Server) findMatchingRoute(method, path string) *compiledRoute {
	for i := range s.routes {
		route := &s.routes[i]
		if route.Method != "*" && !strings.EqualFold(route.Method, method) {
			continue
		}

		matched := false
		switch route.PathType {
		case "", "exact":
			matched = route.Path == path
		case "prefix":
			matched = strings.HasPrefix(path, route.Path)
		case "regex":
			matched = route.re.MatchString(path)
		}

		if matched {
			return route
		}
	}

	return nil
}
