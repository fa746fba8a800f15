package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server exposes the collectors on /metrics
type Server struct {
	srv *http.Server
}

// Start listens on address; an empty address disables the listener
func Start(address string) *Server {
	if address == "" {
		logrus.Info("Metrics disabled")
		return &Server{}
	}
	rtr := http.NewServeMux()
	rtr.Handle("/metrics", promhttp.Handler())

	s := &Server{srv: &http.Server{Addr: address, Handler: rtr}}
	go func() {
		logrus.WithField("address", address).Info("Started metrics listener")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("metrics listener stopped")
		}
	}()
	return s
}

// Stop shuts the listener down
func (s *Server) Stop() {
	if s == nil || s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Warn("metrics listener shutdown")
	}
}
