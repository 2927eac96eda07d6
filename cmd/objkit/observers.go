package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/c360/objkit/config"
	"github.com/c360/objkit/errors"
	"github.com/c360/objkit/metric"
	"github.com/c360/objkit/natsclient"
	"github.com/c360/objkit/observable"
	"github.com/c360/objkit/observer"
)

// observers is the set subscribed to every trained clone.
type observers struct {
	list     []observable.Observer
	recorder *observer.Recorder
	latest   *observer.Latest
	nats     *observer.NATS
	ws       *observer.WebSocket
	client   *natsclient.Client
	logger   *slog.Logger
}

// newObservers builds the configured observers. When the WebSocket observer
// is enabled it is mounted on srv, which must not be started yet.
func newObservers(ctx context.Context, cfg *config.Config, logger *slog.Logger, registry *metric.MetricsRegistry, srv *metric.Server) (*observers, error) {
	o := &observers{logger: logger}

	var logged observable.Observer = observer.NewLogger(logger, slog.LevelDebug)
	if cfg.Observers.RateLimit > 0 {
		logged = observer.NewRateLimited(logged, cfg.Observers.RateLimit, cfg.Observers.Burst)
	}
	o.list = append(o.list, logged)

	m, err := observer.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("metrics observer: %w", err)
	}
	o.list = append(o.list, m)

	if cfg.Observers.BufferSize > 0 {
		o.recorder = observer.NewRecorder(cfg.Observers.BufferSize)
		o.list = append(o.list, o.recorder)
	}
	if cfg.Observers.LatestSize > 0 {
		if o.latest, err = observer.NewLatest(cfg.Observers.LatestSize); err != nil {
			return nil, fmt.Errorf("latest observer: %w", err)
		}
		o.list = append(o.list, o.latest)
	}

	if ws := cfg.Observers.WebSocket; ws.Enabled {
		if srv == nil {
			return nil, fmt.Errorf("websocket observer needs the metrics server")
		}
		o.ws = observer.NewWebSocket(observer.WithWebSocketLogger(logger))
		srv.Handle(ws.Path, o.ws)
		o.list = append(o.list, o.ws)
		logger.Info("Streaming observations over WebSocket", "path", ws.Path)
	}

	if url := cfg.Observers.NATS.URL; url != "" {
		o.client = natsclient.New(url, natsclient.WithName(appName), natsclient.WithLogger(logger))
		logger.Info("Connecting to NATS", "url", url)
		if err := o.client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		rc := errors.DefaultRetryConfig()
		rc.MaxRetries = cfg.Observers.NATS.MaxRetries
		o.nats = observer.NewNATS(o.client, cfg.Observers.NATS.Subject,
			observer.WithRetry(rc.ToRetryConfig()),
			observer.WithNATSLogger(logger))
		o.list = append(o.list, o.nats)
	}
	return o, nil
}

// Subscribe attaches every observer to target and returns the ids.
func (o *observers) Subscribe(target interface {
	Subscribe(observable.Observer) observable.SubscriptionID
}) []observable.SubscriptionID {
	ids := make([]observable.SubscriptionID, 0, len(o.list))
	for _, obs := range o.list {
		ids = append(ids, target.Subscribe(obs))
	}
	return ids
}

// Close releases stored observations, disconnects WebSocket clients and
// drains the NATS connection.
func (o *observers) Close() {
	if o.recorder != nil {
		o.recorder.Reset()
	}
	if o.latest != nil {
		o.latest.Reset()
	}
	if o.ws != nil {
		o.ws.Close()
		o.logger.Info("WebSocket observer finished",
			"sent", o.ws.Sent(),
			"dropped", o.ws.Dropped())
	}
	if o.client == nil {
		return
	}
	if err := o.client.Close(); err != nil {
		o.logger.Warn("NATS close failed", "error", err)
	}
	o.logger.Info("NATS observer finished",
		"published", o.nats.Published(),
		"failed", o.nats.Failed())
}
