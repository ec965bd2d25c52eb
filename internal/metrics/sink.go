package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultEndpoint is the Measurement Protocol v1 collector.
const DefaultEndpoint = "https://www.google-analytics.com/collect"

// SinkConfig holds configuration for the metrics sink.
type SinkConfig struct {
	// Enabled false turns the sink into a discard: events are accepted
	// and dropped without touching the network.
	Enabled bool

	Endpoint   string
	TrackingID string
	ClientID   string
	AppName    string
	AppVersion string

	// Timeout bounds each POST. Defaults to 5s.
	Timeout time.Duration
	// QueueSize bounds pending events. Defaults to 256.
	QueueSize int

	// HTTPClient defaults to a client with no timeout of its own.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Stats is a point-in-time view of sink activity.
type Stats struct {
	Enabled bool   `json:"enabled"`
	Queued  int    `json:"queued"`
	Sent    uint64 `json:"sent"`
	Failed  uint64 `json:"failed"`
	Dropped uint64 `json:"dropped"`
}

// Sink is the Collector used by the daemon.
type Sink struct {
	cfg    SinkConfig
	base   url.Values
	queue  *Queue
	client *http.Client
	logger *slog.Logger

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewSink creates a sink. Call Run to start draining.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	base := url.Values{}
	base.Set("v", "1")
	base.Set("tid", cfg.TrackingID)
	base.Set("cid", cfg.ClientID)
	base.Set("an", cfg.AppName)
	base.Set("av", cfg.AppVersion)
	base.Set("aip", "1")
	base.Set("npa", "1")

	return &Sink{
		cfg:    cfg,
		base:   base,
		queue:  NewQueue(cfg.QueueSize),
		client: client,
		logger: logger,
	}
}

// Collect queues ev for delivery. It never blocks.
func (s *Sink) Collect(ev Event) {
	if !s.cfg.Enabled || len(ev) == 0 {
		return
	}
	s.queue.Push(ev)
}

// Stats reports queue and delivery counters.
func (s *Sink) Stats() Stats {
	return Stats{
		Enabled: s.cfg.Enabled,
		Queued:  s.queue.Len(),
		Sent:    s.sent.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.queue.Dropped(),
	}
}

// Run drains the queue until ctx is cancelled. Events still queued at
// shutdown are abandoned.
func (s *Sink) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Debug("metrics disabled")
		<-ctx.Done()
		return nil
	}

	s.logger.Debug("metrics sink started", "endpoint", s.cfg.Endpoint)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("metrics sink stopped", "pending", s.queue.Len())
			return nil
		case <-s.queue.Notify():
		}

		for ctx.Err() == nil {
			ev, ok := s.queue.Pop()
			if !ok {
				break
			}
			if err := s.send(ctx, ev); err != nil {
				s.failed.Add(1)
				s.logger.Warn("metrics send failed", "error", err, "type", ev["t"])
				continue
			}
			s.sent.Add(1)
		}
	}
}

func (s *Sink) send(ctx context.Context, ev Event) error {
	form := make(url.Values, len(s.base)+len(ev))
	for k, v := range s.base {
		form[k] = v
	}
	for k, v := range ev {
		form.Set(k, v)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", fmt.Sprintf("%sBot/%s", s.cfg.AppName, s.cfg.AppVersion))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector returned %s", resp.Status)
	}
	return nil
}
