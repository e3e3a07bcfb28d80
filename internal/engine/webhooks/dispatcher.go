package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/metrics"
)

const (
	HeaderSignature = "X-Orgconsole-Signature"
	HeaderEvent     = "X-Orgconsole-Event"
	HeaderDelivery  = "X-Orgconsole-Delivery"
)

// Endpoint receives signed event deliveries. An empty Events list subscribes
// to every action.
type Endpoint struct {
	URL    string
	Secret string
	Events []string
}

func (e Endpoint) subscribed(action string) bool {
	if len(e.Events) == 0 {
		return true
	}
	for _, ev := range e.Events {
		if ev == action {
			return true
		}
	}
	return false
}

// Event is the body POSTed to an endpoint.
type Event struct {
	ID             string      `json:"id"`
	Event          string      `json:"event"`
	OrganizationID string      `json:"organization_id"`
	Timestamp      int64       `json:"timestamp"`
	Data           audit.Entry `json:"data"`
}

type Option func(*Dispatcher)

func WithClient(c *http.Client) Option {
	return func(d *Dispatcher) { d.client = c }
}

// WithRetry sets the delivery attempts per endpoint and the pause between them.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(d *Dispatcher) {
		if attempts > 0 {
			d.attempts = attempts
		}
		d.backoff = backoff
	}
}

// Dispatcher forwards audit entries to subscribed endpoints. Deliveries run in
// the background; Record never blocks on the network.
type Dispatcher struct {
	endpoints []Endpoint
	client    *http.Client
	attempts  int
	backoff   time.Duration
	logger    zerolog.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(endpoints []Endpoint, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		endpoints: endpoints,
		client:    &http.Client{Timeout: 10 * time.Second},
		attempts:  3,
		backoff:   time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Record implements the engine's auditor contract.
func (d *Dispatcher) Record(ctx context.Context, e audit.Entry) {
	if len(d.endpoints) == 0 {
		return
	}

	event := Event{
		ID:             "evt_" + uuid.New().String(),
		Event:          e.Action,
		OrganizationID: e.OrganizationID,
		Timestamp:      time.Now().Unix(),
		Data:           e,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error().Err(err).Str("event", e.Action).Msg("failed to encode webhook event")
		return
	}

	// Deliveries outlive the request that triggered them.
	ctx = context.WithoutCancel(ctx)
	for _, ep := range d.endpoints {
		if !ep.subscribed(e.Action) {
			continue
		}
		d.wg.Add(1)
		go func(ep Endpoint) {
			defer d.wg.Done()
			d.deliver(ctx, ep, event, payload)
		}(ep)
	}
}

// Wait blocks until in-flight deliveries finish or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ep Endpoint, event Event, payload []byte) {
	log := d.logger.With().Str("endpoint", ep.URL).Str("event", event.Event).Str("delivery", event.ID).Logger()
	signature := Sign(ep.Secret, payload)

	var err error
	for attempt := 1; attempt <= d.attempts; attempt++ {
		if attempt > 1 && d.backoff > 0 {
			time.Sleep(d.backoff * time.Duration(attempt-1))
		}
		if err = d.post(ctx, ep.URL, event, payload, signature); err == nil {
			metrics.IncWebhookDelivery("success")
			log.Debug().Int("attempt", attempt).Msg("webhook delivered")
			return
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("webhook delivery failed")
	}
	metrics.IncWebhookDelivery("error")
	log.Error().Err(err).Msg("webhook delivery abandoned")
}

func (d *Dispatcher) post(ctx context.Context, url string, event Event, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSignature, signature)
	req.Header.Set(HeaderEvent, event.Event)
	req.Header.Set(HeaderDelivery, event.ID)
	req.Header.Set("X-Orgconsole-Timestamp", strconv.FormatInt(event.Timestamp, 10))

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}
