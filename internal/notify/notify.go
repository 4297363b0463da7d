// Package notify keeps browser push subscriptions and delivers Web Push
// notifications to them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/metrics"
)

// Notification defaults.
const (
	DefaultIcon = "/static/icon.svg"
	DefaultURL  = "/"

	defaultConcurrency = 10
)

var (
	// ErrNotSubscribed is returned when unsubscribing an unknown endpoint.
	ErrNotSubscribed = errors.New("subscription not found")

	// ErrInvalidSubscription is returned for a subscription without an endpoint or keys.
	ErrInvalidSubscription = errors.New("subscription requires endpoint and keys")

	// ErrInvalidNotification is returned when title or body is missing.
	ErrInvalidNotification = errors.New("title and body are required")
)

// Keys are the client's encryption keys.
type Keys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Subscription is a browser PushSubscription.
type Subscription struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     Keys   `json:"keys"`
}

// Notification is the message shown by the service worker.
type Notification struct {
	Title string `json:"title" validate:"required"`
	Body  string `json:"body" validate:"required"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Result counts the outcome of a Send.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Sender delivers one encrypted push message and reports the push
// service's HTTP status.
type Sender interface {
	Push(ctx context.Context, payload []byte, sub Subscription) (int, error)
}

// Service is an in-memory subscription registry keyed by endpoint.
type Service struct {
	mu     sync.RWMutex
	subs   map[string]Subscription
	sender Sender
}

// New creates a Service that delivers through sender.
func New(sender Sender) *Service {
	return &Service{subs: make(map[string]Subscription), sender: sender}
}

// Subscribe registers sub, replacing any subscription with the same endpoint.
func (s *Service) Subscribe(sub Subscription) error {
	if strings.TrimSpace(sub.Endpoint) == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
		return ErrInvalidSubscription
	}

	s.mu.Lock()
	s.subs[sub.Endpoint] = sub
	s.mu.Unlock()
	return nil
}

// Unsubscribe removes the subscription for endpoint.
func (s *Service) Unsubscribe(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subs[endpoint]; !ok {
		return ErrNotSubscribed
	}
	delete(s.subs, endpoint)
	return nil
}

// Count returns the number of registered subscriptions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Send delivers n to every subscription concurrently. Subscriptions the
// push service reports as gone (404, 410) are removed. Individual delivery
// failures are counted, not returned.
func (s *Service) Send(ctx context.Context, n Notification) (Result, error) {
	if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Body) == "" {
		return Result{}, ErrInvalidNotification
	}
	if n.Icon == "" {
		n.Icon = DefaultIcon
	}
	if n.URL == "" {
		n.URL = DefaultURL
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return Result{}, fmt.Errorf("encoding notification: %w", err)
	}

	s.mu.RLock()
	targets := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		targets = append(targets, sub)
	}
	s.mu.RUnlock()

	var (
		mu     sync.Mutex
		result Result
		gone   []string
	)

	var g errgroup.Group
	g.SetLimit(defaultConcurrency)
	for _, sub := range targets {
		g.Go(func() error {
			status, err := s.sender.Push(ctx, payload, sub)
			ok := err == nil && status >= 200 && status < 300

			mu.Lock()
			defer mu.Unlock()
			if ok {
				result.Sent++
				metrics.PushDeliveries.WithLabelValues("ok").Inc()
				return nil
			}
			result.Failed++
			metrics.PushDeliveries.WithLabelValues("error").Inc()
			if status == http.StatusNotFound || status == http.StatusGone {
				gone = append(gone, sub.Endpoint)
			}
			logging.Ctx(ctx).Warn().Err(err).Int("status", status).Msg("push delivery failed")
			return nil
		})
	}
	_ = g.Wait()

	if len(gone) > 0 {
		s.mu.Lock()
		for _, endpoint := range gone {
			delete(s.subs, endpoint)
		}
		s.mu.Unlock()
	}
	return result, nil
}
