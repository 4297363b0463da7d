package notify

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
)

type fakeSender struct {
	calls    atomic.Int32
	statuses map[string]int // endpoint -> status, 201 when absent
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeSender) Push(_ context.Context, payload []byte, sub Subscription) (int, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()

	status, ok := f.statuses[sub.Endpoint]
	if !ok {
		return http.StatusCreated, nil
	}
	if status >= 300 {
		return status, errors.New("push failed")
	}
	return status, nil
}

func sub(endpoint string) Subscription {
	return Subscription{Endpoint: endpoint, Keys: Keys{P256dh: "pub", Auth: "auth"}}
}

func TestSubscribe(t *testing.T) {
	s := New(&fakeSender{})

	if err := s.Subscribe(sub("https://push.example/a")); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := s.Subscribe(sub("https://push.example/a")); err != nil {
		t.Fatalf("Subscribe() again error = %v", err)
	}
	if got := s.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}

	invalid := []Subscription{
		{Keys: Keys{P256dh: "p", Auth: "a"}},
		{Endpoint: "https://push.example/b"},
		{Endpoint: "https://push.example/b", Keys: Keys{P256dh: "p"}},
	}
	for _, in := range invalid {
		if err := s.Subscribe(in); !errors.Is(err, ErrInvalidSubscription) {
			t.Errorf("Subscribe(%+v) error = %v, want ErrInvalidSubscription", in, err)
		}
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New(&fakeSender{})
	_ = s.Subscribe(sub("https://push.example/a"))

	if err := s.Unsubscribe("https://push.example/a"); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := s.Unsubscribe("https://push.example/a"); !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("Unsubscribe() again error = %v, want ErrNotSubscribed", err)
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
}

func TestSend(t *testing.T) {
	sender := &fakeSender{statuses: map[string]int{
		"https://push.example/gone":    http.StatusGone,
		"https://push.example/missing": http.StatusNotFound,
		"https://push.example/flaky":   http.StatusInternalServerError,
	}}
	s := New(sender)
	for _, e := range []string{"ok1", "ok2", "gone", "missing", "flaky"} {
		_ = s.Subscribe(sub("https://push.example/" + e))
	}

	got, err := s.Send(context.Background(), Notification{Title: "New picks", Body: "Fresh songs"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got.Sent != 2 || got.Failed != 3 {
		t.Errorf("Send() = %+v, want 2 sent, 3 failed", got)
	}
	if sender.calls.Load() != 5 {
		t.Errorf("calls = %d, want 5", sender.calls.Load())
	}
	// Gone and missing endpoints are dropped; a server error is kept.
	if s.Count() != 3 {
		t.Errorf("Count() = %d, want 3", s.Count())
	}

	var n Notification
	if err := json.Unmarshal(sender.payloads[0], &n); err != nil {
		t.Fatal(err)
	}
	if n.Icon != DefaultIcon || n.URL != DefaultURL || n.Title != "New picks" {
		t.Errorf("payload = %+v, want defaults applied", n)
	}
}

func TestSend_Validation(t *testing.T) {
	sender := &fakeSender{}
	s := New(sender)
	_ = s.Subscribe(sub("https://push.example/a"))

	for _, n := range []Notification{{Body: "b"}, {Title: "t"}, {Title: "  ", Body: "b"}} {
		if _, err := s.Send(context.Background(), n); !errors.Is(err, ErrInvalidNotification) {
			t.Errorf("Send(%+v) error = %v, want ErrInvalidNotification", n, err)
		}
	}
	if sender.calls.Load() != 0 {
		t.Errorf("calls = %d, want 0", sender.calls.Load())
	}
}

func TestSend_NoSubscribers(t *testing.T) {
	got, err := New(&fakeSender{}).Send(context.Background(), Notification{Title: "t", Body: "b", Icon: "/i.png", URL: "/x"})
	if err != nil || got != (Result{}) {
		t.Errorf("Send() = %+v, %v; want zero result", got, err)
	}
}

func TestWebPush(t *testing.T) {
	var (
		requests atomic.Int32
		authz    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		authz = r.Header.Get("Authorization")
		_, _ = io.Copy(io.Discard, r.Body)
		if strings.HasSuffix(r.URL.Path, "/expired") {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	public, private, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatal(err)
	}
	sender := NewWebPush(VAPIDConfig{PublicKey: public, PrivateKey: private, Subject: "mailto:test@example.com"})

	client, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	secret := make([]byte, 16)
	_, _ = rand.Read(secret)
	keys := Keys{
		P256dh: base64.RawURLEncoding.EncodeToString(client.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(secret),
	}

	status, err := sender.Push(context.Background(), []byte(`{"title":"t"}`), Subscription{Endpoint: srv.URL + "/push/ok", Keys: keys})
	if err != nil || status != http.StatusCreated {
		t.Fatalf("Push() = %d, %v", status, err)
	}
	if !strings.HasPrefix(authz, "vapid ") {
		t.Errorf("Authorization = %q, want vapid scheme", authz)
	}

	status, err = sender.Push(context.Background(), []byte(`{"title":"t"}`), Subscription{Endpoint: srv.URL + "/push/expired", Keys: keys})
	if err == nil || status != http.StatusGone {
		t.Errorf("Push(expired) = %d, %v; want 410 and error", status, err)
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2", requests.Load())
	}
}
