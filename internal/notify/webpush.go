package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

const pushTTL = 60 * 60 * 24 // seconds

// VAPIDConfig holds the application server keys.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto: or https: contact
}

// WebPush sends messages with VAPID authentication.
type WebPush struct {
	cfg        VAPIDConfig
	httpClient *http.Client
}

// NewWebPush creates a WebPush sender.
func NewWebPush(cfg VAPIDConfig) *WebPush {
	return &WebPush{cfg: cfg, httpClient: http.DefaultClient}
}

// Push implements Sender.
func (w *WebPush) Push(ctx context.Context, payload []byte, sub Subscription) (int, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      w.httpClient,
		Subscriber:      w.cfg.Subject,
		VAPIDPublicKey:  w.cfg.PublicKey,
		VAPIDPrivateKey: w.cfg.PrivateKey,
		TTL:             pushTTL,
	})
	if err != nil {
		return 0, fmt.Errorf("sending push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("push service returned %s", resp.Status)
	}
	return resp.StatusCode, nil
}

// GenerateVAPIDKeys returns a new VAPID key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	if err != nil {
		return "", "", fmt.Errorf("generating VAPID keys: %w", err)
	}
	return publicKey, privateKey, nil
}
