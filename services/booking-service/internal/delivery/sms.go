package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SMSWebhookSink posts {"to", "body"} to an SMS gateway webhook.
type SMSWebhookSink struct {
	url   string
	token string
	http  *http.Client
}

func NewSMSWebhookSink(url string, token string) *SMSWebhookSink {
	return &SMSWebhookSink{
		url:   strings.TrimSpace(url),
		token: strings.TrimSpace(token),
		http: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (s *SMSWebhookSink) Deliver(ctx context.Context, r Reminder) error {
	if s.url == "" {
		return errors.New("sms webhook url not configured")
	}
	to := strings.TrimSpace(r.Phone)
	if to == "" {
		return ErrNoRecipient
	}
	raw, err := json.Marshal(map[string]string{
		"to":   to,
		"body": r.Message,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}
	return nil
}
