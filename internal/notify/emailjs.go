package notify

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

const defaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSSender posts messages to the EmailJS REST relay. The template is
// expected to route on {{to_email}} and render {{name}}, {{email}} and
// {{message}}.
type EmailJSSender struct {
	endpoint  string
	serviceID string
	publicKey string
	http      *http.Client
}

func NewEmailJSSender(serviceID, publicKey string) *EmailJSSender {
	return &EmailJSSender{
		endpoint:  defaultEmailJSEndpoint,
		serviceID: strings.TrimSpace(serviceID),
		publicKey: strings.TrimSpace(publicKey),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithEndpoint overrides the relay URL; used by tests.
func (s *EmailJSSender) WithEndpoint(endpoint string) *EmailJSSender {
	s.endpoint = endpoint
	return s
}

func (s *EmailJSSender) Send(ctx context.Context, msg Message) error {
	if s.serviceID == "" || s.publicKey == "" {
		return errors.New("emailjs relay not configured")
	}
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New("notification has no recipient")
	}

	payload := map[string]any{
		"service_id":  s.serviceID,
		"template_id": msg.TemplateID,
		"user_id":     s.publicKey,
		"template_params": map[string]string{
			"name":     msg.Name,
			"email":    msg.Email,
			"to_email": msg.ToEmail,
			"message":  msg.Body,
		},
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("emailjs relay returned %d", resp.StatusCode)
	}
	return nil
}
