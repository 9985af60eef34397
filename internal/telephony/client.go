// Package telephony is a thin client for the Twilio REST API: outbound
// calls, SMS, WhatsApp messages, and recording downloads. A nil *Client is
// safe to call and reports the provider as unconfigured, so the rest of
// the application does not branch on whether Twilio credentials are set.
package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"businesson_backend/platform/apperr"
	"businesson_backend/platform/config"
	"businesson_backend/platform/logger"
	"businesson_backend/platform/phone"
)

const apiVersion = "2010-04-01"

// Client talks to the Twilio REST API.
type Client struct {
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	publicURL  string
	http       *http.Client
	log        *logger.Logger
}

// CallResult is the provider's view of a placed call.
type CallResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// MessageResult is the provider's view of a sent message.
type MessageResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// NewClient creates a Twilio client. Returns nil when the account SID is
// not configured; all methods tolerate a nil receiver.
func NewClient(cfg config.TwilioConfig, log *logger.Logger) *Client {
	if cfg.GetTwilioAccountSID() == "" {
		return nil
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.GetTwilioBaseURL(), "/"),
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		fromNumber: cfg.GetTwilioPhoneNumber(),
		publicURL:  strings.TrimRight(cfg.GetPublicBaseURL(), "/"),
		http:       &http.Client{Timeout: cfg.GetProviderTimeout()},
		log:        log,
	}
}

// PlaceCall starts an outbound call to the given number. Status changes
// are delivered to the call status webhook.
func (c *Client) PlaceCall(ctx context.Context, toNumber string) (*CallResult, error) {
	if c == nil {
		return nil, apperr.Unavailable("telephony provider is not configured")
	}

	form := url.Values{}
	form.Set("To", phone.NormalizeE164(toNumber))
	form.Set("From", c.fromNumber)
	form.Set("Url", c.publicURL+"/webhooks/twilio/voice")
	form.Set("StatusCallback", c.publicURL+"/webhooks/twilio/call-status")
	form.Set("StatusCallbackEvent", "initiated ringing answered completed")
	form.Set("Record", "true")

	var result CallResult
	if err := c.post(ctx, "Calls", form, &result); err != nil {
		return nil, err
	}

	c.log.Info("call placed", "to", form.Get("To"), "sid", result.SID)
	return &result, nil
}

// SendSMS sends a text message.
func (c *Client) SendSMS(ctx context.Context, toNumber, body string) (*MessageResult, error) {
	if c == nil {
		return nil, apperr.Unavailable("telephony provider is not configured")
	}
	return c.sendMessage(ctx, phone.NormalizeE164(toNumber), c.fromNumber, body)
}

// SendWhatsApp sends a WhatsApp message through Twilio's messaging API.
// Twilio addresses WhatsApp endpoints with a "whatsapp:" prefix.
func (c *Client) SendWhatsApp(ctx context.Context, toNumber, body string) (*MessageResult, error) {
	if c == nil {
		return nil, apperr.Unavailable("telephony provider is not configured")
	}
	to := "whatsapp:" + phone.NormalizeE164(toNumber)
	from := "whatsapp:" + c.fromNumber
	return c.sendMessage(ctx, to, from, body)
}

// DownloadRecording fetches a call recording. The caller must close the
// returned reader.
func (c *Client) DownloadRecording(ctx context.Context, recordingURL string) (io.ReadCloser, error) {
	if c == nil {
		return nil, apperr.Unavailable("telephony provider is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError("twilio", "download_recording", err)
		return nil, apperr.Wrap(apperr.KindUnavailable, "failed to download recording", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer func() {
			_ = resp.Body.Close()
		}()
		data, _ := io.ReadAll(resp.Body)
		return nil, apperr.Unavailable(fmt.Sprintf("recording download returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	return resp.Body, nil
}

func (c *Client) sendMessage(ctx context.Context, to, from, body string) (*MessageResult, error) {
	if c == nil {
		return nil, apperr.Unavailable("telephony provider is not configured")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", body)

	var result MessageResult
	if err := c.post(ctx, "Messages", form, &result); err != nil {
		return nil, err
	}

	c.log.Info("message sent", "to", to, "sid", result.SID)
	return &result, nil
}

func (c *Client) post(ctx context.Context, resource string, form url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s/%s/Accounts/%s/%s.json", c.baseURL, apiVersion, c.accountSID, resource)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.ProviderError("twilio", resource, err)
		return apperr.Wrap(apperr.KindUnavailable, "telephony request failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return apperr.Unavailable(fmt.Sprintf("telephony provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode telephony response: %w", err)
		}
	}

	return nil
}
