package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"adaptt/internal/config"
)

// TwilioGateway implements Gateway against the Twilio Messages REST API.
type TwilioGateway struct {
	cfg        config.TwilioConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewTwilioGateway(cfg config.TwilioConfig, logger *zap.Logger) *TwilioGateway {
	return &TwilioGateway{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (g *TwilioGateway) SendSMS(ctx context.Context, message, to string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", g.cfg.FromNumber)
	form.Set("Body", message)

	sid, err := g.post(ctx, form)
	if err != nil {
		g.logger.Error("Failed to send SMS", zap.String("to", to), zap.Error(err))
		return "", err
	}

	g.logger.Info("SMS sent", zap.String("to", to), zap.String("message_sid", sid))
	return sid, nil
}

func (g *TwilioGateway) SendWhatsApp(ctx context.Context, message, to, contentSID string, variables map[string]string) (string, error) {
	form := url.Values{}
	form.Set("To", "whatsapp:"+to)
	form.Set("From", "whatsapp:"+g.cfg.FromNumber)
	form.Set("Body", message)
	if contentSID != "" {
		form.Set("ContentSid", contentSID)
		if len(variables) > 0 {
			vars, err := json.Marshal(variables)
			if err != nil {
				return "", err
			}
			form.Set("ContentVariables", string(vars))
		}
	}

	sid, err := g.post(ctx, form)
	if err != nil {
		g.logger.Error("Failed to send WhatsApp message", zap.String("to", to), zap.Error(err))
		return "", err
	}

	g.logger.Info("WhatsApp message sent", zap.String("to", to), zap.String("message_sid", sid))
	return sid, nil
}

func (g *TwilioGateway) post(ctx context.Context, form url.Values) (string, error) {
	if g.cfg.AccountSID == "" || g.cfg.AuthToken == "" {
		return "", fmt.Errorf("carrier credentials not configured")
	}
	if g.cfg.FromNumber == "" {
		return "", fmt.Errorf("carrier sender number not configured")
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", g.cfg.BaseURL, g.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.cfg.AccountSID, g.cfg.AuthToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		SID     string `json:"sid"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("carrier returned status %d", resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("carrier returned status %d: %s", resp.StatusCode, body.Message)
	}

	return body.SID, nil
}
