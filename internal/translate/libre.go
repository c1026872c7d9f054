package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Libre talks to a LibreTranslate server (self-hosted or libretranslate.com).
type Libre struct {
	baseURL   string
	apiKey    string
	transport *transport
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

func NewLibre(baseURL, apiKey string, opts HTTPOptions) *Libre {
	return &Libre{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		transport: newTransport("libre", opts),
	}
}

func (l *Libre) Name() string { return "libre" }

func (l *Libre) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	payload, err := json.Marshal(libreRequest{Q: text, Source: from, Target: to, Format: "text", APIKey: l.apiKey})
	if err != nil {
		return "", err
	}

	body, err := l.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/translate", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("libretranslate: %w", err)
	}

	if msg := gjson.GetBytes(body, "error"); msg.Exists() {
		return "", fmt.Errorf("libretranslate: %s", msg.String())
	}
	out := gjson.GetBytes(body, "translatedText")
	if !out.Exists() || strings.TrimSpace(out.String()) == "" {
		return "", errors.New("libretranslate: empty translation")
	}
	return out.String(), nil
}
