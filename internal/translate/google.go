package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// Google talks to the public translate_a/single endpoint used by the web
// client (client=gtx). No key is needed; the service throttles aggressively.
type Google struct {
	baseURL   string
	transport *transport
}

func NewGoogle(baseURL string, opts HTTPOptions) *Google {
	return &Google{
		baseURL:   strings.TrimRight(baseURL, "/"),
		transport: newTransport("google", opts),
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) Translate(ctx context.Context, text, from, to string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	u, err := url.Parse(g.baseURL + "/translate_a/single")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("client", "gtx")
	q.Set("sl", from)
	q.Set("tl", to)
	q.Set("dt", "t")
	q.Set("q", text)
	u.RawQuery = q.Encode()

	body, err := g.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	return parseGoogleResponse(body)
}

// parseGoogleResponse joins the translated segments of
// [[["Hello","Bonjour",null,null,10],...],null,"fr",...].
func parseGoogleResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.New("google translate: invalid json response")
	}
	segments := gjson.GetBytes(body, "0")
	if !segments.IsArray() {
		return "", errors.New("google translate: no segments in response")
	}
	var b strings.Builder
	segments.ForEach(func(_, seg gjson.Result) bool {
		b.WriteString(seg.Get("0").String())
		return true
	})
	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", errors.New("google translate: empty translation")
	}
	return out, nil
}
