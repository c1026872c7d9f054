package translate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"bankreviews/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func fastTransport(t *transport, rt roundTripFunc) {
	t.httpClient = &http.Client{Transport: rt}
	t.limiter = rate.NewLimiter(rate.Inf, 1)
	t.backoffBase = time.Millisecond
}

func TestGoogleTranslateWithRetry(t *testing.T) {
	attempt := 0
	g := NewGoogle("https://translate.example.test/", HTTPOptions{MaxAttempts: 3})
	fastTransport(g.transport, func(r *http.Request) (*http.Response, error) {
		attempt++
		assert.Equal(t, "/translate_a/single", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "fr", q.Get("sl"))
		assert.Equal(t, "en", q.Get("tl"))
		assert.Equal(t, "Très bon service. Merci.", q.Get("q"))
		if attempt == 1 {
			return textResponse(http.StatusServiceUnavailable, "busy"), nil
		}
		return textResponse(http.StatusOK, `[[["Very good service.","Très bon service.",null,null,10],[" Thank you.","Merci.",null,null,10]],null,"fr"]`), nil
	})

	out, err := g.Translate(context.Background(), "Très bon service. Merci.", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Very good service. Thank you.", out)
	assert.Equal(t, 2, attempt)
}

func TestGoogleClientErrorIsNotRetried(t *testing.T) {
	attempt := 0
	g := NewGoogle("https://translate.example.test", HTTPOptions{MaxAttempts: 5})
	fastTransport(g.transport, func(r *http.Request) (*http.Response, error) {
		attempt++
		return textResponse(http.StatusBadRequest, "bad"), nil
	})

	_, err := g.Translate(context.Background(), "bonjour", "fr", "en")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
	assert.Equal(t, 1, attempt)
}

func TestGoogleGivesUpAfterMaxAttempts(t *testing.T) {
	attempt := 0
	g := NewGoogle("https://translate.example.test", HTTPOptions{MaxAttempts: 3})
	fastTransport(g.transport, func(r *http.Request) (*http.Response, error) {
		attempt++
		return nil, errors.New("connection reset")
	})

	_, err := g.Translate(context.Background(), "bonjour", "fr", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, 3, attempt)
}

func TestGoogleRejectsMalformedResponse(t *testing.T) {
	for _, body := range []string{`not json`, `{"a":1}`, `[[],null,"fr"]`} {
		g := NewGoogle("https://translate.example.test", HTTPOptions{MaxAttempts: 1})
		fastTransport(g.transport, func(r *http.Request) (*http.Response, error) {
			return textResponse(http.StatusOK, body), nil
		})
		_, err := g.Translate(context.Background(), "bonjour", "fr", "en")
		assert.Error(t, err, "body %s", body)
	}
}

func TestBlankTextIsNotSent(t *testing.T) {
	g := NewGoogle("https://translate.example.test", HTTPOptions{})
	fastTransport(g.transport, func(r *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := g.Translate(context.Background(), "   ", "fr", "en")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestLibreTranslate(t *testing.T) {
	l := NewLibre("https://libre.example.test/", "secret", HTTPOptions{MaxAttempts: 2})
	fastTransport(l.transport, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/translate", r.URL.Path)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]string{"q": "Agence propre", "source": "fr", "target": "en", "format": "text", "api_key": "secret"}, payload)
		return textResponse(http.StatusOK, `{"translatedText":"Clean branch"}`), nil
	})

	out, err := l.Translate(context.Background(), "Agence propre", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Clean branch", out)
}

func TestLibreRetryResendsBody(t *testing.T) {
	attempt := 0
	l := NewLibre("https://libre.example.test", "", HTTPOptions{MaxAttempts: 2})
	fastTransport(l.transport, func(r *http.Request) (*http.Response, error) {
		attempt++
		blob, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(blob), `"q":"Attente"`)
		assert.NotContains(t, string(blob), "api_key")
		if attempt == 1 {
			return textResponse(http.StatusTooManyRequests, `{"error":"slow down"}`), nil
		}
		return textResponse(http.StatusOK, `{"translatedText":"Waiting"}`), nil
	})

	out, err := l.Translate(context.Background(), "Attente", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "Waiting", out)
}

func TestLibreErrorField(t *testing.T) {
	l := NewLibre("https://libre.example.test", "", HTTPOptions{MaxAttempts: 1})
	fastTransport(l.transport, func(r *http.Request) (*http.Response, error) {
		return textResponse(http.StatusOK, `{"error":"Invalid API key"}`), nil
	})
	_, err := l.Translate(context.Background(), "bonjour", "fr", "en")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

type fakeTranslator struct {
	calls int
	fn    func(text string) (string, error)
}

func (f *fakeTranslator) Name() string { return "fake" }

func (f *fakeTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls++
	return f.fn(text)
}

func TestTranslateAllMissingMarker(t *testing.T) {
	fake := &fakeTranslator{fn: func(text string) (string, error) {
		if text == "boom" {
			return "", errors.New("service exploded")
		}
		return strings.ToUpper(text), nil
	}}
	batch := NewBatch(fake, "fr", "en")

	got := batch.TranslateAll(context.Background(), []string{"un", "boom", "", "deux"})
	require.Len(t, got, 4)
	require.NotNil(t, got[0])
	assert.Equal(t, "UN", *got[0])
	assert.Nil(t, got[1])
	assert.Nil(t, got[2])
	require.NotNil(t, got[3])
	assert.Equal(t, "DEUX", *got[3])
	assert.Equal(t, 3, fake.calls, "blank text must not reach the translator")
	assert.Equal(t, 2, Missing(got))
}

func TestTranslateAllCancelled(t *testing.T) {
	fake := &fakeTranslator{fn: func(text string) (string, error) { return text, nil }}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := NewBatch(fake, "fr", "en").TranslateAll(ctx, []string{"a", "b"})
	assert.Equal(t, []*string{nil, nil}, got)
	assert.Zero(t, fake.calls)
}

func TestBreakerOpensAndRecovers(t *testing.T) {
	fail := true
	fake := &fakeTranslator{fn: func(text string) (string, error) {
		if fail {
			return "", errors.New("down")
		}
		return "ok", nil
	}}
	b := NewBreaker("fake", 2, 20*time.Millisecond)
	tr := WithBreaker(fake, b)
	ctx := context.Background()

	_, _ = tr.Translate(ctx, "x", "fr", "en")
	_, _ = tr.Translate(ctx, "x", "fr", "en")
	assert.Equal(t, StateOpen, b.State())

	_, err := tr.Translate(ctx, "x", "fr", "en")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, fake.calls)

	time.Sleep(30 * time.Millisecond)
	fail = false
	out, err := tr.Translate(ctx, "x", "fr", "en")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "fake", tr.Name())
}

func TestBreakerHalfOpenAllowsSingleTrial(t *testing.T) {
	b := NewBreaker("fake", 1, 10*time.Millisecond)
	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow(), "first caller after cooldown is the trial")
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow(), "second caller must wait for the trial")

	b.release()
	assert.True(t, b.Allow(), "an inconclusive trial frees the slot")

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
	assert.True(t, b.Allow())
}

func TestBreakerDisabled(t *testing.T) {
	b := NewBreaker("off", 0, time.Minute)
	for i := 0; i < 10; i++ {
		b.RecordFailure()
	}
	assert.True(t, b.Allow())
}

type mapCache struct {
	entries map[string]string
}

func (m *mapCache) key(provider, from, to, text string) string {
	return provider + "|" + from + "|" + to + "|" + text
}

func (m *mapCache) GetTranslation(provider, from, to, text string) (string, bool, error) {
	v, ok := m.entries[m.key(provider, from, to, text)]
	return v, ok, nil
}

func (m *mapCache) PutTranslation(provider, from, to, text, translated string) error {
	m.entries[m.key(provider, from, to, text)] = translated
	return nil
}

func TestCachedSkipsProviderOnHit(t *testing.T) {
	fake := &fakeTranslator{fn: func(text string) (string, error) {
		if text == "erreur" {
			return "", errors.New("nope")
		}
		return "hello", nil
	}}
	cache := &mapCache{entries: map[string]string{}}
	tr := NewCached(fake, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := tr.Translate(ctx, "bonjour", "fr", "en")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	}
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "hello", cache.entries["fake|fr|en|bonjour"])

	_, err := tr.Translate(ctx, "erreur", "fr", "en")
	require.Error(t, err)
	_, ok := cache.entries["fake|fr|en|erreur"]
	assert.False(t, ok, "failures must not be cached")
}

func TestNewSelectsProvider(t *testing.T) {
	cfg := config.Config{Translator: "libre", TranslateMaxAttempts: 1, TranslateBreakerFailures: 3}
	_, err := New(cfg, nil)
	require.Error(t, err, "libre needs a base URL")

	cfg.LibreTranslateBaseURL = "http://localhost:5000"
	tr, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "libre", tr.Name())

	cfg.Translator = "deepl"
	_, err = New(cfg, nil)
	require.Error(t, err)
}
