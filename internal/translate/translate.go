// Package translate machine-translates review text through an external
// service. Batch translation never aborts: an item that cannot be translated
// is reported as a nil entry.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankreviews/internal/config"
	"bankreviews/internal/logger"
)

var (
	ErrEmptyText   = errors.New("empty text")
	ErrCircuitOpen = errors.New("translation circuit open")
)

type Translator interface {
	Name() string
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// New builds the provider named by cfg.Translator, guarded by a circuit
// breaker and, when enabled and cache is non-nil, fronted by cache.
func New(cfg config.Config, cache Cache) (Translator, error) {
	opts := HTTPOptions{
		Timeout:      time.Duration(cfg.TranslateTimeoutMs) * time.Millisecond,
		RateLimitRPS: cfg.TranslateRateLimitRPS,
		MaxAttempts:  cfg.TranslateMaxAttempts,
	}

	var provider Translator
	switch strings.ToLower(strings.TrimSpace(cfg.Translator)) {
	case "google", "":
		provider = NewGoogle(cfg.GoogleTranslateBaseURL, opts)
	case "libre", "libretranslate":
		if err := cfg.Require("LIBRETRANSLATE_BASE_URL", cfg.LibreTranslateBaseURL); err != nil {
			return nil, err
		}
		provider = NewLibre(cfg.LibreTranslateBaseURL, cfg.LibreTranslateAPIKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translator: %s", cfg.Translator)
	}

	breaker := NewBreaker(provider.Name(), cfg.TranslateBreakerFailures, time.Duration(cfg.TranslateBreakerCoolSec)*time.Second)
	tr := WithBreaker(provider, breaker)
	if cfg.TranslateCache && cache != nil {
		tr = NewCached(tr, cache)
	}
	return tr, nil
}

type Batch struct {
	tr   Translator
	from string
	to   string
}

func NewBatch(tr Translator, from, to string) *Batch {
	return &Batch{tr: tr, from: from, to: to}
}

// TranslateAll returns one entry per input, in order. An entry is nil when
// the text is blank, the translator failed for that item, or ctx ended
// before the item was reached.
func (b *Batch) TranslateAll(ctx context.Context, texts []string) []*string {
	out := make([]*string, len(texts))
	failed := 0
	for i, text := range texts {
		if ctx.Err() != nil {
			logger.Warnf("translation stopped at item %d/%d: %v", i, len(texts), ctx.Err())
			break
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		translated, err := b.tr.Translate(ctx, text, b.from, b.to)
		if err != nil {
			failed++
			logger.Warnf("translate item %d via %s failed: %v", i, b.tr.Name(), err)
			continue
		}
		out[i] = &translated
	}
	if failed > 0 {
		logger.Infof("translation done provider=%s items=%d failed=%d", b.tr.Name(), len(texts), failed)
	}
	return out
}

// Missing counts nil entries of a TranslateAll result.
func Missing(results []*string) int {
	n := 0
	for _, r := range results {
		if r == nil {
			n++
		}
	}
	return n
}
