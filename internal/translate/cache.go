package translate

import (
	"context"

	"bankreviews/internal/logger"
)

// Cache stores successful translations. storage.DB implements it.
type Cache interface {
	GetTranslation(provider, from, to, text string) (string, bool, error)
	PutTranslation(provider, from, to, text, translated string) error
}

type cached struct {
	Translator
	cache Cache
}

// NewCached answers from cache when possible and records fresh results.
// Cache errors are logged and never fail a translation.
func NewCached(tr Translator, cache Cache) Translator {
	return &cached{Translator: tr, cache: cache}
}

func (c *cached) Translate(ctx context.Context, text, from, to string) (string, error) {
	name := c.Translator.Name()
	hit, ok, err := c.cache.GetTranslation(name, from, to, text)
	if err != nil {
		logger.Warnf("translation cache lookup failed: %v", err)
	}
	if ok {
		return hit, nil
	}

	out, err := c.Translator.Translate(ctx, text, from, to)
	if err != nil {
		return "", err
	}
	if err := c.cache.PutTranslation(name, from, to, text, out); err != nil {
		logger.Warnf("translation cache store failed: %v", err)
	}
	return out, nil
}
