package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRANSLATOR", "")
	t.Setenv("TRANSLATE_RATE_LIMIT_RPS", "not-a-number")
	t.Setenv("TRANSLATE_CACHE", "off")
	t.Setenv("CLEAN_EXTRA_STOPWORDS", " bank, ,agence ")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Translator != "" {
		t.Fatalf("explicit empty TRANSLATOR should be kept, got %q", cfg.Translator)
	}
	if cfg.TranslateRateLimitRPS != 5 {
		t.Fatalf("rps=%d", cfg.TranslateRateLimitRPS)
	}
	if cfg.TranslateCache {
		t.Fatal("cache should be disabled")
	}
	if len(cfg.CleanExtraStopwords) != 2 || cfg.CleanExtraStopwords[0] != "bank" || cfg.CleanExtraStopwords[1] != "agence" {
		t.Fatalf("stopwords=%v", cfg.CleanExtraStopwords)
	}
	if cfg.TranslateSourceLang != "fr" || cfg.TranslateTargetLang != "en" {
		t.Fatalf("langs=%s->%s", cfg.TranslateSourceLang, cfg.TranslateTargetLang)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("LIBRETRANSLATE_API_KEY", "  "); err == nil {
		t.Fatal("expected error for blank value")
	}
	if err := cfg.Require("LIBRETRANSLATE_API_KEY", "k"); err != nil {
		t.Fatal(err)
	}
}
