package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	LogLevel  string
	LogFormat string

	DatasetLabelColumn string
	DatasetTextColumn  string

	Translator               string
	TranslateSourceLang      string
	TranslateTargetLang      string
	GoogleTranslateBaseURL   string
	LibreTranslateBaseURL    string
	LibreTranslateAPIKey     string
	TranslateRateLimitRPS    int
	TranslateTimeoutMs       int
	TranslateMaxAttempts     int
	TranslateBreakerFailures int
	TranslateBreakerCoolSec  int
	TranslateCache           bool

	CleanMode           string
	CleanExtraStopwords []string
	CleanLemmaDictPath  string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "reviews.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatasetLabelColumn: getEnv("DATASET_LABEL_COLUMN", "bank"),
		DatasetTextColumn:  getEnv("DATASET_TEXT_COLUMN", "review"),

		Translator:               getEnv("TRANSLATOR", "google"),
		TranslateSourceLang:      getEnv("TRANSLATE_SOURCE_LANG", "fr"),
		TranslateTargetLang:      getEnv("TRANSLATE_TARGET_LANG", "en"),
		GoogleTranslateBaseURL:   getEnv("GOOGLE_TRANSLATE_BASE_URL", "https://translate.googleapis.com"),
		LibreTranslateBaseURL:    getEnv("LIBRETRANSLATE_BASE_URL", "https://libretranslate.com"),
		LibreTranslateAPIKey:     getEnv("LIBRETRANSLATE_API_KEY", ""),
		TranslateRateLimitRPS:    getEnvInt("TRANSLATE_RATE_LIMIT_RPS", 5),
		TranslateTimeoutMs:       getEnvInt("TRANSLATE_TIMEOUT_MS", 15000),
		TranslateMaxAttempts:     getEnvInt("TRANSLATE_MAX_ATTEMPTS", 3),
		TranslateBreakerFailures: getEnvInt("TRANSLATE_BREAKER_FAILURES", 5),
		TranslateBreakerCoolSec:  getEnvInt("TRANSLATE_BREAKER_COOLDOWN_SEC", 30),
		TranslateCache:           getEnvBool("TRANSLATE_CACHE", true),

		CleanMode:           getEnv("CLEAN_MODE", "lemma"),
		CleanExtraStopwords: getEnvList("CLEAN_EXTRA_STOPWORDS"),
		CleanLemmaDictPath:  getEnv("CLEAN_LEMMA_DICT", ""),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	value := getEnv(key, "")
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
