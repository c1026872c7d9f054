// Package textclean normalizes English review text for analysis: ASCII
// letters only, lowercase, stopwords removed, tokens lemmatized or stemmed.
//
// Resources are loaded once by New; a Cleaner is safe for concurrent use.
package textclean

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/kljensen/snowball/english"
)

const (
	ModeLemma = "lemma"
	ModeStem  = "stem"
)

//go:embed data/stopwords_en.txt
var embeddedStopwords []byte

var reNonAlpha = regexp.MustCompile(`[^A-Za-z]+`)

type Options struct {
	// Mode is ModeLemma (default) or ModeStem.
	Mode           string
	ExtraStopwords []string
	// LemmaDictPath is an optional "form,lemma" CSV merged over the
	// built-in exceptions.
	LemmaDictPath string
}

type Cleaner struct {
	mode       string
	stopwords  mapset.Set[string]
	lemmatizer *Lemmatizer
}

func New(opts Options) (*Cleaner, error) {
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == "" {
		mode = ModeLemma
	}
	if mode != ModeLemma && mode != ModeStem {
		return nil, fmt.Errorf("unsupported clean mode: %s", opts.Mode)
	}

	stop := mapset.NewSet[string]()
	scan := bufio.NewScanner(bytes.NewReader(embeddedStopwords))
	for scan.Scan() {
		if w := strings.TrimSpace(scan.Text()); w != "" {
			stop.Add(w)
		}
	}
	if err := scan.Err(); err != nil {
		return nil, err
	}
	for _, w := range opts.ExtraStopwords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			stop.Add(w)
		}
	}

	c := &Cleaner{mode: mode, stopwords: stop}
	if mode == ModeLemma {
		lem, err := newLemmatizer(opts.LemmaDictPath)
		if err != nil {
			return nil, err
		}
		c.lemmatizer = lem
	}
	return c, nil
}

func (c *Cleaner) Mode() string { return c.mode }

func (c *Cleaner) IsStopword(token string) bool {
	return c.stopwords.Contains(token)
}

// Clean strips everything but ASCII letters, lowercases, drops stopwords and
// reduces each remaining token, joining the result with single spaces.
func (c *Cleaner) Clean(text string) string {
	text = reNonAlpha.ReplaceAllString(text, " ")
	text = strings.ToLower(text)

	tokens := strings.Fields(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if c.stopwords.Contains(tok) {
			continue
		}
		out = append(out, c.reduce(tok))
	}
	return strings.Join(out, " ")
}

// CleanAll cleans each text independently, preserving order.
func (c *Cleaner) CleanAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = c.Clean(t)
	}
	return out
}

func (c *Cleaner) reduce(tok string) string {
	if c.mode == ModeStem {
		return english.Stem(tok, true)
	}
	return c.lemmatizer.Lemma(tok)
}
