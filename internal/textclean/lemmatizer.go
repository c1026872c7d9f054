package textclean

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/lemma_exceptions.csv
var embeddedExceptions []byte

// Lemmatizer reduces English nouns to their dictionary form: a lookup table
// first, then WordNet's noun detachment rules.
type Lemmatizer struct {
	dict map[string]string
	// sBases holds dictionary lemmas ending in "s"; "ses" reduces to "s"
	// only when the result is one of them (buses, not courses).
	sBases map[string]bool
}

func newLemmatizer(dictPath string) (*Lemmatizer, error) {
	l := &Lemmatizer{dict: map[string]string{}, sBases: map[string]bool{}}
	if err := l.load(bytes.NewReader(embeddedExceptions)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dictPath) == "" {
		return l, nil
	}
	f, err := os.Open(dictPath)
	if err != nil {
		return nil, fmt.Errorf("open lemma dictionary: %w", err)
	}
	defer f.Close()
	if err := l.load(f); err != nil {
		return nil, fmt.Errorf("read lemma dictionary %s: %w", dictPath, err)
	}
	return l, nil
}

// load reads "form,lemma" lines. Later entries override earlier ones.
func (l *Lemmatizer) load(r io.Reader) error {
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 2 {
			continue
		}
		form := strings.ToLower(strings.TrimSpace(parts[0]))
		lemma := strings.ToLower(strings.TrimSpace(parts[1]))
		if form != "" && lemma != "" {
			l.dict[form] = lemma
			if strings.HasSuffix(lemma, "s") {
				l.sBases[lemma] = true
			}
		}
	}
	return scan.Err()
}

// Lemma returns the base form of token, or token itself.
func (l *Lemmatizer) Lemma(token string) string {
	if lemma, ok := l.dict[token]; ok {
		return lemma
	}
	if len(token) >= 5 && strings.HasSuffix(token, "men") {
		return token[:len(token)-3] + "man"
	}
	if len(token) < 4 || !strings.HasSuffix(token, "s") {
		return token
	}

	switch {
	case strings.HasSuffix(token, "sses"),
		strings.HasSuffix(token, "ches"),
		strings.HasSuffix(token, "shes"),
		strings.HasSuffix(token, "xes"),
		strings.HasSuffix(token, "zzes"):
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ies"):
		if len(token) <= 4 {
			return token[:len(token)-1]
		}
		return token[:len(token)-3] + "y"
	case strings.HasSuffix(token, "lves"),
		strings.HasSuffix(token, "eaves"),
		strings.HasSuffix(token, "oaves"):
		return token[:len(token)-3] + "f"
	case strings.HasSuffix(token, "ses") && l.sBases[token[:len(token)-2]]:
		return token[:len(token)-2]
	case strings.HasSuffix(token, "ss"),
		strings.HasSuffix(token, "us"),
		strings.HasSuffix(token, "is"):
		return token
	}
	return token[:len(token)-1]
}
