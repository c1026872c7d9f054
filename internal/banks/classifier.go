// Package banks maps free-text bank labels (French, English, Arabic and
// transliterated mixtures) to canonical bank names.
package banks

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Bank is a canonical bank name.
type Bank string

const (
	BMCEGroup        Bank = "BMCE Group"
	BaridBank        Bank = "Barid Bank"
	AttijariwafaBank Bank = "Attijariwafa Bank"
	BanquePopulaire  Bank = "Banque Populaire"
	CIHBank          Bank = "CIH Bank"
	AlAkhdarBank     Bank = "Al Akhdar Bank"
	CitiBank         Bank = "Citi Bank"
	AssafaBank       Bank = "Assafa Bank"
	CFGBank          Bank = "CFG Bank"
	YousrBank        Bank = "Yousr Bank"
	UmniaBank        Bank = "Umnia Bank"
	CreditAgricole   Bank = "Credit Agricole"
	CreditDuMaroc    Bank = "Crédit du Maroc"
	SocieteGenerale  Bank = "Société Générale"
	BMCI             Bank = "BMCI"

	Unknown Bank = "unknown"
)

// Rule assigns Bank to any label in which Pattern matches.
type Rule struct {
	Pattern *regexp.Regexp
	Bank    Bank
}

// rules are checked top to bottom and the first match wins. Several patterns
// can match the same label ("Crédit Agricole" hits both agricole and crédit),
// so the order is part of the behaviour.
var rules = []Rule{
	{regexp.MustCompile(`(?i)(bmce|africa)`), BMCEGroup},
	{regexp.MustCompile(`(?i)(barid|بريد)`), BaridBank},
	{regexp.MustCompile(`(?i)(tijari|wafa|تجاري|وفا)`), AttijariwafaBank},
	{regexp.MustCompile(`(?i)(chaabi|populaire|شعبي)`), BanquePopulaire},
	{regexp.MustCompile(`(?i)(cih)`), CIHBank},
	{regexp.MustCompile(`(?i)(akhdar|أخضر)`), AlAkhdarBank},
	{regexp.MustCompile(`(?i)(citi)`), CitiBank},
	{regexp.MustCompile(`(?i)(safa|صفا)`), AssafaBank},
	{regexp.MustCompile(`(?i)(cfg)`), CFGBank},
	{regexp.MustCompile(`(?i)(yousr|يسر)`), YousrBank},
	{regexp.MustCompile(`(?i)(umnia|umb|أمنية)`), UmniaBank},
	{regexp.MustCompile(`(?i)(agricole)`), CreditAgricole},
	{regexp.MustCompile(`(?i)(cr[ée]dit|قرض)`), CreditDuMaroc},
	{regexp.MustCompile(`(?i)(g[ée]n[ée]rale|عامة)`), SocieteGenerale},
	{regexp.MustCompile(`(?i)(bmci)`), BMCI},
}

// Classify returns the bank of the first rule matching label, or Unknown.
func Classify(label string) Bank {
	// Composed form so that "e" + U+0301 still satisfies [ée].
	s := norm.NFC.String(label)
	for _, r := range rules {
		if r.Pattern.MatchString(s) {
			return r.Bank
		}
	}
	return Unknown
}

// MapLabels classifies every distinct label. The result has exactly one key
// per distinct input string, keyed by the label as given.
func MapLabels(labels []string) map[string]Bank {
	out := make(map[string]Bank, len(labels))
	for _, label := range labels {
		if _, ok := out[label]; ok {
			continue
		}
		out[label] = Classify(label)
	}
	return out
}

// Rules returns a copy of the ordered rule list.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Banks lists the canonical names in rule order, without Unknown.
func Banks() []Bank {
	out := make([]Bank, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Bank)
	}
	return out
}

// Tally counts occurrences per bank over labels, duplicates included. Labels
// missing from mapping are classified on the fly.
func Tally(mapping map[string]Bank, labels []string) map[Bank]int {
	out := map[Bank]int{}
	for _, label := range labels {
		bank, ok := mapping[label]
		if !ok {
			bank = Classify(label)
		}
		out[bank]++
	}
	return out
}
