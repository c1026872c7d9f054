package banks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		label string
		want  Bank
	}{
		{"BMCE Bank", BMCEGroup},
		{"bmce", BMCEGroup},
		{"Bank of Africa", BMCEGroup},
		{"BANK OF AFRICA - Agence Maarif", BMCEGroup},
		{"Barid Al-Maghrib", BaridBank},
		{"بريد بنك", BaridBank},
		{"Attijariwafa bank", AttijariwafaBank},
		{"التجاري وفا بنك", AttijariwafaBank},
		{"Wafa Crédit", AttijariwafaBank},
		{"Banque Populaire", BanquePopulaire},
		{"Chaabi Bank", BanquePopulaire},
		{"البنك الشعبي", BanquePopulaire},
		{"CIH Bank", CIHBank},
		{"Al Akhdar Bank", AlAkhdarBank},
		{"الأخضر", AlAkhdarBank},
		{"Citibank Maghreb", CitiBank},
		{"Bank Assafa", AssafaBank},
		{"مصرف الصفاء", AssafaBank},
		{"CFG Bank Casablanca", CFGBank},
		{"Bank Yousr", YousrBank},
		{"بنك يسر", YousrBank},
		{"Umnia Bank", UmniaBank},
		{"UMB agence", UmniaBank},
		{"أمنية بنك", UmniaBank},
		{"Crédit Agricole", CreditAgricole},
		{"Crédit du Maroc", CreditDuMaroc},
		{"CREDIT DU MAROC", CreditDuMaroc},
		{"قرض المغرب", CreditDuMaroc},
		{"Société Générale", SocieteGenerale},
		{"societe generale maroc", SocieteGenerale},
		{"الشركة العامة", SocieteGenerale},
		{"BMCI", BMCI},
		{"bmci groupe bnp", BMCI},
		{"Foo Bank", Unknown},
		{"", Unknown},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.label))
		})
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	// cih is rule 5, citi is rule 7.
	assert.Equal(t, CIHBank, Classify("CIH Citibank"))
	assert.Equal(t, CIHBank, Classify("citibank cih"))
	// agricole is rule 12, crédit is rule 13.
	assert.Equal(t, CreditAgricole, Classify("credit agricole du maroc"))
	// bmce is rule 1 and beats everything else.
	assert.Equal(t, BMCEGroup, Classify("BMCE crédit populaire"))
}

func TestClassifyDecomposedAccents(t *testing.T) {
	assert.Equal(t, CreditDuMaroc, Classify("Cre\u0301dit du Maroc"))
	assert.Equal(t, CreditDuMaroc, Classify("CRE\u0301DIT"))
	assert.Equal(t, SocieteGenerale, Classify("Socie\u0301te\u0301 Ge\u0301ne\u0301rale"))
}

func TestMapLabels(t *testing.T) {
	got := MapLabels([]string{"BMCE Bank", "Crédit Agricole", "Foo Bank"})
	assert.Equal(t, map[string]Bank{
		"BMCE Bank":       BMCEGroup,
		"Crédit Agricole": CreditAgricole,
		"Foo Bank":        Unknown,
	}, got)
}

func TestMapLabelsKeysAreDistinctInputs(t *testing.T) {
	labels := []string{"cih", "CIH", "cih", "Foo", "Foo", "Crédit"}
	got := MapLabels(labels)
	require.Len(t, got, 4)
	for _, label := range labels {
		_, ok := got[label]
		assert.True(t, ok, "missing key %q", label)
	}
	assert.Equal(t, CreditDuMaroc, got["Crédit"])
}

func TestMapLabelsEmpty(t *testing.T) {
	got := MapLabels(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRulesOrder(t *testing.T) {
	want := []Bank{
		BMCEGroup, BaridBank, AttijariwafaBank, BanquePopulaire, CIHBank,
		AlAkhdarBank, CitiBank, AssafaBank, CFGBank, YousrBank,
		UmniaBank, CreditAgricole, CreditDuMaroc, SocieteGenerale, BMCI,
	}
	assert.Equal(t, want, Banks())

	copied := Rules()
	copied[0] = Rule{}
	assert.Equal(t, BMCEGroup, Rules()[0].Bank, "Rules must return a copy")
}

func TestTally(t *testing.T) {
	labels := []string{"BMCE Bank", "bmce", "BMCE Bank", "Foo"}
	mapping := MapLabels(labels[:1])
	counts := Tally(mapping, labels)
	assert.Equal(t, map[Bank]int{BMCEGroup: 3, Unknown: 1}, counts)
}
