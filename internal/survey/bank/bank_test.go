package bank

import (
	"os"
	"path/filepath"
	"testing"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EightCompleteSets(t *testing.T) {
	b := Default()
	sets := b.All()

	require.Len(t, sets, 8)
	for i, s := range sets {
		assert.Equal(t, i+1, s.ID)
		assert.Empty(t, s.OptionA.Missing())
		assert.Empty(t, s.OptionB.Missing())
	}

	q1, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, models.AttributeBundle{
		ClassCount:    "4 Classes",
		MonthlyPrice:  "$139",
		Commitment:    "Month-to-Month",
		Recovery:      "None",
		StrategicPerk: "Standard Booking",
	}, q1.OptionA)

	q8, ok := b.Get(8)
	require.True(t, ok)
	assert.Equal(t, "Priority Booking", q8.OptionB.StrategicPerk)

	_, ok = b.Get(9)
	assert.False(t, ok)
}

func TestAll_IsDeterministicAndDetached(t *testing.T) {
	b := Default()
	first := b.All()
	first[0].OptionA.MonthlyPrice = "$0"
	first[1], first[2] = first[2], first[1]

	second := b.All()
	assert.Equal(t, "$139", second[0].OptionA.MonthlyPrice)
	assert.Equal(t, 2, second[1].ID)
	assert.Equal(t, b.All(), second)
}

func TestParse_Invalid(t *testing.T) {
	full := func(id string) string {
		return `  - id: ` + id + `
    option_a: {class_count: a, monthly_price: b, commitment: c, recovery: d, strategic_perk: e}
    option_b: {class_count: a, monthly_price: b, commitment: c, recovery: d, strategic_perk: e}
`
	}

	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"empty", "questions: []\n", "no questions"},
		{"duplicate", "questions:\n" + full("1") + full("1"), "duplicate question id 1"},
		{"gap", "questions:\n" + full("1") + full("3"), "outside 1..2"},
		{"missing attribute", "questions:\n  - id: 1\n    option_a: {class_count: a}\n    option_b: {class_count: a}\n", "option A missing"},
		{"not yaml", "questions: [", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeBankInvalid))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`questions:
  - id: 1
    option_a: {class_count: "4 Classes", monthly_price: "$99", commitment: "3-Month", recovery: "None", strategic_perk: "Standard Booking"}
    option_b: {class_count: "Unlimited", monthly_price: "$299", commitment: "12-Month", recovery: "Recovery Lounge", strategic_perk: "Passport + Guest"}
`), 0o600))

	b, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, b.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
