// Package bank holds the fixed set of membership comparisons shown to every
// respondent.
package bank

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"sync"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var embedded []byte

type document struct {
	Questions []models.QuestionSet `yaml:"questions"`
}

// Bank is an immutable, ordered list of question sets.
type Bank struct {
	sets []models.QuestionSet
}

var defaultBank = sync.OnceValue(func() *Bank {
	b, err := Parse(embedded)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank: %v", err))
	}
	return b
})

// Default returns the bank compiled into the binary.
func Default() *Bank {
	return defaultBank()
}

// LoadFile reads an operator-supplied bank with the same layout as the embedded one.
func LoadFile(path string) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML bank.
func Parse(data []byte) (*Bank, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewBankInvalidError(err.Error())
	}
	if err := validate(doc.Questions); err != nil {
		return nil, err
	}
	return &Bank{sets: doc.Questions}, nil
}

// ids must be exactly 1..N and every attribute must be filled in.
func validate(sets []models.QuestionSet) error {
	if len(sets) == 0 {
		return errors.NewBankInvalidError("no questions")
	}
	seen := make(map[int]bool, len(sets))
	for _, s := range sets {
		if s.ID < 1 || s.ID > len(sets) {
			return errors.NewBankInvalidError(fmt.Sprintf("question id %d outside 1..%d", s.ID, len(sets)))
		}
		if seen[s.ID] {
			return errors.NewBankInvalidError(fmt.Sprintf("duplicate question id %d", s.ID))
		}
		seen[s.ID] = true

		if missing := s.OptionA.Missing(); len(missing) > 0 {
			return errors.NewBankInvalidError(fmt.Sprintf("question %d option A missing %v", s.ID, missing))
		}
		if missing := s.OptionB.Missing(); len(missing) > 0 {
			return errors.NewBankInvalidError(fmt.Sprintf("question %d option B missing %v", s.ID, missing))
		}
	}
	return nil
}

// All returns the question sets in bank order. The result is a fresh copy on
// every call.
func (b *Bank) All() []models.QuestionSet {
	return slices.Clone(b.sets)
}

func (b *Bank) Len() int {
	return len(b.sets)
}

// Get looks a question set up by id.
func (b *Bank) Get(id int) (models.QuestionSet, bool) {
	for _, s := range b.sets {
		if s.ID == id {
			return s, true
		}
	}
	return models.QuestionSet{}, false
}
