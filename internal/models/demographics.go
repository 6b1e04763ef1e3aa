package models

import "slices"

type Location string

const (
	LocationMontclair  Location = "Montclair"
	LocationLivingston Location = "Livingston"
	LocationShortHills Location = "Short Hills"
)

type AgeRange string

const (
	Age18to25 AgeRange = "18-25"
	Age26to35 AgeRange = "26-35"
	Age36to45 AgeRange = "36-45"
	Age46to55 AgeRange = "46-55"
	Age55Plus AgeRange = "55+"
)

type Frequency string

const (
	FrequencyNever    Frequency = "Never"
	FrequencyMonthly  Frequency = "1-2x Month"
	FrequencyWeekly   Frequency = "1-2x Week"
	FrequencyFrequent Frequency = "3+ Week"
)

var (
	locations   = []Location{LocationMontclair, LocationLivingston, LocationShortHills}
	ageRanges   = []AgeRange{Age18to25, Age26to35, Age36to45, Age46to55, Age55Plus}
	frequencies = []Frequency{FrequencyNever, FrequencyMonthly, FrequencyWeekly, FrequencyFrequent}
)

// Locations returns the selectable locations in display order.
func Locations() []Location { return slices.Clone(locations) }

// AgeRanges returns the selectable age bands in display order.
func AgeRanges() []AgeRange { return slices.Clone(ageRanges) }

// Frequencies returns the selectable visit frequencies in display order.
func Frequencies() []Frequency { return slices.Clone(frequencies) }

func (l Location) Valid() bool  { return slices.Contains(locations, l) }
func (a AgeRange) Valid() bool  { return slices.Contains(ageRanges, a) }
func (f Frequency) Valid() bool { return slices.Contains(frequencies, f) }

// Demographics is the intake answer set. It is fixed once the survey starts.
type Demographics struct {
	Location  Location  `json:"location"`
	AgeRange  AgeRange  `json:"ageRange"`
	Frequency Frequency `json:"frequency"`
}

// Complete reports whether all three fields hold a known value.
func (d Demographics) Complete() bool {
	return d.Location.Valid() && d.AgeRange.Valid() && d.Frequency.Valid()
}
