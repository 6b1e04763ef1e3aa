package models

// Attribute names in display order.
const (
	AttrClassCount    = "Class Count"
	AttrMonthlyPrice  = "Monthly Price"
	AttrCommitment    = "Commitment"
	AttrRecovery      = "Recovery"
	AttrStrategicPerk = "Strategic Perk"
)

// AttributeNames lists the five plan attributes in the order they are shown.
var AttributeNames = []string{
	AttrClassCount,
	AttrMonthlyPrice,
	AttrCommitment,
	AttrRecovery,
	AttrStrategicPerk,
}

// AttributeBundle is one membership option. Values are display strings and
// are never parsed.
type AttributeBundle struct {
	ClassCount    string `json:"Class Count" yaml:"class_count"`
	MonthlyPrice  string `json:"Monthly Price" yaml:"monthly_price"`
	Commitment    string `json:"Commitment" yaml:"commitment"`
	Recovery      string `json:"Recovery" yaml:"recovery"`
	StrategicPerk string `json:"Strategic Perk" yaml:"strategic_perk"`
}

// Attribute is a name/value pair for rendering.
type Attribute struct {
	Name  string
	Value string
}

// Attributes returns the bundle's values in AttributeNames order.
func (b AttributeBundle) Attributes() []Attribute {
	return []Attribute{
		{AttrClassCount, b.ClassCount},
		{AttrMonthlyPrice, b.MonthlyPrice},
		{AttrCommitment, b.Commitment},
		{AttrRecovery, b.Recovery},
		{AttrStrategicPerk, b.StrategicPerk},
	}
}

// Missing returns the names of attributes with an empty value.
func (b AttributeBundle) Missing() []string {
	var missing []string
	for _, a := range b.Attributes() {
		if a.Value == "" {
			missing = append(missing, a.Name)
		}
	}
	return missing
}

// QuestionSet is one comparison between two bundles. It holds only values, so
// a plain assignment is a full snapshot.
type QuestionSet struct {
	ID      int             `json:"id" yaml:"id"`
	OptionA AttributeBundle `json:"optionA" yaml:"option_a"`
	OptionB AttributeBundle `json:"optionB" yaml:"option_b"`
}
