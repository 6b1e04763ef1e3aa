package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "type": "object",
  "required": ["choice", "orderIndex"],
  "properties": {
    "choice": {"type": "string", "enum": ["A", "B", "None"]},
    "orderIndex": {"type": "integer", "minimum": 1}
  }
}`

func TestValidate(t *testing.T) {
	v := MustCompile(testSchema)

	tests := []struct {
		name  string
		doc   interface{}
		valid bool
		field string
	}{
		{"valid map", map[string]interface{}{"choice": "None", "orderIndex": 3}, true, ""},
		{"valid struct", struct {
			Choice     string `json:"choice"`
			OrderIndex int    `json:"orderIndex"`
		}{"A", 1}, true, ""},
		{"bad enum", map[string]interface{}{"choice": "C", "orderIndex": 1}, false, "choice"},
		{"below minimum", map[string]interface{}{"choice": "A", "orderIndex": 0}, false, "orderIndex"},
		{"missing field", map[string]interface{}{"choice": "A"}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if !tt.valid {
				require.NotEmpty(t, res.Errors)
				assert.NotEmpty(t, res.Summary())
				if tt.field != "" {
					assert.Equal(t, tt.field, res.Errors[0].Field)
				}
			}
		})
	}
}

func TestCompile_RejectsBrokenSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile(`not json`) })
}
