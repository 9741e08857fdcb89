package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var toneSchema = map[string]interface{}{
	"type": "string",
	"enum": []interface{}{"positive", "neutral"},
}

var planSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"isPlanning"},
	"properties": map[string]interface{}{
		"isPlanning": map[string]interface{}{"type": "boolean"},
	},
}

func TestSchema_Validate(t *testing.T) {
	tone := MustCompile("emotionalTone", toneSchema)
	plan := MustCompile("travelPlan", planSchema)

	tests := []struct {
		name   string
		schema *Schema
		value  interface{}
		valid  bool
	}{
		{"enum member", tone, "positive", true},
		{"enum outsider", tone, "furious", false},
		{"wrong type", tone, 3.0, false},
		{"nil", tone, nil, false},
		{"object ok", plan, map[string]interface{}{"isPlanning": true}, true},
		{"object missing field", plan, map[string]interface{}{}, false},
		{"object wrong field type", plan, map[string]interface{}{"isPlanning": "yes"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.schema.Validate(tt.value).Valid)
		})
	}
}

func TestSchema_ErrorFieldsArePrefixed(t *testing.T) {
	plan := MustCompile("travelPlan", planSchema)

	res := plan.Validate(map[string]interface{}{"isPlanning": "yes"})
	require.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, "travelPlan.isPlanning", res.Errors[0].Field)
	assert.NotEmpty(t, res.GetErrorMessages())
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile("broken", map[string]interface{}{"type": 42})
	assert.Error(t, err)
}
