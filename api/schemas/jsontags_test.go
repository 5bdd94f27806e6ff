package schemas_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/gridcheck/api/schemas"
)

// TestStructJSONTags pins the wire names of the report. Downstream tooling
// parses these keys.
func TestStructJSONTags(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		name         string
		structRef    interface{}
		expectedTags map[string]string
	}{
		{
			name:      "GridReport",
			structRef: schemas.GridReport{},
			expectedTags: map[string]string{
				"Measurements":   "measurements",
				"Origin":         "origin",
				"OriginBaseline": "originBaseline",
				"DetectedGrid":   "detectedGrid",
				"GridSource":     "gridSource",
				"Tolerance":      "tolerance",
				"Passed":         "passed",
				"Failed":         "failed",
			},
		},
		{
			name:      "ElementSummary",
			structRef: schemas.ElementSummary{},
			expectedTags: map[string]string{
				"Tag":      "tag",
				"Text":     "text",
				"Baseline": "baseline",
			},
		},
		{
			name:      "MeasurementResult",
			structRef: schemas.MeasurementResult{},
			expectedTags: map[string]string{
				"Tag":       "tag",
				"Text":      "text",
				"Baseline":  "baseline",
				"GridLine":  "gridLine",
				"GridError": "gridError",
				"Pass":      "pass",
			},
		},
		{
			name:         "ErrorReport",
			structRef:    schemas.ErrorReport{},
			expectedTags: map[string]string{"Error": "error"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			typ := reflect.TypeOf(tc.structRef)
			assert.Equal(t, len(tc.expectedTags), typ.NumField(), "unexpected number of fields in %s", tc.name)
			for i := 0; i < typ.NumField(); i++ {
				field := typ.Field(i)
				expected, ok := tc.expectedTags[field.Name]
				if assert.True(t, ok, "field %s.%s is not covered", tc.name, field.Name) {
					assert.Equal(t, expected, field.Tag.Get("json"), "json tag of %s.%s", tc.name, field.Name)
				}
			}
		})
	}
}
