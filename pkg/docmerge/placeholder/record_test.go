package placeholder

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerr "github.com/randalmurphal/docmerge/pkg/docmerge/errors"
)

type fieldMap map[string]int

func TestNewRecord(t *testing.T) {
	t.Run("accepted shapes", func(t *testing.T) {
		tests := []struct {
			name     string
			input    any
			expected Record
		}{
			{"record", Record{"a": 1}, Record{"a": 1}},
			{"map any", map[string]any{"a": "x"}, Record{"a": "x"}},
			{"map string", map[string]string{"a": "x"}, Record{"a": "x"}},
			{"named map type", fieldMap{"hours": 38}, Record{"hours": 38}},
			{"nil", nil, nil},
			{"nil map string", map[string]string(nil), nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec, err := NewRecord(tt.input)
				require.NoError(t, err)
				assert.Equal(t, tt.expected, rec)
			})
		}
	})

	t.Run("rejected shapes are contract violations", func(t *testing.T) {
		inputs := map[string]any{
			"slice":       []any{map[string]any{"a": 1}},
			"string":      "a=1",
			"int keys":    map[int]string{1: "a"},
			"struct":      struct{ Name string }{"Jo"},
			"number":      42,
			"map pointer": &map[string]any{"a": 1},
		}

		for name, input := range inputs {
			t.Run(name, func(t *testing.T) {
				_, err := NewRecord(input)
				require.Error(t, err)
				assert.True(t, docerr.IsContractViolation(err))

				var malformed *docerr.MalformedInputError
				assert.ErrorAs(t, err, &malformed)
			})
		}
	})
}

func TestParseRecordJSON(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		rec, err := ParseRecordJSON([]byte(`{"id": 7, "naam": "Jo", "uurloon": 14.50, "actief": true, "x": null}`))
		require.NoError(t, err)

		assert.Equal(t, json.Number("7"), rec["id"])
		assert.Equal(t, "14.50", Substitute("{{uurloon}}", rec))
		assert.Equal(t, "true", Substitute("{{actief}}", rec))
		assert.Equal(t, "", Substitute("{{x}}", rec))
	})

	t.Run("null is absent record", func(t *testing.T) {
		rec, err := ParseRecordJSON([]byte(`null`))
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("array is rejected", func(t *testing.T) {
		_, err := ParseRecordJSON([]byte(`[{"a": 1}]`))
		require.Error(t, err)
		assert.True(t, docerr.IsContractViolation(err))
		assert.Contains(t, err.Error(), "got array")
	})

	t.Run("scalar is rejected", func(t *testing.T) {
		_, err := ParseRecordJSON([]byte(`"text"`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "got string")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseRecordJSON([]byte(`{"a":`))
		require.Error(t, err)
		assert.True(t, docerr.IsContractViolation(err))
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := ParseRecordJSON([]byte(`{"a":1} {"b":2}`))
		require.Error(t, err)
	})
}

func TestRecordHelpers(t *testing.T) {
	t.Run("get treats nil as missing", func(t *testing.T) {
		rec := Record{"a": nil, "b": 0}
		_, ok := rec.Get("a")
		assert.False(t, ok)
		v, ok := rec.Get("b")
		assert.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("get on nil record", func(t *testing.T) {
		var rec Record
		_, ok := rec.Get("a")
		assert.False(t, ok)
	})

	t.Run("with copies", func(t *testing.T) {
		rec := Record{"a": 1}
		next := rec.With("b", 2)
		assert.Equal(t, Record{"a": 1}, rec)
		assert.Equal(t, Record{"a": 1, "b": 2}, next)
	})

	t.Run("with on nil record", func(t *testing.T) {
		var rec Record
		assert.Equal(t, Record{"k": "v"}, rec.With("k", "v"))
	})

	t.Run("clone", func(t *testing.T) {
		var nilRec Record
		assert.Nil(t, nilRec.Clone())

		rec := Record{"a": 1}
		c := rec.Clone()
		c["a"] = 2
		assert.Equal(t, 1, rec["a"])
	})
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "Infinity", FormatValue(posInf()))
	assert.Equal(t, "42", FormatValue(uint8(42)))
}

func TestFormatValue_NegativeZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	assert.Equal(t, "0", FormatValue(negZero))
	assert.Equal(t, "0", FormatValue(float32(negZero)))
	assert.Equal(t, "-0.5", FormatValue(-0.5))
	assert.Equal(t, "<p>0</p>", Substitute("<p>{{v}}</p>", Record{"v": negZero}))
}

func posInf() float64 {
	var zero float64
	return 1 / zero
}
