package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestExpectation_Check(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		body       string
		want       bool
	}{
		{"field true", "ok", `{"ok":true}`, true},
		{"field false", "ok", `{"ok":false}`, false},
		{"missing field", "ok", `{"other":1}`, false},
		{"comparison", "status == 'done'", `{"status":"done"}`, true},
		{"comparison fails", "status == 'done'", `{"status":"pending"}`, false},
		{"empty list", "items", `{"items":[]}`, false},
		{"non-empty list", "items", `{"items":[1]}`, true},
		{"empty object", "data", `{"data":{}}`, false},
		{"empty string", "name", `{"name":""}`, false},
		{"zero is truthy", "count", `{"count":0}`, true},
		{"filter projection", "length(items[?id > `1`]) == `2`", `{"items":[{"id":1},{"id":2},{"id":3}]}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := Compile(tt.expression)
			require.NoError(t, err)

			got, err := exp.Check(decode(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_Empty(t *testing.T) {
	exp, err := Compile("   ")
	require.NoError(t, err)
	assert.Nil(t, exp)

	ok, err := exp.Check(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", exp.String())
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("items[?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JMESPath expression")
}
