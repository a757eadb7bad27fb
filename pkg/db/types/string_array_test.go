package dbtypes

import (
	"encoding/json"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArrayValueMatchesPQ(t *testing.T) {
	values := []string{"0821234567", `say "hi"`, `a,b`, `back\slash`}
	got, err := StringArray(values).Value()
	require.NoError(t, err)
	want, err := pq.StringArray(values).Value()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, `{"0821234567","say \"hi\"","a,b","back\\slash"}`, got)

	for _, v := range values {
		assert.Contains(t, got, QuoteElement(v))
	}

	empty, err := StringArray(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", empty)
}

func TestStringArrayScanRoundTrip(t *testing.T) {
	src := StringArray{"plain", `quoted "x"`, "with,comma", `back\slash`}
	v, err := src.Value()
	require.NoError(t, err)

	var out StringArray
	require.NoError(t, out.Scan(v))
	assert.Equal(t, src, out)
}

func TestStringArrayScanPostgresUnquotedLiteral(t *testing.T) {
	var out StringArray
	require.NoError(t, out.Scan([]byte("{READ_JOB,READ_TRANSPORT_REQUEST}")))
	assert.Equal(t, StringArray{"READ_JOB", "READ_TRANSPORT_REQUEST"}, out)
	assert.True(t, out.Contains("READ_TRANSPORT_REQUEST"))
	assert.False(t, out.Contains("READ"))
}

func TestStringArrayScanKeepsNullDistinct(t *testing.T) {
	var out StringArray
	require.NoError(t, out.Scan(`{ops,"NULL"}`))
	assert.Equal(t, StringArray{"ops", "NULL"}, out)

	assert.Error(t, out.Scan("{ops,NULL}"))
}

func TestStringArrayScanNilAndMalformed(t *testing.T) {
	var out StringArray
	require.NoError(t, out.Scan(nil))
	assert.NotNil(t, out)
	assert.Empty(t, out)

	assert.Error(t, out.Scan("not-an-array"))
	assert.Error(t, out.Scan(42))
}

func TestStringArrayMarshalNilAsEmptyList(t *testing.T) {
	raw, err := json.Marshal(struct {
		Items StringArray `json:"items"`
	}{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(raw))
}
