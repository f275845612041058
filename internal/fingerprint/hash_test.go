package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(Object{"b": 1, "a": "x", "c": []any{true, "y"}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1,"c":[true,"y"]}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical("fence <4ft> & hedge")
	require.NoError(t, err)
	assert.Equal(t, `"fence <4ft> & hedge"`, string(data))
}

func TestMarshalCanonical_LineSeparatorLiteral(t *testing.T) {
	data, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(data))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	decomposed, err := MarshalCanonical("Cafe\u0301")
	require.NoError(t, err)
	composed, err := MarshalCanonical("Caf\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_RejectsFloatAndNull(t *testing.T) {
	_, err := MarshalCanonical(Object{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")

	_, err = MarshalCanonical(Object{"x": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null is forbidden")
}

func TestSample_StableAndContentAddressed(t *testing.T) {
	a := Sample("S1", "Can I build a 6ft fence?", "Decision: deny. Exceeds 4ft limit.")
	b := Sample("S1", "Can I build a 6ft fence?", "Decision: deny. Exceeds 4ft limit.")
	c := Sample("S1", "Can I build a 6ft fence?", "Decision: approve. Fine.")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestDomainSeparation(t *testing.T) {
	p, err := Digest(DomainPrompt, Object{"text": "x"})
	require.NoError(t, err)
	e, err := Digest(DomainEpisode, Object{"text": "x"})
	require.NoError(t, err)
	assert.NotEqual(t, p, e)
	assert.Equal(t, p, Prompt("x"))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "abc", Short("abc"))
	assert.Equal(t, "0123456789ab", Short("0123456789abcdef"))
}
