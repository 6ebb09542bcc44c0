package ir

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexDigits = "0123456789abcdefABCDEF"

func TestParseHandle_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		var sb strings.Builder
		for j := 0; j < HandleHexLength; j++ {
			sb.WriteByte(hexDigits[rng.Intn(len(hexDigits))])
		}
		s := sb.String()

		h, err := ParseHandle(s)
		require.NoError(t, err, "input %q", s)
		assert.Equal(t, strings.ToLower(s), h.String())
	}
}

func TestParseHandle_DefaultRoot(t *testing.T) {
	s := "1000000000000000000000000000000000000000000000000000000000000024"
	h, err := ParseHandle(s)
	require.NoError(t, err)

	assert.Equal(t, byte(0x10), h[0])
	assert.Equal(t, byte(0x24), h[31])
	assert.Equal(t, s, h.String())
	assert.Equal(t, "10000000", h.Short())
}

func TestParseHandle_WrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 2, 62, 63, 65, 128} {
		_, err := ParseHandle(strings.Repeat("a", n))
		require.Error(t, err, "length %d", n)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, ErrCodeWrongLength, pe.Code, "length %d", n)
	}
}

func TestParseHandle_NonHexCharacter(t *testing.T) {
	inputs := []string{
		strings.Repeat("0", 63) + "g",
		"z" + strings.Repeat("0", 63),
		strings.Repeat("0", 31) + " " + strings.Repeat("0", 32),
		strings.Repeat("0", 62) + "é", // two bytes, total length 64
	}

	for _, in := range inputs {
		require.Len(t, in, HandleHexLength)
		_, err := ParseHandle(in)
		require.Error(t, err, "input %q", in)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, ErrCodeNonHexCharacter, pe.Code, "input %q", in)
		assert.True(t, IsParseError(err))
	}
}

func TestHandle_CompareIsByteOrder(t *testing.T) {
	a := MustParseHandle(strings.Repeat("0", 63) + "1")
	b := MustParseHandle("01" + strings.Repeat("0", 62))
	c := MustParseHandle("ff" + strings.Repeat("0", 62))

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, -1, b.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestHandle_TextMarshaling(t *testing.T) {
	h := MustParseHandle(strings.Repeat("ab", 32))

	text, err := h.MarshalText()
	require.NoError(t, err)

	var back Handle
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, h, back)

	assert.Error(t, back.UnmarshalText([]byte("abc")))
}

func TestOperation_Codec(t *testing.T) {
	for _, op := range []Operation{OpEval, OpApply} {
		back, err := OperationFromCode(uint64(op.Code()))
		require.NoError(t, err)
		assert.Equal(t, op, back)
	}

	_, err := OperationFromCode(2)
	assert.Error(t, err)

	op, err := ParseOperationCode("1")
	require.NoError(t, err)
	assert.Equal(t, OpApply, op)

	_, err = ParseOperationCode("x")
	assert.Error(t, err)
	_, err = ParseOperationCode("-1")
	assert.Error(t, err)

	op, err = ParseOperationName("EVAL")
	require.NoError(t, err)
	assert.Equal(t, OpEval, op)

	assert.Equal(t, "Eval", OpEval.Name())
	assert.Equal(t, "Apply", OpApply.String())
}
