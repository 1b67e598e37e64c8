// ABOUTME: Tests for the Amount codec
// ABOUTME: Covers strict parsing, formatting round-trips and JSON encoding

package amount

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Valid(t *testing.T) {
	cases := map[string]string{
		"0":          "0",
		"100":        "100",
		"  42  ":     "42",
		"007":        "7",
		"0000000000": "0",
		// Beyond 64-bit range; ledger supplies can exceed 2^63.
		"340282366920938463463374607431768211455": "340282366920938463463374607431768211455",
	}
	for input, want := range cases {
		a, err := Parse(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, a.String(), "input %q", input)
	}
}

func TestParse_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"-1",
		"+5",
		"1.5",
		"1e9",
		"abc",
		"12a",
		"1 000",
		"1,000",
		"0x10",
	}
	for _, input := range inputs {
		_, err := Parse(input)
		require.Error(t, err, "input %q", input)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", input)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{"0", "1", "99999999999999999999999999999999", "500"}
	for _, input := range inputs {
		a, err := Parse(input)
		require.NoError(t, err)

		b, err := Parse(a.String())
		require.NoError(t, err)
		assert.True(t, a.Equal(b), "round trip of %q", input)
	}
}

func TestAmount_ZeroValue(t *testing.T) {
	var a Amount
	assert.Equal(t, "0", a.String())
	assert.True(t, a.IsZero())
	assert.True(t, a.Equal(Zero()))
}

func TestAmount_Cmp(t *testing.T) {
	small := MustParse("100")
	large := MustParse("18446744073709551616") // 2^64

	assert.Equal(t, -1, small.Cmp(large))
	assert.Equal(t, 1, large.Cmp(small))
	assert.Equal(t, 0, small.Cmp(MustParse("100")))
}

func TestAmount_JSON(t *testing.T) {
	a := MustParse("123456789012345678901234567890")

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"123456789012345678901234567890"`, string(data))

	var decoded Amount
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, a.Equal(decoded))
}

func TestAmount_JSONInvalid(t *testing.T) {
	var a Amount
	assert.Error(t, json.Unmarshal([]byte(`42`), &a))
	assert.Error(t, json.Unmarshal([]byte(`"-42"`), &a))
	assert.Error(t, json.Unmarshal([]byte(`"4.2"`), &a))
}
