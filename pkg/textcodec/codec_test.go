package textcodec

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Alphanumeric(t *testing.T) {
	text := Encode([]byte("ABC"))
	assert.Equal(t, "QUJD", text)

	data, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x41, 0x42, 0x43}, data)
}

func TestEncode_EscapesBase64Symbols(t *testing.T) {
	// base64 of 0xfb 0xff is "+/8="
	text := Encode([]byte{0xfb, 0xff})
	assert.Equal(t, "%2B%2F8%3D", text)

	data, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, data)
}

func TestDecode_IgnoresLineFeeds(t *testing.T) {
	data, err := Decode("QU%0AJD%0A")
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))

	data, err = Decode("QU\nJD")
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(data))
}

func TestDecode_AcceptsUnescapedBase64(t *testing.T) {
	data, err := Decode("+/8=")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xfb, 0xff}, data)
}

func TestDecode_Neg(t *testing.T) {
	tests := map[string]string{
		"bad escape":        "QUJD%2",
		"bad escape digits": "%ZZQUJD",
		"invalid utf8":      "%FFQUJD",
		"truncated base64":  "QUJ",
		"misplaced padding": "Q%3DJD",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(input)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	data, err := Decode("")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestEncodeDecode_Property(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("decode reverses encode", prop.ForAll(
		func(data []byte) bool {
			decoded, err := Decode(Encode(data))
			if err != nil {
				return false
			}
			return string(decoded) == string(data)
		},
		gen.SliceOf(gen.UInt8()),
	))
	properties.Property("encoded text is percent-escaped alphanumerics", prop.ForAll(
		func(data []byte) bool {
			text := Encode(data)
			for i := 0; i < len(text); i++ {
				if !isAlphanumeric(text[i]) && text[i] != '%' {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt8()),
	))
	properties.TestingRun(t)
}
