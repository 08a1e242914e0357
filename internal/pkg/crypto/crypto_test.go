package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestNewCipher_KeyLength(t *testing.T) {
	_, err := NewCipher("too-short")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	_, err = NewCipher(testKey + "x")
	assert.ErrorIs(t, err, ErrInvalidKeyLength)

	c, err := NewCipher(testKey)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCipher_EncryptDecrypt_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	plaintexts := []string{
		"+507 6677-1234",
		"8-123-4567",
		"Calle 50, Edificio Global Plaza, Piso 3",
		"1990-05-17",
		"",
	}
	for _, plain := range plaintexts {
		enc, err := c.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, enc)

		got, err := c.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, got, "round trip of %q", plain)
	}
}

func TestCipher_Encrypt_UniqueCiphertexts(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	first, err := c.Encrypt("8-123-4567")
	require.NoError(t, err)
	second, err := c.Encrypt("8-123-4567")
	require.NoError(t, err)

	// The nonce is random per call, so identical plaintexts must never
	// produce identical ciphertexts
	assert.NotEqual(t, first, second)
}

func TestCipher_Decrypt_Garbage(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	inputs := []string{
		"not base64 at all!!!",
		base64.URLEncoding.EncodeToString([]byte("short")),
		"",
	}
	for _, in := range inputs {
		_, err := c.Decrypt(in)
		assert.ErrorIs(t, err, ErrDecryptFailed, "input %q", in)
	}
}

func TestCipher_Decrypt_Tampered(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	enc, err := c.Encrypt("6677-1234")
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01

	_, err = c.Decrypt(base64.URLEncoding.EncodeToString(raw))
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestCipher_Decrypt_WrongKey(t *testing.T) {
	c1, err := NewCipher(testKey)
	require.NoError(t, err)
	c2, err := NewCipher("fedcba9876543210fedcba9876543210")
	require.NoError(t, err)

	enc, err := c1.Encrypt("8-123-4567")
	require.NoError(t, err)

	_, err = c2.Decrypt(enc)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestCipher_EncryptPtr_NilAndEmpty(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	got, err := c.EncryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	empty := ""
	got, err = c.EncryptPtr(&empty)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCipher_EncryptPtr_RoundTrip(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	v := "+507 6000-0000"
	enc, err := c.EncryptPtr(&v)
	require.NoError(t, err)
	require.NotNil(t, enc)
	assert.NotEqual(t, v, *enc)

	plain, err := c.DecryptPtr(enc)
	require.NoError(t, err)
	require.NotNil(t, plain)
	assert.Equal(t, v, *plain)
}

func TestCipher_DecryptPtr_Nil(t *testing.T) {
	c, err := NewCipher(testKey)
	require.NoError(t, err)

	got, err := c.DecryptPtr(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+507 6677-1234", "**********1234"},
		{"66771234", "****1234"},
		{"123", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskPhone(tt.in), "input %q", tt.in)
	}
}

func TestMaskDocumento(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"8-123-4567", "8-1*****67"},
		{"155612345-2-2017", "155***********17"},
		{"123456", "123*56"},
		{"12345", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskDocumento(tt.in), "input %q", tt.in)
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"maria@financepro.com", "ma***@financepro.com"},
		{"jd@mail.com", "jd***@mail.com"},
		{"a@b.com", "****"},
		{"not-an-email", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskEmail(tt.in), "input %q", tt.in)
	}
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", MaskValue(""))
	assert.Equal(t, "****", MaskValue("Calle 50"))
	assert.Equal(t, "****", MaskValue("1990-05-17"))
}

func TestMaskPtr(t *testing.T) {
	v := "66771234"
	assert.Equal(t, "****1234", MaskPtr(&v, MaskPhone))
	assert.Equal(t, "", MaskPtr(nil, MaskPhone))
}
