package formupload

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goldenPolicy() EncodedPolicy {
	return EncodedPolicy(base64.StdEncoding.EncodeToString([]byte(goldenPolicyJSON)))
}

func TestSign(t *testing.T) {
	key, err := hex.DecodeString(goldenSigningKey)
	require.NoError(t, err)

	t.Run("golden signature", func(t *testing.T) {
		sig, err := Sign(key, goldenPolicy())
		require.NoError(t, err)
		assert.Equal(t, Signature(goldenSignature), sig)
		assert.Len(t, sig.String(), SignatureLength)
		assert.True(t, sig.Valid())
	})

	t.Run("deterministic", func(t *testing.T) {
		first, err := Sign(key, goldenPolicy())
		require.NoError(t, err)
		second, err := Sign(key, goldenPolicy())
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("different policy", func(t *testing.T) {
		sig, err := Sign(key, goldenPolicy()+"=")
		require.NoError(t, err)
		assert.NotEqual(t, Signature(goldenSignature), sig)
	})

	t.Run("empty policy", func(t *testing.T) {
		_, err := Sign(key, "")
		assert.ErrorIs(t, err, ErrMissingInput)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := Sign(nil, goldenPolicy())
		assert.ErrorIs(t, err, ErrMissingInput)
	})
}

func TestSignPolicy(t *testing.T) {
	sc := mustContext(t, testCredentials())

	sig, err := SignPolicy(testSecretKey, sc, goldenPolicy())
	require.NoError(t, err)
	assert.Equal(t, Signature(goldenSignature), sig)

	other, err := SignPolicy("othersecret", sc, goldenPolicy())
	require.NoError(t, err)
	assert.NotEqual(t, sig, other)
}

func TestSignature_Valid(t *testing.T) {
	assert.True(t, Signature(goldenSignature).Valid())
	assert.False(t, Signature("").Valid())
	assert.False(t, Signature(goldenSignature[:63]).Valid())
	assert.False(t, Signature("2BAE45AB2A2DDBACC18ADA2D9CBF57060EA1463C61C197B570AB3DE7A0B9252E").Valid())
	assert.False(t, Signature(goldenSignature[:63]+"g").Valid())
}

func TestSignature_Equal(t *testing.T) {
	sig := Signature(goldenSignature)
	assert.True(t, sig.Equal(goldenSignature))
	assert.False(t, sig.Equal(goldenSignature[:63]+"f"))
	assert.False(t, sig.Equal(""))
}
