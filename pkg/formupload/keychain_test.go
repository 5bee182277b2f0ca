package formupload

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKeyChain(t *testing.T) {
	t.Run("published derivation example", func(t *testing.T) {
		sc, err := NewSigningContext(
			Credentials{AccessKeyID: "AKIDEXAMPLE"},
			"us-east-1", "iam",
			time.Date(2012, 2, 15, 0, 0, 0, 0, time.UTC),
		)
		require.NoError(t, err)

		chain, err := DeriveKeyChain("wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY", sc)
		require.NoError(t, err)

		assert.Equal(t, "969fbb94feb542b71ede6f87fe4d5fa29c789342b0f407474670f0c2489e0a0d", hex.EncodeToString(chain.Date))
		assert.Equal(t, "69daa0209cd9c5ff5c8ced464a696fd4252e981430b10e3d3fd8e2f197d7a70c", hex.EncodeToString(chain.Region))
		assert.Equal(t, "f72cfd46f26bc4643f06a11eabb6c0ba18780c19a8da0c31ace671265e3c87fa", hex.EncodeToString(chain.Service))
		assert.Equal(t, "f4780e2d9f65fa895f9c67b32ce1baf0b0d8a43505a000a1a9e090d414db404d", hex.EncodeToString(chain.Signing))
	})

	t.Run("upload fixture", func(t *testing.T) {
		sc := mustContext(t, testCredentials())
		chain, err := DeriveKeyChain(testSecretKey, sc)
		require.NoError(t, err)

		assert.Equal(t, "016782798db1b76a7272676e10bf38a57ff63796b0897aa248571c7dd7e781e0", hex.EncodeToString(chain.Date))
		assert.Equal(t, "a30783da6dced34c1b8d6be659a84565ea0dc58e2a5d99a2b5bd50661c4f69b2", hex.EncodeToString(chain.Region))
		assert.Equal(t, "b8ff7417ef9e816c783d81319b3f3074cf4062df9f9b0f3c039daf2c2bff4d90", hex.EncodeToString(chain.Service))
		assert.Equal(t, goldenSigningKey, hex.EncodeToString(chain.Signing))

		key, err := DeriveSigningKey(testSecretKey, sc)
		require.NoError(t, err)
		assert.Equal(t, chain.Signing, key)
	})
}

func TestDeriveKeyChain_ScopeIsolation(t *testing.T) {
	base := mustContext(t, testCredentials())
	baseChain, err := DeriveKeyChain(testSecretKey, base)
	require.NoError(t, err)

	t.Run("region", func(t *testing.T) {
		sc, err := NewSigningContext(testCredentials(), "us-west-2", testService, testNow)
		require.NoError(t, err)
		chain, err := DeriveKeyChain(testSecretKey, sc)
		require.NoError(t, err)

		assert.Equal(t, baseChain.Date, chain.Date)
		assert.NotEqual(t, baseChain.Region, chain.Region)
		assert.NotEqual(t, baseChain.Signing, chain.Signing)
	})

	t.Run("service", func(t *testing.T) {
		sc, err := NewSigningContext(testCredentials(), testRegion, "s3-object-lambda", testNow)
		require.NoError(t, err)
		chain, err := DeriveKeyChain(testSecretKey, sc)
		require.NoError(t, err)

		assert.Equal(t, baseChain.Date, chain.Date)
		assert.Equal(t, baseChain.Region, chain.Region)
		assert.NotEqual(t, baseChain.Service, chain.Service)
		assert.NotEqual(t, baseChain.Signing, chain.Signing)
	})

	t.Run("date", func(t *testing.T) {
		sc, err := NewSigningContext(testCredentials(), testRegion, testService, testNow.AddDate(0, 0, 1))
		require.NoError(t, err)
		chain, err := DeriveKeyChain(testSecretKey, sc)
		require.NoError(t, err)

		assert.NotEqual(t, baseChain.Date, chain.Date)
		assert.NotEqual(t, baseChain.Signing, chain.Signing)
	})

	t.Run("same day", func(t *testing.T) {
		sc, err := NewSigningContext(testCredentials(), testRegion, testService, testNow.Add(10*time.Hour))
		require.NoError(t, err)
		chain, err := DeriveKeyChain(testSecretKey, sc)
		require.NoError(t, err)
		assert.Equal(t, baseChain, chain)
	})
}

func TestDeriveKeyChain_MissingInput(t *testing.T) {
	_, err := DeriveKeyChain("", mustContext(t, testCredentials()))
	assert.True(t, IsMissingInput(err))

	_, err = DeriveKeyChain(testSecretKey, SigningContext{})
	assert.True(t, IsMissingInput(err))
}
