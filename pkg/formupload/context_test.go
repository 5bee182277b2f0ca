package formupload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSigningContext(t *testing.T) {
	t.Run("derives date scoped fields", func(t *testing.T) {
		sc, err := NewSigningContext(testCredentials(), testRegion, testService, testNow)
		require.NoError(t, err)

		assert.Equal(t, testAccessKeyID, sc.AccessKeyID())
		assert.Equal(t, testRegion, sc.Region())
		assert.Equal(t, testService, sc.Service())
		assert.Equal(t, "20240305", sc.SignDate())
		assert.Equal(t, "20240305T000000Z", sc.AmzDate())
		assert.Equal(t, "accesskeyid/20240305/eu-west-1/s3/aws4_request", sc.CredentialScope())
		assert.Equal(t, "AWS4-HMAC-SHA256", sc.Algorithm())
		assert.Equal(t, "AES256", sc.ServerSideEncryption())
		assert.Equal(t, testNow, sc.RequestTime())
		assert.False(t, sc.IsZero())
	})

	t.Run("converts to UTC before truncating", func(t *testing.T) {
		// 23:30 on March 4th in UTC-5 is already March 5th in UTC
		local := time.Date(2024, 3, 4, 23, 30, 0, 0, time.FixedZone("EST", -5*3600))
		sc, err := NewSigningContext(testCredentials(), testRegion, testService, local)
		require.NoError(t, err)
		assert.Equal(t, "20240305", sc.SignDate())
		assert.Equal(t, time.UTC, sc.RequestTime().Location())
	})

	t.Run("carries session token", func(t *testing.T) {
		creds := testCredentials()
		creds.SessionToken = "token"
		sc, err := NewSigningContext(creds, testRegion, testService, testNow)
		require.NoError(t, err)
		assert.Equal(t, "token", sc.SessionToken())
	})

	for _, tc := range []struct {
		name    string
		creds   Credentials
		region  string
		service string
		field   string
	}{
		{"empty access key", Credentials{SecretKey: "x"}, testRegion, testService, "accessKeyId"},
		{"empty region", testCredentials(), "", testService, "region"},
		{"blank service", testCredentials(), testRegion, "  ", "service"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSigningContext(tc.creds, tc.region, tc.service, testNow)
			require.Error(t, err)
			assert.True(t, IsInvalidConfig(err))

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestSigningContext_ConcurrentReads(t *testing.T) {
	sc, err := NewSigningContext(testCredentials(), testRegion, testService, testNow)
	require.NoError(t, err)

	policy, err := EncodePolicy(testPolicyRequest(), sc)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Signature, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sig, err := SignPolicy(testSecretKey, sc, policy)
			if err == nil {
				results[i] = sig
			}
		}(i)
	}
	wg.Wait()

	for _, sig := range results {
		assert.Equal(t, Signature(goldenSignature), sig)
	}
}

func TestCredentials_Redacted(t *testing.T) {
	creds := Credentials{AccessKeyID: "AKID", SecretKey: "super-secret", SessionToken: "tok"}
	for _, s := range []string{creds.String(), fmt.Sprintf("%v", creds), fmt.Sprintf("%#v", creds)} {
		assert.Contains(t, s, "AKID")
		assert.NotContains(t, s, "super-secret")
		assert.NotContains(t, s, "tok")
	}
}

func TestRetrieveCredentials(t *testing.T) {
	t.Run("static provider", func(t *testing.T) {
		provider := credentials.NewStaticCredentialsProvider("AKID", "SECRET", "TOKEN")
		creds, err := RetrieveCredentials(t.Context(), provider)
		require.NoError(t, err)
		assert.Equal(t, Credentials{AccessKeyID: "AKID", SecretKey: "SECRET", SessionToken: "TOKEN"}, creds)
	})

	t.Run("nil provider", func(t *testing.T) {
		_, err := RetrieveCredentials(t.Context(), nil)
		assert.True(t, IsInvalidConfig(err))
	})

	t.Run("provider failure", func(t *testing.T) {
		provider := aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{}, errors.New("no credentials")
		})
		_, err := RetrieveCredentials(t.Context(), provider)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no credentials")
	})
}
