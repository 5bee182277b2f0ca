package s3_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-form-upload/pkg/formupload"
	s3storage "github.com/tendant/simple-form-upload/pkg/formupload/storage/s3"
)

const testBucket = "upload-bucket"

type fakeS3 struct {
	server  *httptest.Server
	backend *s3mem.Backend
}

func setupFakeS3(t *testing.T, createBucket bool) *fakeS3 {
	t.Helper()
	backend := s3mem.New()
	faker := gofakes3.New(backend)
	server := httptest.NewServer(faker.Server())
	t.Cleanup(server.Close)

	if createBucket {
		require.NoError(t, backend.CreateBucket(testBucket))
	}
	return &fakeS3{server: server, backend: backend}
}

func (f *fakeS3) config() s3storage.Config {
	return s3storage.Config{
		Region:          "us-east-1",
		Bucket:          testBucket,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Endpoint:        f.server.URL,
		UsePathStyle:    true,
	}
}

func TestNew(t *testing.T) {
	t.Run("requires bucket", func(t *testing.T) {
		_, err := s3storage.New(context.Background(), s3storage.Config{})
		assert.Error(t, err)
	})

	t.Run("creates missing bucket", func(t *testing.T) {
		fake := setupFakeS3(t, false)
		cfg := fake.config()
		cfg.CreateBucketIfNotExist = true

		backend, err := s3storage.New(t.Context(), cfg)
		require.NoError(t, err)
		assert.Equal(t, testBucket, backend.Bucket())

		ok, err := fake.backend.BucketExists(testBucket)
		require.NoError(t, err)
		assert.True(t, ok)

		// second call is a no-op
		assert.NoError(t, backend.EnsureBucket(t.Context()))
	})
}

func TestBackend_Stat(t *testing.T) {
	fake := setupFakeS3(t, true)
	backend, err := s3storage.New(t.Context(), fake.config())
	require.NoError(t, err)

	t.Run("missing object", func(t *testing.T) {
		_, err := backend.Stat(t.Context(), "uploads/missing.png")
		assert.ErrorIs(t, err, s3storage.ErrObjectNotFound)
	})

	t.Run("existing object", func(t *testing.T) {
		client := awss3.New(awss3.Options{
			Region:       "us-east-1",
			BaseEndpoint: aws.String(fake.server.URL),
			UsePathStyle: true,
			Credentials:  aws.AnonymousCredentials{},

			RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		})
		_, err := client.PutObject(t.Context(), &awss3.PutObjectInput{
			Bucket:      aws.String(testBucket),
			Key:         aws.String("uploads/a.png"),
			Body:        bytes.NewReader([]byte("0123456789")),
			ContentType: aws.String("image/png"),
		})
		require.NoError(t, err)

		info, err := backend.Stat(t.Context(), "uploads/a.png")
		require.NoError(t, err)
		assert.Equal(t, "uploads/a.png", info.Key)
		assert.Equal(t, int64(10), info.Size)
		assert.Equal(t, "image/png", info.ContentType)
		assert.NotEmpty(t, info.ETag)
		assert.NotContains(t, info.ETag, `"`)
	})
}

func TestBackend_DownloadURL(t *testing.T) {
	fake := setupFakeS3(t, true)
	backend, err := s3storage.New(t.Context(), fake.config())
	require.NoError(t, err)

	url, err := backend.DownloadURL(t.Context(), "uploads/a.png")
	require.NoError(t, err)
	assert.Contains(t, url, fake.server.URL+"/"+testBucket+"/uploads/a.png")
	assert.Contains(t, url, "X-Amz-Signature=")
}

// A browser-style form post lands in the bucket and can be read back
func TestFormUploadRoundTrip(t *testing.T) {
	fake := setupFakeS3(t, true)
	backend, err := s3storage.New(t.Context(), fake.config())
	require.NoError(t, err)

	issuer := formupload.New(formupload.WithEndpoint(fake.server.URL, true))
	form, err := issuer.Issue(formupload.Config{
		BucketName:              testBucket,
		ACL:                     "private",
		ExpiresIntervalSeconds:  60,
		ContentTypePrefix:       "image/",
		ContentLengthMaxBytes:   1 << 20,
		FileDestinationTemplate: "uploads/{uuid}.png",
		Region:                  "us-east-1",
		AccessKeyID:             "test",
		SecretKey:               "test",
	})
	require.NoError(t, err)
	assert.Equal(t, fake.server.URL+"/"+testBucket+"/", form.Action)

	client := formupload.NewClient(formupload.WithRetry(1, time.Millisecond))
	err = client.Upload(t.Context(), form, "photo.png", bytes.NewReader([]byte("fake png body")),
		formupload.WithContentType("image/png"))
	require.NoError(t, err)

	info, err := backend.Stat(t.Context(), form.Fields.Key)
	require.NoError(t, err)
	assert.Equal(t, int64(len("fake png body")), info.Size)
}
