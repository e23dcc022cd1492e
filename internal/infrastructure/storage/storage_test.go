package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nanobananary/studio-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Storage_Upload(t *testing.T) {
	putter := &fakePutter{}
	u := &S3Storage{
		cfg:    config.S3Config{Bucket: "media", PublicBaseURL: "https://cdn.example.com/", Prefix: "/studio/"},
		client: putter,
		now:    func() time.Time { return time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC) },
	}

	url, err := u.Upload(context.Background(), "results", []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	key := aws.ToString(putter.input.Key)
	assert.True(t, strings.HasPrefix(key, "studio/results/2025/03/07/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.Equal(t, "media", aws.ToString(putter.input.Bucket))
	assert.Equal(t, "https://cdn.example.com/"+key, url)
	assert.Equal(t, []byte("png-bytes"), putter.body)
}

func TestS3Storage_UploadErrors(t *testing.T) {
	u := &S3Storage{cfg: config.S3Config{Bucket: "media", PublicBaseURL: "https://cdn"}, client: &fakePutter{err: errors.New("denied")}, now: time.Now}

	_, err := u.Upload(context.Background(), "results", nil, "image/png")
	assert.Error(t, err)

	_, err = u.Upload(context.Background(), "results", []byte("x"), "video/mp4")
	assert.ErrorContains(t, err, "denied")
}

func TestNew_FallsBackToInline(t *testing.T) {
	s, err := New(config.S3Config{})
	require.NoError(t, err)
	_, ok := s.(*InlineStorage)
	assert.True(t, ok)

	_, err = NewS3Storage(config.S3Config{Bucket: "b", Region: "r", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "public base url")
}

func TestInlineStorage_RoundTrip(t *testing.T) {
	url, err := NewInlineStorage().Upload(context.Background(), "results", []byte("hello"), "image/webp")
	require.NoError(t, err)
	assert.Equal(t, "data:image/webp;base64,aGVsbG8=", url)

	data, contentType, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/webp", contentType)

	data, contentType, err = DecodeDataURL("aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.Equal(t, "image/png", contentType)

	_, _, err = DecodeDataURL("data:image/png;base64")
	assert.Error(t, err)
}
