package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	config "github.com/maheshrc27/postqueue/configs"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

func r2Config() config.Config {
	return config.Config{R2: config.R2{BucketName: "media", PublicURL: "https://pub.example.com/"}}
}

func TestR2Service_UploadMediaGetURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	client := &mockS3Client{}
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		body, _ := io.ReadAll(in.Body)
		return *in.Bucket == "media" &&
			strings.HasSuffix(*in.Key, ".png") &&
			*in.ContentType == "image/png" &&
			*in.ContentLength == int64(len(pngHeader)) &&
			string(body) == string(pngHeader)
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	r2 := NewR2Service(r2Config(), client)

	url, err := r2.UploadMediaGetURL(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://pub.example.com/"))
	assert.True(t, strings.HasSuffix(url, ".png"))
	assert.NotContains(t, strings.TrimPrefix(url, "https://"), "//")
	client.AssertExpectations(t)
}

func TestR2Service_UploadFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0o600))

	client := &mockS3Client{}
	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied")).Once()

	r2 := NewR2Service(r2Config(), client)

	_, err := r2.UploadMediaGetURL(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	client.AssertExpectations(t)
}

func TestR2Service_RejectsUnknownMedia(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	client := &mockS3Client{}
	r2 := NewR2Service(r2Config(), client)

	_, err := r2.UploadMediaGetURL(context.Background(), path)
	require.Error(t, err)
	client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}
