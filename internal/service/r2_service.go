package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/maheshrc27/postqueue/configs"
	"github.com/maheshrc27/postqueue/pkg/utils"
)

// S3Client is the subset of the S3 API the uploader needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type R2Service struct {
	config config.R2
	client S3Client
}

func NewR2Service(cfg config.Config, client S3Client) *R2Service {
	return &R2Service{config: cfg.R2, client: client}
}

// NewR2Client builds an S3 client pointed at the Cloudflare R2 account endpoint.
func NewR2Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2.AccessKey, cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2.AccountID))
	}), nil
}

// UploadToR2 stores file under key in the configured bucket.
func (r *R2Service) UploadToR2(ctx context.Context, key string, file []byte, filetype string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.config.BucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file),
		ContentType:   aws.String(filetype),
		ContentLength: aws.Int64(int64(len(file))),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UploadMediaGetURL uploads a staged media file and returns its public URL.
func (r *R2Service) UploadMediaGetURL(ctx context.Context, localPath string) (string, error) {
	media, err := utils.SniffMedia(localPath)
	if err != nil {
		return "", fmt.Errorf("error inspecting media file: %w", err)
	}

	file, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("error reading media file: %w", err)
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := id + "." + media.Extension

	if err := r.UploadToR2(ctx, key, file, media.MIME); err != nil {
		return "", fmt.Errorf("error uploading file: %w", err)
	}

	slog.Info("uploaded media to object storage", "path", localPath, "key", key)
	return strings.TrimRight(r.config.PublicURL, "/") + "/" + key, nil
}
