package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"chat-realtime/internal/apperr"
	"chat-realtime/internal/config"
	"chat-realtime/internal/models"
)

// S3Store stores objects in S3 or MinIO.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func NewS3Store(ctx context.Context, cfg config.StorageConfig) (*S3Store, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: objectBaseURL(cfg),
	}, nil
}

// Upload writes f under folder with a unique key.
func (s *S3Store) Upload(ctx context.Context, folder string, f File) (models.Attachment, error) {
	kind, err := Classify(f.Body)
	if err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %v", apperr.ErrUploadFailure, err)
	}

	key := path.Join(folder, uuid.NewString()+"_"+path.Base(f.Name))
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f.Body,
		ContentType: aws.String(kind.MIME),
	}
	if f.Size >= 0 {
		input.ContentLength = aws.Int64(f.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return models.Attachment{}, fmt.Errorf("%w: %v", apperr.ErrUploadFailure, err)
	}

	return models.Attachment{
		StorageID:     key,
		URL:           s.baseURL + "/" + key,
		FileType:      kind.Ext,
		FileTypeLabel: kind.Label,
	}, nil
}

// Delete removes the given objects in one batch.
func (s *S3Store) Delete(ctx context.Context, storageIDs []string) error {
	if len(storageIDs) == 0 {
		return nil
	}
	objects := make([]types.ObjectIdentifier, 0, len(storageIDs))
	for _, id := range storageIDs {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(id)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete objects: %w", err)
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("failed to delete %d of %d objects: %s", len(out.Errors), len(storageIDs), aws.ToString(out.Errors[0].Message))
	}
	return nil
}

func objectBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}
