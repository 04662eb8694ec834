package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Amedjranamen/IM/internal/config"
)

const s3KeyPrefix = "uploads"

// S3Store keeps files in an S3 bucket under a fixed key prefix.
type S3Store struct {
	bucket   string
	s3Client *s3.Client
}

// NewS3Store creates a new S3-backed store.
func NewS3Store(cfg *config.Config) (*S3Store, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		// Use static credentials from config for simplicity
		// For production, prefer IAM roles or other secure credential methods
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Store{
		bucket:   cfg.AwsS3Bucket,
		s3Client: s3.NewFromConfig(awsCfg),
	}, nil
}

func (s *S3Store) key(filename string) string {
	return s3KeyPrefix + "/" + path.Base(filename)
}

func (s *S3Store) Save(ctx context.Context, filename string, r io.Reader) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", filename, err)
	}
	return nil
}

func (s *S3Store) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", filename, err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, filename string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(filename)),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to delete object %s: %w", filename, err)
	}
	return nil
}
