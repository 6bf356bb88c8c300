package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "github.com/ignite/mercately-sync/internal/config"
)

// s3API is the slice of the S3 client the checkpoint store uses.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3CheckpointStore keeps the checkpoint in an S3 object for deployments
// without durable local disk. S3 object writes are atomic, which satisfies
// the crash-safety requirement directly.
type S3CheckpointStore struct {
	client s3API
	bucket string
	key    string
}

// NewS3CheckpointStore creates an S3-backed checkpoint store using the
// default AWS credential chain (IAM role on ECS, profile locally).
func NewS3CheckpointStore(ctx context.Context, cfg appconfig.CheckpointConfig) (*S3CheckpointStore, error) {
	region := cfg.S3Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3CheckpointStore{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		key:    cfg.S3Key,
	}, nil
}

func (s *S3CheckpointStore) Load(ctx context.Context) (Checkpoint, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Checkpoint{}, nil
		}
		return Checkpoint{}, fmt.Errorf("reading checkpoint from s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("reading checkpoint body: %w", err)
	}
	return parseCheckpoint(data)
}

func (s *S3CheckpointStore) Save(ctx context.Context, cp Checkpoint) error {
	data, err := marshalCheckpoint(cp)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("writing checkpoint to s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}
