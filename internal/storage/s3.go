package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	config "github.com/chainbatch/ingestor/configs"
	"github.com/rs/zerolog/log"
)

const defaultCheckpointObjectKey = "last_block.json"

func newS3Client(cfg *config.S3Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override with explicit credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
			}, nil
		})
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// S3CheckpointStore keeps the checkpoint as a single JSON object, for the
// cloud deployment variant. PutObject replaces the object atomically.
type S3CheckpointStore struct {
	client *s3.Client
	bucket string
	key    string
}

type checkpointObject struct {
	LastBlock uint64 `json:"last_block"`
}

func NewS3CheckpointStore(cfg *config.S3Config) (*S3CheckpointStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("checkpoint S3 bucket is not set")
	}
	client, err := newS3Client(cfg)
	if err != nil {
		return nil, err
	}
	key := cfg.Key
	if key == "" {
		key = defaultCheckpointObjectKey
	}
	return &S3CheckpointStore{client: client, bucket: cfg.Bucket, key: key}, nil
}

func (s *S3CheckpointStore) LoadCheckpoint(ctx context.Context) (*uint64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil
		}
		return nil, &StorageError{Op: "checkpoint load", Err: err}
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &StorageError{Op: "checkpoint load", Err: err}
	}
	var checkpoint checkpointObject
	if err := json.Unmarshal(body, &checkpoint); err != nil {
		return nil, &StorageError{Op: "checkpoint load", Err: fmt.Errorf("corrupt checkpoint object: %v", err)}
	}
	return &checkpoint.LastBlock, nil
}

func (s *S3CheckpointStore) SaveCheckpoint(ctx context.Context, blockNumber uint64) error {
	body, err := json.Marshal(checkpointObject{LastBlock: blockNumber})
	if err != nil {
		return &StorageError{Op: "checkpoint save", Err: err}
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return &StorageError{Op: "checkpoint save", Err: err}
	}
	return nil
}

func (s *S3CheckpointStore) Close() error {
	return nil
}

// S3Sink writes each flushed batch as one object under the configured prefix.
type S3Sink struct {
	client *s3.Client
	bucket string
	prefix string
}

func NewS3Sink(cfg *config.S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("sink S3 bucket is not set")
	}
	client, err := newS3Client(cfg)
	if err != nil {
		return nil, err
	}
	return &S3Sink{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *S3Sink) WriteArtifact(ctx context.Context, name string, records []json.RawMessage) error {
	data := encodeArtifact(records)
	key := path.Join(s.prefix, name)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return &StorageError{Op: fmt.Sprintf("write %s", key), Err: err}
	}
	log.Debug().Str("bucket", s.bucket).Str("key", key).Int("bytes", len(data)).Msg("Wrote artifact")
	return nil
}

func (s *S3Sink) Close() error {
	return nil
}
