// Package backup copies the deck layout to an S3-compatible bucket, sealed
// with the storage key.
package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/taurisky/taurisky/internal/common"
	"github.com/taurisky/taurisky/internal/cryptox"
	"github.com/taurisky/taurisky/internal/models"
)

// ColumnsKey is the object key of the sealed layout.
const ColumnsKey = "decks/columns.json.enc"

// ObjectStore is the part of *s3.Client the backup uses.
type ObjectStore interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectStore {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Config selects the bucket. An empty Bucket disables backups.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // S3-compatible endpoint such as MinIO; empty means AWS
	AccessKey string
	SecretKey string
}

type Store struct {
	client ObjectStore
	bucket string
	sealer *cryptox.Sealer
}

// New builds a Store from cfg. With no bucket configured it returns a Store
// whose operations fail with common.ErrBackupDisabled.
func New(ctx context.Context, cfg Config, sealer *cryptox.Sealer) (*Store, error) {
	if cfg.Bucket == "" {
		return &Store{sealer: sealer}, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg.Bucket, sealer), nil
}

func NewWithClient(client ObjectStore, bucket string, sealer *cryptox.Sealer) *Store {
	return &Store{client: client, bucket: bucket, sealer: sealer}
}

func (s *Store) Enabled() bool {
	return s != nil && s.client != nil && s.bucket != ""
}

// SaveColumns uploads the sealed layout, replacing the previous backup.
func (s *Store) SaveColumns(ctx context.Context, cols []models.DeckColumnConfig) error {
	if !s.Enabled() {
		return common.ErrBackupDisabled
	}
	if len(cols) == 0 {
		return common.ErrNoColumns
	}

	sealed, err := s.sealer.SealJSON(cols)
	if err != nil {
		return fmt.Errorf("seal columns: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ColumnsKey),
		Body:        bytes.NewReader([]byte(sealed)),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}
	return nil
}

// LoadColumns downloads and opens the layout backup. A missing object is
// common.ErrorNotFound.
func (s *Store) LoadColumns(ctx context.Context) ([]models.DeckColumnConfig, error) {
	if !s.Enabled() {
		return nil, common.ErrBackupDisabled
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ColumnsKey),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("backup: %w", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("download backup: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var cols []models.DeckColumnConfig
	if err := s.sealer.OpenJSON(string(body), &cols); err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	return cols, nil
}
