// Package archive exports ledger snapshots to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/eday-ledger/internal/config"
	"github.com/prn-tf/eday-ledger/internal/domain"
	"github.com/prn-tf/eday-ledger/internal/pkg/crypto"
)

// ErrNotConfigured indicates no archive bucket is set.
var ErrNotConfigured = errors.New("archive bucket not configured")

// PutObjectAPI is the subset of the S3 client the exporter needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// LedgerReader provides the state to export.
type LedgerReader interface {
	ListCandidates(ctx context.Context) ([]domain.Candidate, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Document is the exported JSON body.
// Users carry their derived ids; with the legacy scheme those are reversible.
type Document struct {
	ExportedAt time.Time          `json:"exported_at"`
	Candidates []domain.Candidate `json:"candidates"`
	Users      []domain.User      `json:"users"`
	Results    *domain.Results    `json:"results"`
}

// Exporter writes ledger snapshots to a bucket.
type Exporter struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
	logger zerolog.Logger

	encryptor *crypto.Encryptor
}

// NewExporter creates a new Exporter.
func NewExporter(client PutObjectAPI, bucket, prefix string, logger zerolog.Logger) *Exporter {
	return &Exporter{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
		logger: logger.With().Str("component", "archive").Logger(),
	}
}

// WithEncryption seals every export with enc. Sealed objects get a ".enc" suffix.
func (e *Exporter) WithEncryption(enc *crypto.Encryptor) *Exporter {
	e.encryptor = enc
	return e
}

// NewS3Client builds an S3 client from the archive configuration.
// Static credentials are used when both keys are set, otherwise the default chain.
func NewS3Client(ctx context.Context, cfg config.ArchiveConfig) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Export uploads one snapshot and returns its object key.
func (e *Exporter) Export(ctx context.Context, ledger LedgerReader) (string, error) {
	if e.bucket == "" {
		return "", ErrNotConfigured
	}

	candidates, err := ledger.ListCandidates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read candidates: %w", err)
	}
	users, err := ledger.ListUsers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read users: %w", err)
	}

	now := e.now().UTC()
	body, err := json.MarshalIndent(Document{
		ExportedAt: now,
		Candidates: candidates,
		Users:      users,
		Results:    domain.ComputeResults(candidates, users),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	key := path.Join(e.prefix, fmt.Sprintf("ledger-%d.json", now.Unix()))
	contentType := "application/json"
	if e.encryptor != nil {
		if body, err = e.encryptor.Seal(body); err != nil {
			return "", fmt.Errorf("failed to encrypt export: %w", err)
		}
		key += ".enc"
		contentType = "application/octet-stream"
	}

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(e.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	e.logger.Info().
		Str("bucket", e.bucket).
		Str("key", key).
		Int("candidates", len(candidates)).
		Int("users", len(users)).
		Bool("encrypted", e.encryptor != nil).
		Msg("ledger exported")

	return key, nil
}
