// Package s3store keeps discovered voices in an S3-compatible bucket.
//
// Each owner has one JSON object at voices/<owner>.json holding that
// owner's rows. A write rewrites the whole object with a single PutObject,
// guarded by the ETag read just before it, so a batch is applied entirely
// or not at all.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/voicesync/internal/client/client"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

var (
	// ErrConflict means the object changed between read and write.
	ErrConflict = errors.New("voices object modified concurrently")

	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectAPI is the part of *s3.Client the store uses.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	BaseEndpoint string
}

type Store struct {
	api    objectAPI
	bucket string
}

var _ client.Client = (*Store)(nil)

func New(ctx context.Context, o Options) (*Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	api := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			so.UsePathStyle = true
		}
	})
	return &Store{api: api, bucket: o.Bucket}, nil
}

func objectKey(owner string) string {
	return "voices/" + url.PathEscape(owner) + ".json"
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("%w: %w", client.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) FetchVoices(ctx context.Context, userID string) ([]voices.RemoteRecord, error) {
	rows, _, err := s.read(ctx, userID)
	return rows, err
}

// UpsertVoices merges records into the owner's object by voice id.
func (s *Store) UpsertVoices(ctx context.Context, records []voices.RemoteRecord) error {
	if len(records) == 0 {
		return nil
	}
	owner, err := client.BatchOwner(records)
	if err != nil {
		return err
	}

	rows, etag, err := s.read(ctx, owner)
	if err != nil {
		return err
	}

	idx := make(map[string]int, len(rows))
	for i, r := range rows {
		idx[r.VoiceID] = i
	}
	for _, r := range records {
		if i, ok := idx[r.VoiceID]; ok {
			rows[i].FirstDiscoveredAt = voices.Earlier(rows[i].FirstDiscoveredAt, r.FirstDiscoveredAt)
			rows[i].LastOpenedAt = voices.Later(rows[i].LastOpenedAt, r.LastOpenedAt)
			continue
		}
		idx[r.VoiceID] = len(rows)
		rows = append(rows, r)
	}

	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode voices: %w", err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey(owner)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}
	if etag == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(etag)
	}

	if _, err := s.api.PutObject(ctx, in); err != nil {
		if hasCode(err, "PreconditionFailed", "ConditionalRequestConflict") {
			return ErrConflict
		}
		return fmt.Errorf("put %s: %w", objectKey(owner), err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

// read returns the owner's rows and the object's ETag. A missing object
// reads as no rows and an empty ETag.
func (s *Store) read(ctx context.Context, owner string) ([]voices.RemoteRecord, string, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey(owner)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) || hasCode(err, "NoSuchKey", "NotFound") {
			return []voices.RemoteRecord{}, "", nil
		}
		return nil, "", fmt.Errorf("get %s: %w", objectKey(owner), err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", objectKey(owner), err)
	}

	var rows []voices.RemoteRecord
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", objectKey(owner), err)
	}

	// rows belong to owner by location, whatever the payload says
	for i := range rows {
		rows[i].UserID = owner
	}
	return rows, aws.ToString(out.ETag), nil
}

func hasCode(err error, codes ...string) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.ErrorCode() == c {
			return true
		}
	}
	return false
}
