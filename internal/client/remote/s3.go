package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/docsync/internal/client/models"
	"github.com/dmitrijs2005/docsync/internal/common"
	"github.com/dmitrijs2005/docsync/internal/logging"
)

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3Client = func(cfg aws.Config, optFns ...func(*s3.Options)) s3API {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store keeps files as objects of one bucket. The object key is the path
// and the ETag is the content hash; writes are guarded with If-Match and
// If-None-Match.
type S3Store struct {
	client  s3API
	bucket  string
	timeout time.Duration
	log     logging.Logger
}

func NewS3Store(ctx context.Context, cfg models.SyncConfig, rt http.RoundTripper, log logging.Logger) (*S3Store, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithHTTPClient(&http.Client{Transport: rt}),
	}
	if cfg.S3.Region != "" {
		opts = append(opts, config.WithRegion(cfg.S3.Region))
	}
	if cfg.S3.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			"",
		)))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3Client(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	return &S3Store{
		client:  client,
		bucket:  cfg.S3.Bucket,
		timeout: cfg.RequestTimeout,
		log:     log.With("bucket", cfg.S3.Bucket),
	}, nil
}

func (s *S3Store) Get(ctx context.Context, path string) (*models.RemoteFile, error) {
	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.GetObject(callCtx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		err = mapS3Error(ctx, err)
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, mapS3Error(ctx, err))
	}

	return &models.RemoteFile{Path: path, ContentHash: unquoteETag(aws.ToString(out.ETag)), Content: content}, nil
}

func (s *S3Store) head(ctx context.Context, path string) (string, error) {
	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.HeadObject(callCtx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		err = mapS3Error(ctx, err)
		if errors.Is(err, common.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return unquoteETag(aws.ToString(out.ETag)), nil
}

func (s *S3Store) Upsert(ctx context.Context, path string, content []byte, message, expectedHash string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   bytes.NewReader(content),
	}

	hash := expectedHash
	if hash == "" {
		current, err := s.head(ctx, path)
		if err != nil {
			return "", fmt.Errorf("upsert %s: %w", path, err)
		}
		hash = current
	}
	if hash == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(quoteETag(hash))
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.client.PutObject(callCtx, in)
	if err != nil {
		return "", fmt.Errorf("upsert %s: %w", path, mapS3Error(ctx, err))
	}

	newHash := unquoteETag(aws.ToString(out.ETag))
	s.log.Debug(ctx, "object written", "key", path, "etag", newHash, "message", message)
	return newHash, nil
}

func (s *S3Store) Delete(ctx context.Context, path, message, hash string) error {
	current, err := s.head(ctx, path)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if current == "" {
		return nil
	}
	if hash != "" && hash != current {
		return fmt.Errorf("delete %s: %w", path, common.ErrConflict)
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.DeleteObject(callCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}); err != nil {
		err = mapS3Error(ctx, err)
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", path, err)
	}

	s.log.Debug(ctx, "object deleted", "key", path, "message", message)
	return nil
}

func (s *S3Store) ListDir(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix += "/"
	}

	entries, err := s.list(ctx, prefix, "/")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}

func (s *S3Store) WalkTree(ctx context.Context, recursive bool) ([]models.TreeEntry, error) {
	delimiter := ""
	if !recursive {
		delimiter = "/"
	}

	entries, err := s.list(ctx, "", delimiter)
	if err != nil {
		return nil, fmt.Errorf("walk tree: %w", err)
	}
	return entries, nil
}

func (s *S3Store) list(ctx context.Context, prefix, delimiter string) ([]models.TreeEntry, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}
	if delimiter != "" {
		in.Delimiter = aws.String(delimiter)
	}

	var entries []models.TreeEntry
	p := s3.NewListObjectsV2Paginator(s.client, in)
	for p.HasMorePages() {
		callCtx, cancel := withTimeout(ctx, s.timeout)
		page, err := p.NextPage(callCtx)
		cancel()
		if err != nil {
			return nil, mapS3Error(ctx, err)
		}

		for _, cp := range page.CommonPrefixes {
			entries = append(entries, models.TreeEntry{
				Path: strings.TrimSuffix(aws.ToString(cp.Prefix), "/"),
				Type: models.EntryTree,
			})
		}
		for _, obj := range page.Contents {
			entries = append(entries, models.TreeEntry{
				Path: aws.ToString(obj.Key),
				Type: models.EntryBlob,
				Hash: unquoteETag(aws.ToString(obj.ETag)),
				Size: aws.ToInt64(obj.Size),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (s *S3Store) Ping(ctx context.Context) error {
	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.client.HeadBucket(callCtx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("ping: %w", mapS3Error(ctx, err))
	}
	return nil
}

func mapS3Error(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", common.ErrNotFound, err)
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%w: %v", common.ErrConflict, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		case "NoSuchBucket", "InvalidBucketName":
			return fmt.Errorf("%w: %v", common.ErrValidation, err)
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return fmt.Errorf("%w: %v", common.ErrTransient, err)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch status := respErr.HTTPStatusCode(); {
		case status == http.StatusNotFound:
			return fmt.Errorf("%w: %v", common.ErrNotFound, err)
		case status == http.StatusPreconditionFailed, status == http.StatusConflict:
			return fmt.Errorf("%w: %v", common.ErrConflict, err)
		case status == http.StatusUnauthorized, status == http.StatusForbidden:
			return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
		case status == http.StatusTooManyRequests, status >= 500:
			return fmt.Errorf("%w: %v", common.ErrTransient, err)
		default:
			return err
		}
	}

	// No response at all: the request never reached the bucket.
	return fmt.Errorf("%w: %v", common.ErrTransient, err)
}

func unquoteETag(etag string) string {
	return strings.Trim(etag, `"`)
}

func quoteETag(hash string) string {
	return `"` + hash + `"`
}
