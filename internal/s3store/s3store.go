// internal/s3store/s3store.go
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sethvargo/go-retry"
)

// ErrNotFound marks a missing object key. It is permanent: callers
// must treat it as fatal for the work item and never retry.
var ErrNotFound = errors.New("s3store: object not found")

// Derivatives are always served fresh so a replaced hero image is not
// masked by a stale CDN copy.
const cacheControl = "no-cache"

type Store struct {
	client     *s3.Client
	bucket     string
	maxRetries uint64
	baseDelay  time.Duration
}

func New(ctx context.Context, bucket, region string) (*Store, error) {
	const op = "s3store.New"

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket), nil
}

func NewWithClient(client *s3.Client, bucket string) *Store {
	return &Store{
		client:     client,
		bucket:     bucket,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
	}
}

func (s *Store) Bucket() string { return s.bucket }

// URL is the public address of a stored object.
func (s *Store) URL(key string) string {
	return fmt.Sprintf("https://%s/%s", s.bucket, key)
}

// Exists reports whether key is present in the bucket.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	const op = "s3store.Exists"

	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: key %s: %w", op, key, err)
	}
	return true, nil
}

// Download fetches an object body. A missing key yields ErrNotFound.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	const op = "s3store.Download"

	var body []byte
	err := s.do(ctx, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		body, err = io.ReadAll(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: key %s: %w", op, key, err)
	}
	return body, nil
}

// Upload stores body under key with the given content type.
func (s *Store) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	const op = "s3store.Upload"

	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(s.bucket),
			Key:          aws.String(key),
			Body:         bytes.NewReader(body),
			ContentType:  aws.String(contentType),
			CacheControl: aws.String(cacheControl),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: key %s: %w", op, key, err)
	}
	return nil
}

// Copy duplicates an object from any bucket into this store's bucket,
// rewriting its metadata to image/jpeg.
func (s *Store) Copy(ctx context.Context, sourceBucket, sourceKey, destKey string) error {
	const op = "s3store.Copy"

	source := url.PathEscape(sourceBucket + "/" + sourceKey)
	err := s.do(ctx, func(ctx context.Context) error {
		_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
			Bucket:            aws.String(s.bucket),
			Key:               aws.String(destKey),
			CopySource:        aws.String(source),
			MetadataDirective: types.MetadataDirectiveReplace,
			ContentType:       aws.String("image/jpeg"),
			CacheControl:      aws.String(cacheControl),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %s/%s -> %s: %w", op, sourceBucket, sourceKey, destKey, err)
	}
	return nil
}

// do runs one S3 call under bounded exponential backoff. Missing keys
// are rewritten to ErrNotFound and never retried; everything else is
// assumed transient.
func (s *Store) do(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewExponential(s.baseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if isNotFound(err) {
			return ErrNotFound
		}
		return retry.RetryableError(err)
	})
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}
