package avatar

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chatrelay/internal/pkg/logx"
)

// presignDuration is how long a presigned avatar download URL stays valid.
// Long enough to outlive any reasonable connection; avatars are not secrets.
const presignDuration = 12 * time.Hour

// GalleryConfig holds the settings for the S3-backed avatar gallery.
type GalleryConfig struct {
	BucketName      string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string

	// Prefix under which the stock avatar objects live, e.g. "avatars/".
	Prefix string
}

// S3Gallery serves avatar references by presigning download URLs for stock
// avatar objects stored in an S3-compatible bucket.
type S3Gallery struct {
	cfg      GalleryConfig
	s3Client *s3.Client

	// keys caches the object listing; loaded lazily on first use.
	mu   sync.Mutex
	keys []string
}

// NewS3Gallery initializes the S3 client using a custom configuration that
// supports S3-compatible endpoints.
func NewS3Gallery(cfg GalleryConfig) (*S3Gallery, error) {
	sdkCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		logx.Error(err, "Failed to load AWS SDK config")
		return nil, errors.New("failed to initialize S3 avatar gallery configuration")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &S3Gallery{
		cfg:      cfg,
		s3Client: client,
	}, nil
}

// RandomRef picks a random avatar object from the gallery and returns a
// presigned download URL for it.
func (g *S3Gallery) RandomRef(ctx context.Context) (string, error) {
	key, err := g.randomKey(ctx)
	if err != nil {
		return "", err
	}

	presignClient := s3.NewPresignClient(g.s3Client)

	resp, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &g.cfg.BucketName,
		Key:    &key,
	}, s3.WithPresignExpires(presignDuration))
	if err != nil {
		logx.Error(err, "Failed to presign avatar download URL", "key", key)
		return "", errors.New("failed to presign avatar URL")
	}

	return resp.URL, nil
}

// randomKey returns a random object key from the gallery listing.
func (g *S3Gallery) randomKey(ctx context.Context) (string, error) {
	keys, err := g.listKeys(ctx)
	if err != nil {
		return "", err
	}

	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(keys))))
	if err != nil {
		return "", errors.New("failed to pick a random avatar key")
	}

	return keys[idx.Int64()], nil
}

// listKeys loads and caches the avatar object keys under the configured prefix.
func (g *S3Gallery) listKeys(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.keys) > 0 {
		return g.keys, nil
	}

	paginator := s3.NewListObjectsV2Paginator(g.s3Client, &s3.ListObjectsV2Input{
		Bucket: &g.cfg.BucketName,
		Prefix: &g.cfg.Prefix,
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logx.Error(err, "Failed to list avatar gallery objects", "prefix", g.cfg.Prefix)
			return nil, errors.New("failed to list avatar gallery")
		}

		for _, obj := range page.Contents {
			if obj.Key != nil && *obj.Key != g.cfg.Prefix {
				keys = append(keys, *obj.Key)
			}
		}
	}

	if len(keys) == 0 {
		return nil, errors.New("avatar gallery is empty")
	}

	g.keys = keys
	return g.keys, nil
}
