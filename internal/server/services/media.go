package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/nwnlabs/portal/internal/common"
	sc "github.com/nwnlabs/portal/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// mediaContentTypes is the fixed extension allow-list; a filename whose
// extension is absent here is rejected before any provider call.
var mediaContentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
	"m4a":  "audio/mp4",
	"aac":  "audio/aac",
	"webm": "video/webm",
	"mp4":  "video/mp4",
	"mov":  "video/quicktime",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
	"gif":  "image/gif",
}

// SignedMediaURL is an ephemeral capability: a presigned URL whose baked-in
// expiry is at most ExpiresIn seconds after issuance. It is never persisted.
type SignedMediaURL struct {
	URL       string
	ExpiresIn int
	Filename  string
}

// MediaService mints short-lived presigned GET URLs for private media
// objects, forcing inline content disposition so browsers display rather
// than download.
type MediaService struct {
	config *sc.Config
}

func NewMediaService(cfg *sc.Config) *MediaService {
	return &MediaService{config: cfg}
}

// MediaURL validates filename, picks the bucket, checks the object exists
// and returns a presigned URL for it.
//
// Errors: ErrorInvalidInput for a bad filename (no provider call is made),
// ErrorNotConfigured when storage credentials are absent, ErrorNotFound when
// the object is missing.
func (s *MediaService) MediaURL(ctx context.Context, filename, bucket string) (*SignedMediaURL, error) {
	contentType, err := validateFilename(filename)
	if err != nil {
		return nil, err
	}

	if !s.config.StorageConfigured() {
		return nil, common.ErrorNotConfigured
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	target := s.resolveBucket(bucket)

	_, err = headObject(client, ctx, &s3.HeadObjectInput{
		Bucket: &target,
		Key:    &filename,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("head object: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket:                     &target,
		Key:                        &filename,
		ResponseContentDisposition: aws.String(fmt.Sprintf("inline; filename=%q", filename)),
		ResponseContentType:        aws.String(contentType),
	}, s3.WithPresignExpires(s.config.URLExpiration))
	if err != nil {
		return nil, fmt.Errorf("presign: %w", err)
	}

	return &SignedMediaURL{
		URL:       req.URL,
		ExpiresIn: int(s.config.URLExpiration.Seconds()),
		Filename:  filename,
	}, nil
}

// validateFilename returns the content type for filename or ErrorInvalidInput.
// Checks run in order: non-empty, no parent-directory segments or
// backslashes, extension in the allow-list.
func validateFilename(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("%w: filename is required", common.ErrorInvalidInput)
	}
	if strings.Contains(filename, "..") || strings.Contains(filename, `\`) {
		return "", fmt.Errorf("%w: invalid filename", common.ErrorInvalidInput)
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	contentType, ok := mediaContentTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type %q", common.ErrorInvalidInput, ext)
	}

	return contentType, nil
}

// resolveBucket returns the override bucket when it is on the allow-list,
// otherwise the default bucket. Unknown names fall back silently.
func (s *MediaService) resolveBucket(bucket string) string {
	if bucket == "" {
		return s.config.S3Bucket
	}
	for _, allowed := range s.config.S3AllowedBuckets {
		if bucket == allowed {
			return bucket
		}
	}
	return s.config.S3Bucket
}

func (s *MediaService) newClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		}
	}), nil
}
