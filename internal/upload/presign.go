package upload

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// signedURLTTL is how long a signed PUT URL stays valid.
const signedURLTTL = 5 * time.Minute

// Presigner issues time-limited write URLs scoped to one storage key.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
}

// S3Presigner signs PUT URLs against an S3-compatible endpoint (the bucket
// lives on Cloudflare R2, which speaks the S3 API).
type S3Presigner struct {
	presign *s3.PresignClient
	bucket  string
}

func NewS3Presigner(endpoint, bucket, accessKeyID, secretKey string) *S3Presigner {
	client := s3.New(s3.Options{
		Region:       "auto",
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, ""),
	})
	return &S3Presigner{
		presign: s3.NewPresignClient(client),
		bucket:  bucket,
	}
}

func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	out, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(signedURLTTL))
	if err != nil {
		return "", fmt.Errorf("presigning put for %s: %w", key, err)
	}
	return out.URL, nil
}
