package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/google/uuid"
)

const (
	attachmentPrefix = "attachments/"
	presignExpiry    = 15 * time.Minute
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// AttachmentService hands out presigned object storage URLs for photos and
// voice notes. Message and SOS rows only keep the returned key; the server
// never reads attachment bytes.
type AttachmentService struct {
	config *config.Config
	now    func() time.Time
}

func NewAttachmentService(cfg *config.Config) *AttachmentService {
	return &AttachmentService{config: cfg, now: utcNow}
}

// StorageKey returns a fresh key of the form attachments/<kind>/<yyyy>/<mm>/<dd>/<uuid>.
func StorageKey(kind string, d time.Time) string {
	return fmt.Sprintf("%s%s/%04d/%02d/%02d/%v", attachmentPrefix, kind, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// PresignUpload reserves a storage key for a new attachment of kind and
// returns a presigned PUT URL for it.
func (s *AttachmentService) PresignUpload(ctx context.Context, accountID, kind string) (*models.UploadTicket, error) {
	if kind != models.AttachmentPhoto && kind != models.AttachmentAudio {
		return nil, fmt.Errorf("%w: unknown attachment kind %q", common.ErrInvalidArgument, kind)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := StorageKey(kind, s.now())

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:   &bucket,
		Key:      &key,
		Metadata: map[string]string{"account": accountID},
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, err
	}

	ticket := &models.UploadTicket{Key: key, URL: req.URL}
	for name, values := range req.SignedHeader {
		if strings.EqualFold(name, "host") || len(values) == 0 {
			continue
		}
		if ticket.Headers == nil {
			ticket.Headers = map[string]string{}
		}
		ticket.Headers[name] = values[0]
	}
	return ticket, nil
}

// PresignDownload returns a presigned GET URL for a key issued by PresignUpload.
func (s *AttachmentService) PresignDownload(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, attachmentPrefix) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: not an attachment key", common.ErrInvalidArgument)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
