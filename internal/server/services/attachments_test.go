package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/safecircle/internal/common"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAttachmentSvc() *AttachmentService {
	cfg := &config.Config{
		S3Region:       "us-east-1",
		S3RootUser:     "minioadmin",
		S3RootPassword: "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "attachments",
	}
	svc := NewAttachmentService(cfg)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

// stubS3 replaces the client constructors for the duration of the test.
func stubS3(t *testing.T) {
	t.Helper()

	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return &s3.PresignClient{}
	}
}

func TestStorageKey(t *testing.T) {
	d := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	k1 := StorageKey(models.AttachmentPhoto, d)
	k2 := StorageKey(models.AttachmentPhoto, d)

	assert.True(t, strings.HasPrefix(k1, "attachments/photo/2024/03/07/"), k1)
	assert.NotEqual(t, k1, k2)
}

func TestGetPresignClient(t *testing.T) {
	svc := newAttachmentSvc()
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := svc.getPresignClient(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.getPresignClient(context.Background())
	assert.EqualError(t, err, "load-fail")
}

func TestPresignUpload(t *testing.T) {
	svc := newAttachmentSvc()
	stubS3(t)

	var gotKey, gotBucket string
	var gotMeta map[string]string
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		gotKey, gotBucket, gotMeta = *in.Key, *in.Bucket, in.Metadata
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, presignExpiry, po.Expires)
		return &v4.PresignedHTTPRequest{
			URL: "https://put.example/" + *in.Key,
			SignedHeader: http.Header{
				"Host":               {"put.example"},
				"X-Amz-Meta-Account": {"acc-1"},
			},
		}, nil
	}

	ticket, err := svc.PresignUpload(context.Background(), "acc-1", models.AttachmentAudio)
	require.NoError(t, err)
	assert.Equal(t, gotKey, ticket.Key)
	assert.True(t, strings.HasPrefix(ticket.Key, "attachments/audio/2024/05/01/"))
	assert.Equal(t, "https://put.example/"+ticket.Key, ticket.URL)
	assert.Equal(t, "attachments", gotBucket)
	assert.Equal(t, map[string]string{"account": "acc-1"}, gotMeta)
	assert.Equal(t, map[string]string{"X-Amz-Meta-Account": "acc-1"}, ticket.Headers)
}

func TestPresignUpload_Errors(t *testing.T) {
	svc := newAttachmentSvc()
	stubS3(t)

	_, err := svc.PresignUpload(context.Background(), "acc-1", "video")
	assert.ErrorIs(t, err, common.ErrInvalidArgument)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}
	_, err = svc.PresignUpload(context.Background(), "acc-1", models.AttachmentPhoto)
	assert.EqualError(t, err, "presign-fail")

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.PresignUpload(context.Background(), "acc-1", models.AttachmentPhoto)
	assert.EqualError(t, err, "load-fail")
}

func TestPresignDownload(t *testing.T) {
	svc := newAttachmentSvc()
	stubS3(t)

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://get.example/" + *in.Key}, nil
	}

	url, err := svc.PresignDownload(context.Background(), "attachments/photo/2024/05/01/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://get.example/attachments/photo/2024/05/01/abc", url)

	for _, key := range []string{"", "secrets/x", "attachments/../secrets"} {
		_, err := svc.PresignDownload(context.Background(), key)
		assert.ErrorIs(t, err, common.ErrInvalidArgument, key)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-fail")
	}
	_, err = svc.PresignDownload(context.Background(), "attachments/photo/2024/05/01/abc")
	assert.EqualError(t, err, "presign-fail")
}
