package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/dmitrijs2005/storefront/internal/server/config"
	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PresignExpiry is the lifetime of upload and download URLs.
const PresignExpiry = 15 * time.Minute

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

// DocumentService hands out presigned object storage URLs for user
// documents and records the uploaded documents on the user.
type DocumentService struct {
	repomanager repomanager.RepositoryManager
	config      *config.Config
	logger      logging.Logger
}

func NewDocumentService(m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *DocumentService {
	return &DocumentService{repomanager: m, config: cfg, logger: logger}
}

// DocumentKey returns a fresh storage key for a document of userID.
func DocumentKey(userID string) string {
	return fmt.Sprintf("users/%s/documents/%s", userID, uuid.New())
}

func (s *DocumentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
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

// RequestUpload returns a presigned PUT URL for a new document called name
// and records it on the user, replacing a previous document of that name.
func (s *DocumentService) RequestUpload(ctx context.Context, userID, name string) (string, *models.Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: document name is required", common.ErrorValidation)
	}

	repo := s.repomanager.Users()
	if _, err := repo.GetByID(ctx, userID); err != nil {
		return "", nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := DocumentKey(userID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", nil, fmt.Errorf("presign upload: %w", err)
	}

	doc := models.Document{Name: name, Reference: key}
	_, err = repo.Modify(ctx, userID, func(u models.User) (models.UserPatch, error) {
		docs := slices.DeleteFunc(slices.Clone(u.Documents), func(d models.Document) bool { return d.Name == name })
		docs = append(docs, doc)
		return models.UserPatch{Documents: &docs}, nil
	})
	if err != nil {
		return "", nil, err
	}

	s.logger.Info(ctx, "document upload requested", "user_id", userID, "document", name, "key", key)
	return req.URL, &doc, nil
}

// DownloadURL returns a presigned GET URL for the user's document name.
func (s *DocumentService) DownloadURL(ctx context.Context, userID, name string) (string, error) {
	u, err := s.repomanager.Users().GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	i := slices.IndexFunc(u.Documents, func(d models.Document) bool { return d.Name == name })
	if i < 0 {
		return "", fmt.Errorf("%w: document %s", common.ErrorNotFound, name)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := u.Documents[i].Reference

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return req.URL, nil
}
