package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hlg-fitness/internal/config"
)

var (
	ErrFileTooLarge  = errors.New("file exceeds the maximum allowed size")
	ErrFileType      = errors.New("only JPEG, PNG and GIF images are allowed")
	ErrInvalidObject = errors.New("not a stored object reference")
)

// Storage keeps uploaded images and returns the reference saved on the record.
type Storage interface {
	Save(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64
	AllowedTypes []string
}

var (
	ProductImages = UploadOptions{
		Folder:       "products",
		MaxSize:      5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
	}
	Avatars = UploadOptions{
		Folder:       "avatars",
		MaxSize:      2 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif"},
	}
)

// New picks S3 when a bucket and credentials are configured, the local upload directory otherwise.
func New(cfg config.StorageConfig) (Storage, error) {
	if !cfg.UseS3() {
		if err := os.MkdirAll(cfg.LocalDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir: %w", err)
		}
		return &LocalStorage{Dir: cfg.LocalDir, Prefix: cfg.PublicPrefix}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.S3Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewS3Storage(s3.New(sess), cfg.S3Bucket, cfg.S3Region), nil
}

// Upload checks size and content signature of a multipart file and stores it under a fresh key.
func Upload(ctx context.Context, st Storage, header *multipart.FileHeader, opts UploadOptions) (string, error) {
	if opts.MaxSize > 0 && header.Size > opts.MaxSize {
		return "", ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	var reader io.Reader = file
	if opts.MaxSize > 0 {
		reader = io.LimitReader(file, opts.MaxSize+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if opts.MaxSize > 0 && int64(len(data)) > opts.MaxSize {
		return "", ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	if !allowed(contentType, opts.AllowedTypes) {
		return "", ErrFileType
	}

	return st.Save(ctx, objectKey(opts.Folder, header.Filename, contentType), contentType, data)
}

func allowed(contentType string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if contentType == t {
			return true
		}
	}
	return false
}

func objectKey(folder, originalName, contentType string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		switch contentType {
		case "image/png":
			ext = ".png"
		case "image/gif":
			ext = ".gif"
		default:
			ext = ".jpg"
		}
	}
	name := fmt.Sprintf("%s_%s%s", time.Now().Format("20060102"), uuid.New().String()[:8], ext)
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// LocalStorage writes under Dir and serves files from Prefix.
type LocalStorage struct {
	Dir    string
	Prefix string
}

func (l *LocalStorage) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	path := filepath.Join(l.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload folder: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return strings.TrimRight(l.Prefix, "/") + "/" + key, nil
}

func (l *LocalStorage) Delete(_ context.Context, ref string) error {
	prefix := strings.TrimRight(l.Prefix, "/") + "/"
	if !strings.HasPrefix(ref, prefix) {
		return ErrInvalidObject
	}
	key := strings.TrimPrefix(ref, prefix)
	if strings.Contains(key, "..") {
		return ErrInvalidObject
	}
	err := os.Remove(filepath.Join(l.Dir, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type S3Storage struct {
	client s3iface.S3API
	bucket string
	region string
}

func NewS3Storage(client s3iface.S3API, bucket, region string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, region: region}
}

func (s *S3Storage) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.url(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, ref string) error {
	prefix := s.url("")
	if !strings.HasPrefix(ref, prefix) {
		return ErrInvalidObject
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimPrefix(ref, prefix)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Storage) url(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// Replace removes the previous object after a new one was stored. Failures are logged, not returned.
func Replace(ctx context.Context, st Storage, old *string) {
	if st == nil || old == nil || *old == "" {
		return
	}
	if err := st.Delete(ctx, *old); err != nil && !errors.Is(err, ErrInvalidObject) {
		zap.L().Warn("failed to remove replaced upload", zap.String("ref", *old), zap.Error(err))
	}
}
