// Package media stores uploaded image and video files on S3. The submission
// validator only checks presence of media values; the content checks (accept
// pattern, size limit) live here, next to the actual upload.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsCreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lychee-technology/formkit"
)

// The Go mime table does not know common video extensions on minimal
// systems without /etc/mime.types.
func init() {
	_ = mime.AddExtensionType(".mp4", "video/mp4")
	_ = mime.AddExtensionType(".webm", "video/webm")
	_ = mime.AddExtensionType(".mov", "video/quicktime")
	_ = mime.AddExtensionType(".mkv", "video/x-matroska")
	_ = mime.AddExtensionType(".heic", "image/heic")
}

// S3UploadStore implements formkit.UploadStore against an S3 bucket.
type S3UploadStore struct {
	client   *s3.Client
	uploader *manager.Uploader
	config   formkit.MediaConfig
}

// NewS3UploadStore builds an S3-backed upload store. Static credentials take
// precedence over the ambient AWS credential chain when both are provided.
func NewS3UploadStore(ctx context.Context, cfg formkit.MediaConfig, accessKey, secretKey string) (*S3UploadStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	if accessKey != "" {
		awsCfg.Credentials = awsCreds.NewStaticCredentialsProvider(accessKey, secretKey, "")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = &cfg.Endpoint
			o.UsePathStyle = true
		}
	})

	return &S3UploadStore{
		client:   client,
		uploader: manager.NewUploader(client),
		config:   cfg,
	}, nil
}

// Upload validates the file against the field's accept pattern and size limit,
// then stores it and returns the object key.
func (s *S3UploadStore) Upload(ctx context.Context, field formkit.FormField, filename string, size int64, content []byte) (string, error) {
	if err := CheckFile(field, s.config, filename, size); err != nil {
		return "", err
	}

	key := objectKey(s.config.KeyPrefix, field.ID, filename)
	contentType := contentTypeOf(filename)

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      &s.config.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(content),
		ContentType: &contentType,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			zap.S().Warnw("s3 upload rejected", "key", key, "code", apiErr.ErrorCode(), "message", apiErr.ErrorMessage())
		}
		return "", formkit.NewRemoteError(fmt.Sprintf("failed to upload '%s'", filename), err)
	}

	zap.S().Infow("file uploaded", "key", key, "size", size, "field_id", field.ID)
	return key, nil
}

// CheckFile runs the content checks without touching the network: accept
// pattern first, then the size limit.
func CheckFile(field formkit.FormField, cfg formkit.MediaConfig, filename string, size int64) error {
	contentType := contentTypeOf(filename)
	if field.Accept != "" && !MatchesAccept(field.Accept, filename, contentType) {
		return formkit.NewValidationError(formkit.ErrCodeAcceptMismatch,
			fmt.Sprintf("file '%s' does not match accepted types '%s'", filename, field.Accept)).
			WithFieldID(field.ID)
	}

	limitMB := cfg.DefaultMaxSizeMB
	if field.MaxSizeMB != nil {
		limitMB = *field.MaxSizeMB
	}
	if limitMB > 0 && float64(size) > limitMB*1024*1024 {
		return formkit.NewValidationError(formkit.ErrCodeFileTooLarge,
			fmt.Sprintf("file '%s' exceeds the %g MB limit", filename, limitMB)).
			WithFieldID(field.ID)
	}
	return nil
}

// MatchesAccept evaluates an HTML-style accept attribute: a comma-separated
// list of extensions (".png"), exact MIME types ("image/png") or wildcard
// types ("image/*").
func MatchesAccept(accept, filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}

	for _, part := range strings.Split(accept, ",") {
		pattern := strings.ToLower(strings.TrimSpace(part))
		if pattern == "" {
			continue
		}
		switch {
		case strings.HasPrefix(pattern, "."):
			if pattern == ext {
				return true
			}
		case strings.HasSuffix(pattern, "/*"):
			if strings.HasPrefix(mediaType, strings.TrimSuffix(pattern, "*")) {
				return true
			}
		default:
			if pattern == mediaType {
				return true
			}
		}
	}
	return false
}

func contentTypeOf(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func objectKey(prefix, fieldID, filename string) string {
	base := filepath.Base(filename)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s_%s", fieldID, uuid.NewString(), base)
	}
	return fmt.Sprintf("%s/%s/%s_%s", prefix, fieldID, uuid.NewString(), base)
}
