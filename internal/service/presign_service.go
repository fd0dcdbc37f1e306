package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/internal/storage"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// PresignService issues browser upload targets for ticket attachments.
type PresignService struct {
	objects ObjectStore
	store   paramstore.Store
	params  config.Parameters
	bucket  string
	logger  *zap.Logger
}

// NewPresignService wires the service.
func NewPresignService(objects ObjectStore, store paramstore.Store, params config.Parameters, bucket string, logger *zap.Logger) *PresignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PresignService{objects: objects, store: store, params: params, bucket: bucket, logger: logger}
}

// Presign returns a POST target for {issueKey}/{fileName}. The lifetime in
// seconds is read from the parameter store on every call.
func (s *PresignService) Presign(ctx context.Context, issueKey, fileName string) (*storage.PresignedPost, error) {
	if strings.TrimSpace(issueKey) == "" || strings.TrimSpace(fileName) == "" {
		return nil, errorutil.NewValidationError("`issue_key` and `file_name` must be defined in querystring")
	}
	if s.bucket == "" {
		return nil, errorutil.NewConfigurationMissing([]string{"S3_PRESIGN_BUCKET"}, nil)
	}

	name := s.params.PresignTTL()
	values, err := paramstore.Resolve(ctx, s.store, name)
	if err != nil {
		return nil, err
	}
	seconds, err := values.Int(name)
	if err != nil || seconds <= 0 {
		return nil, fmt.Errorf("presign ttl %q is not a positive number of seconds", values.Get(name))
	}

	key := issueKey + "/" + fileName
	post, err := s.objects.PresignPost(ctx, s.bucket, key, time.Duration(seconds)*time.Second)
	if err != nil {
		return nil, err
	}
	s.logger.Info("upload url issued", zap.String("issue_key", issueKey), zap.String("key", key), zap.Int("ttl_seconds", seconds))
	return post, nil
}
