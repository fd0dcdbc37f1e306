package service

import (
	"context"
	"io"
	"time"

	"github.com/spec-kit/snowsync/internal/jsd"
	"github.com/spec-kit/snowsync/internal/snow"
	"github.com/spec-kit/snowsync/internal/storage"
)

// IncidentClient is the ServiceNow surface used by the services.
type IncidentClient interface {
	CreateIncident(ctx context.Context, payload map[string]any) (string, error)
	UpdateIncident(ctx context.Context, id string, payload map[string]any) (map[string]any, error)
	AddAttachment(ctx context.Context, id string, file snow.Attachment) error
}

// RequestClient is the Jira Service Desk surface used by the services.
type RequestClient interface {
	CreateRequest(ctx context.Context, payload map[string]any) (string, error)
	GetRequest(ctx context.Context, key string) (*jsd.Request, error)
	UpdateIssue(ctx context.Context, key string, fields map[string]any) error
	CreateComment(ctx context.Context, key, text string) error
	ListIssueAttachments(ctx context.Context, key string) ([]jsd.IssueAttachment, error)
	DownloadAttachment(ctx context.Context, id, fileName string) (io.ReadCloser, error)
	AttachTemporaryFile(ctx context.Context, serviceDeskID, fileName string, content io.Reader) (string, error)
	AddAttachment(ctx context.Context, key string, temporaryIDs []string, public bool) error
}

// ObjectStore is the bucket surface used by the attachment relay and presign.
type ObjectStore interface {
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Upload(ctx context.Context, bucket, key string, body io.Reader) error
	Delete(ctx context.Context, bucket, key string) error
	PresignPost(ctx context.Context, bucket, key string, ttl time.Duration) (*storage.PresignedPost, error)
}

var (
	_ IncidentClient = (*snow.Client)(nil)
	_ RequestClient  = (*jsd.Client)(nil)
	_ ObjectStore    = (*storage.S3Storage)(nil)
)
