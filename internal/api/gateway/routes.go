package gateway

import (
	"context"
	"net/http"

	"github.com/spec-kit/snowsync/internal/storage"
)

// Route names, also used as metric labels.
const (
	RouteJiraProcessor = "jira-processor"
	RouteSnowProcessor = "snow-processor"
	RouteJSDToS3       = "jsd-to-s3"
	RouteS3Presign     = "s3-presign"
)

// IncidentPathParam carries the target record id on PUT routes.
const IncidentPathParam = "incidentId"

// IncidentSync is implemented by JiraInboundService.
type IncidentSync interface {
	Create(ctx context.Context, body map[string]any) (string, error)
	Update(ctx context.Context, incidentID string, body map[string]any) error
}

// RequestSync is implemented by SnowInboundService.
type RequestSync interface {
	Create(ctx context.Context, body map[string]any) (string, error)
	Update(ctx context.Context, issueKey string, body map[string]any) error
}

// AttachmentCopier is implemented by AttachmentService.
type AttachmentCopier interface {
	CopyToBucket(ctx context.Context, body map[string]any) ([]string, error)
}

// UploadSigner is implemented by PresignService.
type UploadSigner interface {
	Presign(ctx context.Context, issueKey, fileName string) (*storage.PresignedPost, error)
}

// JiraProcessor creates (POST) and updates (PUT) ServiceNow incidents from
// Jira webhooks.
func JiraProcessor(svc IncidentSync) Route {
	return Route{
		Name:        RouteJiraProcessor,
		Methods:     []string{http.MethodPost, http.MethodPut},
		RequireJSON: true,
		DecodeBody:  true,
		Handle: func(ctx context.Context, call *Call) (map[string]any, error) {
			if call.Method == http.MethodPut {
				return nil, svc.Update(ctx, call.PathParams[IncidentPathParam], call.Body)
			}
			number, err := svc.Create(ctx, call.Body)
			if err != nil {
				return nil, err
			}
			return map[string]any{"number": number}, nil
		},
	}
}

// SnowProcessor creates (POST) and comments on (PUT) JSD requests from
// ServiceNow pushes.
func SnowProcessor(svc RequestSync) Route {
	return Route{
		Name:        RouteSnowProcessor,
		Methods:     []string{http.MethodPost, http.MethodPut},
		RequireJSON: true,
		DecodeBody:  true,
		Handle: func(ctx context.Context, call *Call) (map[string]any, error) {
			if call.Method == http.MethodPut {
				return nil, svc.Update(ctx, call.PathParams[IncidentPathParam], call.Body)
			}
			key, err := svc.Create(ctx, call.Body)
			if err != nil {
				return nil, err
			}
			return map[string]any{"vendorticketnumber": key}, nil
		},
	}
}

// JSDToS3 copies JSD attachments into the relay bucket.
func JSDToS3(svc AttachmentCopier) Route {
	return Route{
		Name:       RouteJSDToS3,
		Methods:    []string{http.MethodPost},
		DecodeBody: true,
		Handle: func(ctx context.Context, call *Call) (map[string]any, error) {
			info, err := svc.CopyToBucket(ctx, call.Body)
			if err != nil {
				return nil, err
			}
			return map[string]any{"info": info}, nil
		},
	}
}

// S3Presign issues an upload target for ?issue_key&file_name.
func S3Presign(svc UploadSigner) Route {
	return Route{
		Name:    RouteS3Presign,
		Methods: []string{http.MethodGet},
		Handle: func(ctx context.Context, call *Call) (map[string]any, error) {
			issueKey := call.Query["issue_key"]
			post, err := svc.Presign(ctx, issueKey, call.Query["file_name"])
			if err != nil {
				return nil, err
			}
			return map[string]any{"upload_url": post, "issue_key": issueKey}, nil
		},
	}
}
