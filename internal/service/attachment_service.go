package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/snowsync/internal/clock"
	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
	"github.com/spec-kit/snowsync/internal/snow"
	"github.com/spec-kit/snowsync/internal/validation"
	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// Relay directions, used in events and metrics.
const (
	DirectionJSDToS3  = "jsd_to_s3"
	DirectionS3ToJSD  = "s3_to_jsd"
	DirectionS3ToSnow = "s3_to_snow"
)

// Info messages returned by the JSD to bucket copy.
const (
	MsgNoAttachmentFound   = "No attachment found"
	MsgNoAttachmentMatched = "No attachment matched"
)

// ObjectRecord identifies one created bucket object. Key is exactly as
// delivered in the notification, still URL encoded.
type ObjectRecord struct {
	Bucket string
	Key    string
}

// RelayReport summarises one storage event batch.
type RelayReport struct {
	Relayed int
	Failed  int
}

// AttachmentService moves files between the ticketing systems through the
// relay buckets.
type AttachmentService struct {
	requests  RequestClient
	incidents IncidentClient
	objects   ObjectStore
	jsdBucket string
	publisher publisher
	logger    *zap.Logger
}

// AttachmentDependencies bundles collaborators for AttachmentService.
type AttachmentDependencies struct {
	Requests  RequestClient
	Incidents IncidentClient
	Objects   ObjectStore
	JSDBucket string
	Events    events.Dispatcher
	Clock     clock.Clock
	Logger    *zap.Logger
}

// NewAttachmentService wires the service.
func NewAttachmentService(deps AttachmentDependencies) *AttachmentService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AttachmentService{
		requests:  deps.Requests,
		incidents: deps.Incidents,
		objects:   deps.Objects,
		jsdBucket: deps.JSDBucket,
		publisher: newPublisher(deps.Events, deps.Clock, deps.Logger),
		logger:    deps.Logger,
	}
}

type jsdAttachmentRef struct {
	id       string
	fileName string
}

// CopyToBucket copies JSD attachments to {customerRefNo}/{attachmentId}/{fileName}.
// A body carrying commentId copies only the issue attachments whose file
// name appears in the comment text. Per-file failures become info lines.
func (s *AttachmentService) CopyToBucket(ctx context.Context, body map[string]any) ([]string, error) {
	if len(body) == 0 {
		return nil, errorutil.NewValidationError("`body` is absent or empty: {}")
	}
	issueKey, _ := validation.Scalar(body["issueKey"])
	if validation.IsEmpty(issueKey) {
		return nil, errorutil.NewValidationError("`issueKey` is empty")
	}
	customerRef, _ := validation.Scalar(body["customerRefNo"])
	if validation.IsEmpty(customerRef) {
		return nil, errorutil.NewValidationError("`customerRefNo` is empty")
	}
	if s.jsdBucket == "" {
		return nil, errorutil.NewConfigurationMissing([]string{"S3_JSD_BUCKET"}, nil)
	}

	var (
		refs  []jsdAttachmentRef
		empty string
	)
	if _, ok := body["commentId"]; ok {
		matched, err := s.commentAttachments(ctx, issueKey, text(body["body"]))
		if err != nil {
			return nil, err
		}
		refs, empty = matched, MsgNoAttachmentMatched
	} else {
		refs, empty = listedAttachments(body["attachments"]), MsgNoAttachmentFound
	}

	if len(refs) == 0 {
		return []string{empty}, nil
	}
	info := make([]string, 0, len(refs))
	for _, ref := range refs {
		info = append(info, s.copyOne(ctx, issueKey, customerRef, ref))
	}
	return info, nil
}

func (s *AttachmentService) commentAttachments(ctx context.Context, issueKey, comment string) ([]jsdAttachmentRef, error) {
	attachments, err := s.requests.ListIssueAttachments(ctx, issueKey)
	if err != nil {
		return nil, fmt.Errorf("list attachments of %s: %w", issueKey, err)
	}
	var refs []jsdAttachmentRef
	for _, a := range attachments {
		if a.Filename != "" && strings.Contains(comment, a.Filename) {
			refs = append(refs, jsdAttachmentRef{id: a.ID, fileName: a.Filename})
		}
	}
	return refs, nil
}

func listedAttachments(raw any) []jsdAttachmentRef {
	items, _ := raw.([]any)
	refs := make([]jsdAttachmentRef, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, _ := validation.Scalar(obj["attachmentId"])
		name, _ := validation.Scalar(obj["fileName"])
		refs = append(refs, jsdAttachmentRef{id: id, fileName: name})
	}
	return refs
}

func (s *AttachmentService) copyOne(ctx context.Context, issueKey, customerRef string, ref jsdAttachmentRef) string {
	key := fmt.Sprintf("%s/%s/%s", customerRef, ref.id, ref.fileName)
	err := s.download(ctx, ref, key)
	s.report(ctx, DirectionJSDToS3, domain.SystemJira, issueKey, customerRef, s.jsdBucket, key, ref.fileName, err)
	if err != nil {
		return fmt.Sprintf("Failed to upload %s: %v", ref.fileName, err)
	}
	return fmt.Sprintf("Uploaded %s", ref.fileName)
}

func (s *AttachmentService) download(ctx context.Context, ref jsdAttachmentRef, key string) error {
	content, err := s.requests.DownloadAttachment(ctx, ref.id, ref.fileName)
	if err != nil {
		return err
	}
	defer content.Close()
	return s.objects.Upload(ctx, s.jsdBucket, key, content)
}

// RelayToJSD attaches {issueKey}/{...}/{fileName} objects to their request
// as public attachments. Every object is deleted afterwards, relayed or not.
func (s *AttachmentService) RelayToJSD(ctx context.Context, records []ObjectRecord) RelayReport {
	return s.relay(ctx, DirectionS3ToJSD, domain.SystemJira, records, splitObjectKey, s.attachToRequest)
}

// RelayToSnow attaches {incidentNumber}/{attachmentId}/{fileName} objects to
// their incident. The file name is everything after the attachment id, so
// nested paths survive. Every object is deleted afterwards, relayed or not.
func (s *AttachmentService) RelayToSnow(ctx context.Context, records []ObjectRecord) RelayReport {
	return s.relay(ctx, DirectionS3ToSnow, domain.SystemSnow, records, splitSnowObjectKey, s.attachToIncident)
}

type relayFunc func(ctx context.Context, ticketRef, fileName string, content io.Reader) error

type keySplitter func(key string) (ticketRef, fileName string)

func (s *AttachmentService) relay(ctx context.Context, direction string, target domain.TicketSystem, records []ObjectRecord, split keySplitter, attach relayFunc) RelayReport {
	var report RelayReport
	for _, record := range records {
		key := DecodeObjectKey(record.Key)
		ticketRef, fileName := split(key)

		err := s.relayOne(ctx, record.Bucket, key, ticketRef, fileName, attach)
		if err != nil {
			report.Failed++
			s.logger.Error("attachment relay failed",
				zap.String("direction", direction),
				zap.String("bucket", record.Bucket),
				zap.String("key", key),
				zap.Error(err))
		} else {
			report.Relayed++
			s.logger.Info("attachment relayed",
				zap.String("direction", direction),
				zap.String("ticket_ref", ticketRef),
				zap.String("file_name", fileName))
		}
		s.report(ctx, direction, target, ticketRef, "", record.Bucket, key, fileName, err)

		if err := s.objects.Delete(ctx, record.Bucket, key); err != nil {
			s.logger.Error("failed to delete relayed object",
				zap.String("bucket", record.Bucket),
				zap.String("key", key),
				zap.Error(err))
		}
	}
	return report
}

func (s *AttachmentService) relayOne(ctx context.Context, bucket, key, ticketRef, fileName string, attach relayFunc) error {
	if ticketRef == "" || fileName == "" {
		return errorutil.NewDomainError(errorutil.CodeTransferFailed,
			fmt.Sprintf("object key %q does not name a ticket and file", key), http.StatusInternalServerError, nil)
	}
	content, err := s.objects.Download(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer content.Close()
	return attach(ctx, ticketRef, fileName, content)
}

func (s *AttachmentService) attachToRequest(ctx context.Context, issueKey, fileName string, content io.Reader) error {
	request, err := s.requests.GetRequest(ctx, issueKey)
	if err != nil {
		return err
	}
	if request == nil || request.ServiceDeskID == "" {
		return fmt.Errorf("request %s has no service desk", issueKey)
	}
	temporaryID, err := s.requests.AttachTemporaryFile(ctx, request.ServiceDeskID, fileName, content)
	if err != nil {
		return err
	}
	return s.requests.AddAttachment(ctx, issueKey, []string{temporaryID}, true)
}

func (s *AttachmentService) attachToIncident(ctx context.Context, number, fileName string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	return s.incidents.AddAttachment(ctx, number, snow.Attachment{FileName: fileName, Content: data})
}

func (s *AttachmentService) report(ctx context.Context, direction string, source domain.TicketSystem, ticketRef, counterpartRef, bucket, key, fileName string, err error) {
	payload := events.AttachmentPayload{Direction: direction, Bucket: bucket, Key: key, FileName: fileName}
	eventType := events.EventAttachmentRelayed
	if err != nil {
		eventType = events.EventAttachmentFailed
		payload.Error = err.Error()
	}
	s.publisher.publish(ctx, eventType, source, ticketRef, counterpartRef, payload)
}

// DecodeObjectKey reverses the form encoding applied to keys in bucket
// notifications ("+" is a space). Undecodable keys are returned unchanged.
func DecodeObjectKey(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}

// splitObjectKey returns the leading ticket reference and the trailing file
// name of a relay object key.
func splitObjectKey(key string) (string, string) {
	ticketRef, rest, ok := strings.Cut(key, "/")
	if !ok || rest == "" {
		return ticketRef, ""
	}
	return ticketRef, path.Base(rest)
}

// splitSnowObjectKey keeps the whole path after {incidentNumber}/{attachmentId}/
// as the file name.
func splitSnowObjectKey(key string) (string, string) {
	ticketRef, rest, _ := strings.Cut(key, "/")
	_, fileName, ok := strings.Cut(rest, "/")
	if !ok {
		return ticketRef, ""
	}
	return ticketRef, fileName
}
