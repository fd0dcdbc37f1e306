package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/jsd"
	"github.com/spec-kit/snowsync/internal/paramstore"
	"github.com/spec-kit/snowsync/internal/repository"
	"github.com/spec-kit/snowsync/internal/snow"
	"github.com/spec-kit/snowsync/internal/storage"
)

var testParams = config.NewParameters("dev")

func seededStore() *paramstore.MemoryStore {
	return paramstore.NewMemoryStore(map[string]string{
		testParams.JiraCustomerRefField(): "customfield_10100",
		testParams.JiraActualResult():     "customfield_10200",
		testParams.JiraExpectedResult():   "customfield_10201",
		testParams.JiraEnvironment():      "customfield_10300",
		testParams.JiraServiceDeskID():    "7",
		testParams.JiraRequestTypeID():    "42",
		testParams.PresignTTL():           "300",
	})
}

type updateCall struct {
	Key    string
	Fields map[string]any
}

type fakeRequests struct {
	mu          sync.Mutex
	created     []map[string]any
	createKey   string
	createErr   error
	request     *jsd.Request
	getErr      error
	gets        int
	updates     []updateCall
	updateErr   error
	comments    []string
	commentErr  error
	attachments []jsd.IssueAttachment
	listErr     error
	files       map[string]string
	downloadErr map[string]error
	temporary   []string
	attached    []string
	attachErr   error
}

func (f *fakeRequests) CreateRequest(_ context.Context, payload map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, payload)
	return f.createKey, f.createErr
}

func (f *fakeRequests) GetRequest(_ context.Context, key string) (*jsd.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.request, nil
}

func (f *fakeRequests) UpdateIssue(_ context.Context, key string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{Key: key, Fields: fields})
	return f.updateErr
}

func (f *fakeRequests) CreateComment(_ context.Context, _ string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments = append(f.comments, text)
	return nil
}

func (f *fakeRequests) ListIssueAttachments(context.Context, string) ([]jsd.IssueAttachment, error) {
	return f.attachments, f.listErr
}

func (f *fakeRequests) DownloadAttachment(_ context.Context, id, _ string) (io.ReadCloser, error) {
	if err := f.downloadErr[id]; err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewBufferString(f.files[id])), nil
}

func (f *fakeRequests) AttachTemporaryFile(_ context.Context, serviceDeskID, fileName string, content io.Reader) (string, error) {
	if f.attachErr != nil {
		return "", f.attachErr
	}
	data, _ := io.ReadAll(content)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.temporary = append(f.temporary, serviceDeskID+":"+fileName+":"+string(data))
	return "temp-" + fileName, nil
}

func (f *fakeRequests) AddAttachment(_ context.Context, key string, temporaryIDs []string, public bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range temporaryIDs {
		visibility := "internal"
		if public {
			visibility = "public"
		}
		f.attached = append(f.attached, key+":"+id+":"+visibility)
	}
	return nil
}

type fakeIncidents struct {
	created     []map[string]any
	number      string
	createErr   error
	updated     map[string]map[string]any
	updateErr   error
	attachments []string
	attachErr   error
}

func (f *fakeIncidents) CreateIncident(_ context.Context, payload map[string]any) (string, error) {
	f.created = append(f.created, payload)
	return f.number, f.createErr
}

func (f *fakeIncidents) UpdateIncident(_ context.Context, id string, payload map[string]any) (map[string]any, error) {
	if f.updated == nil {
		f.updated = map[string]map[string]any{}
	}
	f.updated[id] = payload
	return nil, f.updateErr
}

func (f *fakeIncidents) AddAttachment(_ context.Context, id string, file snow.Attachment) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attachments = append(f.attachments, id+":"+file.FileName+":"+string(file.Content))
	return nil
}

type fakeObjects struct {
	objects     map[string]string
	uploads     map[string]string
	deleted     []string
	downloadErr error
	presigned   []string
	ttl         time.Duration
}

func newFakeObjects(objects map[string]string) *fakeObjects {
	return &fakeObjects{objects: objects, uploads: map[string]string{}}
}

func (f *fakeObjects) Download(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	content, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewBufferString(content)), nil
}

func (f *fakeObjects) Upload(_ context.Context, bucket, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.uploads[bucket+"/"+key] = string(data)
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, bucket, key string) error {
	f.deleted = append(f.deleted, bucket+"/"+key)
	return nil
}

func (f *fakeObjects) PresignPost(_ context.Context, bucket, key string, ttl time.Duration) (*storage.PresignedPost, error) {
	f.presigned = append(f.presigned, bucket+"/"+key)
	f.ttl = ttl
	return &storage.PresignedPost{
		URL:    "https://" + bucket + ".s3.amazonaws.com/",
		Fields: map[string]string{"key": key},
	}, nil
}

type fakeLinks struct {
	byJira map[string]*domain.Link
	bySnow map[string]*domain.Link
}

func newFakeLinks(links ...domain.Link) *fakeLinks {
	f := &fakeLinks{byJira: map[string]*domain.Link{}, bySnow: map[string]*domain.Link{}}
	for i := range links {
		link := links[i]
		f.byJira[link.JiraKey] = &link
		f.bySnow[link.SnowNumber] = &link
	}
	return f
}

func (f *fakeLinks) Create(_ context.Context, link *domain.Link) error {
	if _, ok := f.byJira[link.JiraKey]; ok {
		return repository.ErrLinkExists
	}
	if _, ok := f.bySnow[link.SnowNumber]; ok {
		return repository.ErrLinkExists
	}
	f.byJira[link.JiraKey] = link
	f.bySnow[link.SnowNumber] = link
	return nil
}

func (f *fakeLinks) GetByJiraKey(_ context.Context, key string) (*domain.Link, error) {
	if link, ok := f.byJira[key]; ok {
		return link, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLinks) GetBySnowNumber(_ context.Context, number string) (*domain.Link, error) {
	if link, ok := f.bySnow[number]; ok {
		return link, nil
	}
	return nil, repository.ErrNotFound
}

type fakeJournal struct {
	entries []domain.SyncJournalEntry
}

func (f *fakeJournal) Append(_ context.Context, entry *domain.SyncJournalEntry) error {
	entry.ID = "journal-" + entry.EventID
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeJournal) ListByTicket(_ context.Context, ticketRef string, _ int) ([]domain.SyncJournalEntry, error) {
	var out []domain.SyncJournalEntry
	for _, e := range f.entries {
		if e.TicketRef == ticketRef {
			out = append(out, e)
		}
	}
	return out, nil
}
