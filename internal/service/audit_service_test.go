package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/events"
)

func TestAuditJournalsPublishedEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	journal := &fakeJournal{}
	NewAuditService(dispatcher, journal, nil, nil).RegisterHandlers()

	requests := &fakeRequests{request: currentRequest()}
	objects := newFakeObjects(map[string]string{"relay/SD-1/a.txt": "a"})
	svc := NewAttachmentService(AttachmentDependencies{
		Requests: requests,
		Objects:  objects,
		Events:   dispatcher,
	})
	svc.RelayToJSD(context.Background(), []ObjectRecord{{Bucket: "relay", Key: "SD-1/a.txt"}})

	notifier := NewChangeNotifier(ChangeNotifierConfig{Requests: requests, Events: dispatcher})
	require.NoError(t, notifier.Notify(context.Background(), "SD-1", map[string]any{"comment": "hi"}, ""))

	require.Len(t, journal.entries, 2)
	assert.Equal(t, domain.ChangeAttachmentRelayed, journal.entries[0].ChangeType)
	assert.Equal(t, "s3_to_jsd", journal.entries[0].Payload["direction"])
	assert.Equal(t, domain.ChangeRequestCommented, journal.entries[1].ChangeType)
	assert.Equal(t, "comment", journal.entries[1].Payload["field"])

	listed, err := journal.ListByTicket(context.Background(), "SD-1", 10)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}
