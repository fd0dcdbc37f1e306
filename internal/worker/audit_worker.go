package worker

import (
	"github.com/spec-kit/snowsync/internal/service"
)

// StartAuditWorker registers the sync journal handlers.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
