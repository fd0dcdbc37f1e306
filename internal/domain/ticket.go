package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketSystem names one side of the bridge.
type TicketSystem string

const (
	SystemJira TicketSystem = "JIRA"
	SystemSnow TicketSystem = "SNOW"
)

// ParseTicketSystem accepts the system names case-insensitively.
func ParseTicketSystem(s string) (TicketSystem, error) {
	switch TicketSystem(strings.ToUpper(strings.TrimSpace(s))) {
	case SystemJira:
		return SystemJira, nil
	case SystemSnow:
		return SystemSnow, nil
	}
	return "", fmt.Errorf("unknown ticket system %q", s)
}

// Link cross-references a JSD request with its ServiceNow incident. Both keys
// are unique: a reference, once set, identifies exactly one counterpart.
type Link struct {
	ID         string
	JiraKey    string
	SnowNumber string
	CreatedAt  time.Time
}

// Field names shared by both inbound payloads.
const (
	FieldSummary            = "summary"
	FieldDescription        = "description"
	FieldPriority           = "priority"
	FieldStatus             = "status"
	FieldComment            = "comment"
	FieldReportedBy         = "reportedby"
	FieldSnowIncidentNumber = "snow_incident_number"
)
