// Package mapping translates validated payloads between the Jira and
// ServiceNow field vocabularies.
package mapping

import (
	"fmt"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/domain"
	"github.com/spec-kit/snowsync/internal/validation"
)

// ServiceNow constants written on every new incident.
const (
	IncidentState       = "Active"
	IncidentCategory    = "Application"
	IncidentSubCategory = "Failure"
	IncidentContactType = "Vendor referral"
)

// JSD request field constants.
const (
	NotApplicable      = "N/A"
	ProductionEnvValue = "Production"
)

// SnowDefaults are the deployment-specific values stamped onto ServiceNow
// incidents.
type SnowDefaults struct {
	CallingSystem     string
	ReportedSource    string
	ConfigurationItem string
	Caller            string
	CallerNumber      string
}

// DefaultsFromConfig copies the relevant config section.
func DefaultsFromConfig(cfg config.SnowConfig) SnowDefaults {
	return SnowDefaults{
		CallingSystem:     cfg.CallingSystem,
		ReportedSource:    cfg.ReportedSource,
		ConfigurationItem: cfg.ConfigurationItem,
		Caller:            cfg.Caller,
		CallerNumber:      cfg.CallerNumber,
	}
}

// JiraFieldIDs are the instance-specific identifiers needed to build a JSD
// request. They are looked up per call.
type JiraFieldIDs struct {
	CustomerRef    string
	ActualResult   string
	ExpectedResult string
	Environment    string
	ServiceDeskID  int
	RequestTypeID  int
}

// JiraFields returns the "fields" object of a Jira webhook body.
func JiraFields(body map[string]any) map[string]any {
	fields, _ := body["fields"].(map[string]any)
	if fields == nil {
		return map[string]any{}
	}
	return fields
}

// JiraKey returns the issue key of a Jira webhook body.
func JiraKey(body map[string]any) string {
	key, _ := validation.Scalar(body["key"])
	return key
}

// IncidentFromJira builds the ServiceNow create payload for a validated Jira
// body.
func IncidentFromJira(body map[string]any, d SnowDefaults) map[string]any {
	fields := JiraFields(body)
	severity := jiraSeverity(fields)
	description, _ := fields[domain.FieldDescription].(string)

	return map[string]any{
		"callingSystem":      d.CallingSystem,
		"state":              IncidentState,
		"reportedSource":     d.ReportedSource,
		"category":           IncidentCategory,
		"subCategory":        IncidentSubCategory,
		"configurationItem":  d.ConfigurationItem,
		"impact":             severity.Impact(),
		"urgency":            severity.Urgency(),
		"contactType":        IncidentContactType,
		"caller":             d.Caller,
		"callerNumber":       d.CallerNumber,
		"shortDescription":   fields[domain.FieldSummary],
		"description":        description,
		"assignedTo":         "",
		"vendorTicketNumber": JiraKey(body),
	}
}

// IncidentUpdateFromJira maps only the fields present in the body. The
// calling system is added by the ServiceNow client on write.
func IncidentUpdateFromJira(body map[string]any) map[string]any {
	fields := JiraFields(body)
	update := map[string]any{}
	if !validation.IsEmpty(fields[domain.FieldPriority]) {
		severity := jiraSeverity(fields)
		update["impact"] = severity.Impact()
		update["urgency"] = severity.Urgency()
	}
	if v := fields[domain.FieldSummary]; !validation.IsEmpty(v) {
		update["shortDescription"] = v
	}
	if v := fields[domain.FieldDescription]; !validation.IsEmpty(v) {
		update["description"] = v
	}
	if v := fields[domain.FieldComment]; !validation.IsEmpty(v) {
		update["workNotes"] = v
	}
	return update
}

// RequestFromSnow builds the JSD create-request payload for a validated
// ServiceNow body.
func RequestFromSnow(body map[string]any, ids JiraFieldIDs) map[string]any {
	number, _ := validation.Scalar(body[domain.FieldSnowIncidentNumber])
	summary, _ := body[domain.FieldSummary].(string)
	description, _ := body[domain.FieldDescription].(string)
	reporter, _ := body[domain.FieldReportedBy].(string)
	priority, _ := validation.Integer(body[domain.FieldPriority])

	return map[string]any{
		"serviceDeskId": ids.ServiceDeskID,
		"requestTypeId": ids.RequestTypeID,
		"requestFieldValues": map[string]any{
			ids.CustomerRef:    number,
			ids.ActualResult:   NotApplicable,
			ids.ExpectedResult: NotApplicable,
			ids.Environment:    map[string]any{"value": ProductionEnvValue},
			"priority":         map[string]any{"name": domain.Severity(priority).Name()},
			"summary":          summary,
			"description":      fmt.Sprintf("%s\n\nReported by: %s", description, reporter),
		},
	}
}

// RequestUpdateFromSnow keeps only present keys, translating priority to its
// Jira display form and the incident number to the customer-ref field.
func RequestUpdateFromSnow(body map[string]any, customerRefField string) map[string]any {
	update := map[string]any{}
	for key, value := range body {
		switch key {
		case domain.FieldSnowIncidentNumber:
			number, _ := validation.Scalar(value)
			update[customerRefField] = number
		case domain.FieldPriority:
			n, _ := validation.Integer(value)
			update[domain.FieldPriority] = map[string]any{"name": domain.Severity(n).Name()}
		default:
			update[key] = value
		}
	}
	return update
}

func jiraSeverity(fields map[string]any) domain.Severity {
	priority, _ := fields[domain.FieldPriority].(map[string]any)
	name, _ := priority["name"].(string)
	severity, err := domain.ParseSeverityName(name)
	if err != nil {
		return domain.MinSeverity
	}
	return severity
}
