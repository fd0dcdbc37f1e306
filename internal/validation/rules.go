package validation

import (
	"fmt"
	"unicode"

	"github.com/spec-kit/snowsync/internal/domain"
)

// JiraRules validates the "fields" object of a Jira webhook body. Keys it
// does not know are ignored.
var JiraRules = RuleSet{
	Container: "fields",
	Rules: []Rule{
		{Field: domain.FieldPriority, Check: jiraPriority},
		{Field: domain.FieldSummary, Check: NonEmpty(domain.FieldSummary)},
		{Field: domain.FieldDescription, Check: NonEmpty(domain.FieldDescription)},
		{Field: domain.FieldComment, UpdateOnly: true, Check: NonEmpty(domain.FieldComment)},
	},
}

// SnowRules validates the flat ServiceNow body and rejects unknown keys.
var SnowRules = RuleSet{
	RejectUnknown: true,
	Rules: []Rule{
		{Field: domain.FieldSnowIncidentNumber, Check: snowIncidentNumber},
		{Field: domain.FieldReportedBy, Check: NonEmpty(domain.FieldReportedBy)},
		{Field: domain.FieldPriority, Check: snowPriority},
		{Field: domain.FieldSummary, Check: NonEmpty(domain.FieldSummary)},
		{Field: domain.FieldDescription, Check: NonEmpty(domain.FieldDescription)},
		{Field: domain.FieldStatus, UpdateOnly: true, Check: NonEmpty(domain.FieldStatus)},
		{Field: domain.FieldComment, UpdateOnly: true, Check: NonEmpty(domain.FieldComment)},
	},
}

func jiraPriority(value any) string {
	if IsEmpty(value) {
		return "`priority` is empty"
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return "`priority` is not a dictionary"
	}
	name, _ := obj["name"].(string)
	if _, err := domain.ParseSeverityName(name); err != nil {
		return fmt.Sprintf("`priority` is not valid: %s", render(obj["name"]))
	}
	return ""
}

func snowIncidentNumber(value any) string {
	if IsEmpty(value) {
		return "`snow_incident_number` is empty"
	}
	text, ok := Scalar(value)
	if !ok || !isAlnum(text) {
		return fmt.Sprintf("Invalid `snow_incident_number`: %s", render(value))
	}
	return ""
}

func snowPriority(value any) string {
	if IsEmpty(value) {
		return "`priority` is empty"
	}
	n, ok := Integer(value)
	if !ok {
		return "`priority` is not numeric value"
	}
	if _, err := domain.NewSeverity(n); err != nil {
		return fmt.Sprintf("`priority` is not valid: %d", n)
	}
	return ""
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
