package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Severity is the shared 1-5 priority scale. ServiceNow carries the bare
// integer, Jira the display name "Severity n".
type Severity int

const (
	MinSeverity Severity = 1
	MaxSeverity Severity = 5
)

const (
	ImpactMedium  = "3 - Medium"
	UrgencyMedium = "3 - Medium"
	UrgencyLow    = "4 - Low"
)

var severityNamePattern = regexp.MustCompile(`^Severity [1-5]$`)

// ParseSeverityName accepts exactly "Severity 1" to "Severity 5".
func ParseSeverityName(name string) (Severity, error) {
	if !severityNamePattern.MatchString(name) {
		return 0, fmt.Errorf("invalid severity name %q", name)
	}
	n, _ := strconv.Atoi(name[len(name)-1:])
	return Severity(n), nil
}

// NewSeverity range-checks a numeric severity.
func NewSeverity(n int) (Severity, error) {
	s := Severity(n)
	if !s.Valid() {
		return 0, fmt.Errorf("severity %d out of range", n)
	}
	return s, nil
}

func (s Severity) Valid() bool {
	return s >= MinSeverity && s <= MaxSeverity
}

// Name is the Jira display form.
func (s Severity) Name() string {
	return fmt.Sprintf("Severity %d", int(s))
}

// Impact is constant across severities.
func (s Severity) Impact() string {
	return ImpactMedium
}

// Urgency drops to low for the two least severe levels.
func (s Severity) Urgency() string {
	if s >= 4 {
		return UrgencyLow
	}
	return UrgencyMedium
}
