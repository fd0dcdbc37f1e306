// Package validation checks inbound ticket payloads against ordered rule sets.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// Mode selects which rules apply to a body.
type Mode int

const (
	// All requires every create rule, present or not. Update-only rules are
	// skipped.
	All Mode = iota
	// Present validates only the keys that appear in the body, update-only
	// rules included.
	Present
)

// Check inspects one value and returns the user-facing failure message, or
// an empty string.
type Check func(value any) string

// Rule binds a field to its check.
type Rule struct {
	Field      string
	UpdateOnly bool
	Check      Check
}

// RuleSet is an ordered list of rules. Rules run in declaration order and the
// first failure wins.
type RuleSet struct {
	Rules []Rule
	// Container names a nested object holding the fields ("fields" for Jira).
	// Empty means the body itself is flat.
	Container string
	// RejectUnknown fails any key that has no rule.
	RejectUnknown bool
}

// Validate returns nil or a VALIDATION_FAILED DomainError naming the field.
func (rs RuleSet) Validate(body map[string]any, mode Mode) error {
	if len(body) == 0 {
		return errorutil.NewValidationError(fmt.Sprintf("`body` is absent or empty: %s", render(body)))
	}

	fields := body
	if rs.Container != "" {
		nested, _ := body[rs.Container].(map[string]any)
		if len(nested) == 0 {
			return errorutil.NewValidationError(fmt.Sprintf("`%s` is absent or empty: %s", rs.Container, render(body[rs.Container])))
		}
		fields = nested
	}

	if rs.RejectUnknown {
		if key := rs.firstUnknown(fields); key != "" {
			return errorutil.NewValidationError(fmt.Sprintf("`%s` is not a recognised field", key))
		}
	}

	for _, rule := range rs.Rules {
		value, present := fields[rule.Field]
		switch mode {
		case All:
			if rule.UpdateOnly {
				continue
			}
		case Present:
			if !present {
				continue
			}
		}
		if msg := rule.Check(value); msg != "" {
			return errorutil.NewValidationError(msg)
		}
	}
	return nil
}

func (rs RuleSet) firstUnknown(fields map[string]any) string {
	known := make(map[string]struct{}, len(rs.Rules))
	for _, rule := range rs.Rules {
		known[rule.Field] = struct{}{}
	}
	var unknown []string
	for key := range fields {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return ""
	}
	first := unknown[0]
	for _, key := range unknown[1:] {
		if key < first {
			first = key
		}
	}
	return first
}

// IsEmpty treats null, blank strings, zero numbers, false and empty
// collections as absent.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case float64:
		return v == 0
	case int:
		return v == 0
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

// NonEmpty fails with "`field` is empty".
func NonEmpty(field string) Check {
	return func(value any) string {
		if IsEmpty(value) {
			return fmt.Sprintf("`%s` is empty", field)
		}
		return ""
	}
}

// Scalar renders a JSON string or number as text.
func Scalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

// Integer parses a JSON number or numeric string. Numbers with an integral
// value such as 3.0 are accepted; strings must be plain integers.
func Integer(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return integral(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return integral(f)
	}
	text, ok := Scalar(value)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func integral(f float64) (int, bool) {
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int(f), true
}

func render(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}
