// Package paramstore reads and writes named configuration values and secrets.
// Production deployments use AWS SSM Parameter Store; Redis (with age-sealed
// secure values) and an in-memory map are available for other environments.
package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spec-kit/snowsync/pkg/errorutil"
)

// ErrNotFound is returned when a parameter does not exist.
var ErrNotFound = errors.New("parameter not found")

// Store is a named value provider. Secure values are encrypted at rest by
// the backend and returned decrypted.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Put(ctx context.Context, name, value string, secure bool) error
}

// MissingConfigError lists every parameter that could not be resolved.
type MissingConfigError struct {
	Names []string
}

func (e *MissingConfigError) Error() string {
	return "missing parameters: " + strings.Join(e.Names, ", ")
}

// Values is the result of a successful Resolve.
type Values map[string]string

// Get returns the resolved value or an empty string.
func (v Values) Get(name string) string {
	return v[name]
}

// Int parses a resolved value as an integer.
func (v Values) Int(name string) (int, error) {
	raw, ok := v[name]
	if !ok {
		return 0, fmt.Errorf("parameter %s not resolved", name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parameter %s is not an integer: %w", name, err)
	}
	return n, nil
}

// Resolve fetches every name. Missing or empty parameters are collected so the
// caller sees the full list at once; the returned error is a CONFIGURATION_MISSING
// DomainError wrapping a *MissingConfigError. Any other backend failure aborts
// immediately.
func Resolve(ctx context.Context, store Store, names ...string) (Values, error) {
	values := make(Values, len(names))
	var missing []string
	for _, name := range names {
		value, err := store.Get(ctx, name)
		if errors.Is(err, ErrNotFound) || (err == nil && strings.TrimSpace(value) == "") {
			missing = append(missing, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", name, err)
		}
		values[name] = value
	}
	if len(missing) > 0 {
		return nil, errorutil.NewConfigurationMissing(missing, &MissingConfigError{Names: missing})
	}
	return values, nil
}

// Optional returns the value of name, or fallback when it does not exist.
func Optional(ctx context.Context, store Store, name, fallback string) (string, error) {
	value, err := store.Get(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return value, nil
}
