package service

import (
	"context"
	"fmt"

	"github.com/spec-kit/snowsync/internal/config"
	"github.com/spec-kit/snowsync/internal/mapping"
	"github.com/spec-kit/snowsync/internal/paramstore"
)

// FieldIDResolver looks up instance-specific Jira identifiers. Nothing is
// cached: every call reads the store.
type FieldIDResolver struct {
	store  paramstore.Store
	params config.Parameters
}

// NewFieldIDResolver builds a resolver over store.
func NewFieldIDResolver(store paramstore.Store, params config.Parameters) *FieldIDResolver {
	return &FieldIDResolver{store: store, params: params}
}

// CustomerRefField returns the id of the customer reference custom field.
func (r *FieldIDResolver) CustomerRefField(ctx context.Context) (string, error) {
	name := r.params.JiraCustomerRefField()
	values, err := paramstore.Resolve(ctx, r.store, name)
	if err != nil {
		return "", err
	}
	return values.Get(name), nil
}

// RequestFieldIDs returns every identifier needed to open a JSD request.
func (r *FieldIDResolver) RequestFieldIDs(ctx context.Context) (mapping.JiraFieldIDs, error) {
	p := r.params
	values, err := paramstore.Resolve(ctx, r.store,
		p.JiraCustomerRefField(),
		p.JiraActualResult(),
		p.JiraExpectedResult(),
		p.JiraEnvironment(),
		p.JiraServiceDeskID(),
		p.JiraRequestTypeID(),
	)
	if err != nil {
		return mapping.JiraFieldIDs{}, err
	}

	serviceDeskID, err := values.Int(p.JiraServiceDeskID())
	if err != nil {
		return mapping.JiraFieldIDs{}, fmt.Errorf("service desk id: %w", err)
	}
	requestTypeID, err := values.Int(p.JiraRequestTypeID())
	if err != nil {
		return mapping.JiraFieldIDs{}, fmt.Errorf("request type id: %w", err)
	}

	return mapping.JiraFieldIDs{
		CustomerRef:    values.Get(p.JiraCustomerRefField()),
		ActualResult:   values.Get(p.JiraActualResult()),
		ExpectedResult: values.Get(p.JiraExpectedResult()),
		Environment:    values.Get(p.JiraEnvironment()),
		ServiceDeskID:  serviceDeskID,
		RequestTypeID:  requestTypeID,
	}, nil
}
