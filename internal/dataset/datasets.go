package dataset

import (
	"context"
	"strings"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/common/errorx"
)

// CreateDataset creates an ad-hoc dataset under an explicitly named
// template. The dataset starts empty at version 1 and is not the live
// draft of its scope.
func (s *Service) CreateDataset(ctx context.Context, caller *auth.Context, input CreateDatasetInput) (*database.Dataset, *errorx.Error) {
	product, derr := s.resolveProductByCode(ctx, input.ProductCode)
	if derr != nil {
		return nil, derr
	}

	templateCode := normalizeCode(input.TemplateCode)
	template, err := s.store.FindActiveTemplate(ctx, product.ID, templateCode)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("Template not found").
				WithDetail("productCode", product.Code).
				WithDetail("templateCode", templateCode)
		}
		return nil, s.internal("CreateDataset", err)
	}

	var stateID string
	if caller.IsAdmin() {
		code := normalizeCode(input.StateCode)
		if code == "" {
			return nil, errorx.InvalidRequest("stateCode is required for admin dataset creation")
		}
		state, err := s.store.GetStateByCode(ctx, code)
		if err != nil {
			if database.IsNotFound(err) {
				return nil, errorx.NotFound("State not found").WithDetail("stateCode", code)
			}
			return nil, s.internal("CreateDataset", err)
		}
		stateID = state.ID
	} else {
		if caller.StateID == nil {
			return nil, errorx.Forbidden("State users can only access their own state data")
		}
		stateID = *caller.StateID
	}

	if derr := s.assertProductEnabled(ctx, stateID, product.ID); derr != nil {
		return nil, derr
	}

	ds := &database.Dataset{
		Name:            strings.TrimSpace(input.Name),
		StateID:         stateID,
		ProductID:       product.ID,
		TemplateID:      template.ID,
		CreatedByUserID: caller.UserID,
		Lifecycle:       database.LifecycleDraft,
		Version:         1,
		Metadata:        input.Metadata,
	}
	if err := s.store.CreateDataset(ctx, ds); err != nil {
		return nil, s.internal("CreateDataset", err)
	}

	created, err := s.store.GetDatasetByID(ctx, ds.ID, nil)
	if err != nil {
		return nil, s.internal("CreateDataset", err)
	}
	return created, nil
}

// GetDataset fetches a dataset with its rows. State-bound callers only
// see their own state's datasets; absence and out-of-scope are
// indistinguishable.
func (s *Service) GetDataset(ctx context.Context, caller *auth.Context, datasetID string) (*database.Dataset, *errorx.Error) {
	scope, derr := s.callerStateID(caller)
	if derr != nil {
		return nil, derr
	}

	ds, err := s.store.GetDatasetByID(ctx, datasetID, scope)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("Dataset not found")
		}
		return nil, s.internal("GetDataset", err)
	}

	if derr := s.assertProductEnabled(ctx, ds.StateID, ds.ProductID); derr != nil {
		return nil, derr
	}
	return ds, nil
}

// ListDatasets lists datasets visible to the caller, newest first.
func (s *Service) ListDatasets(ctx context.Context, caller *auth.Context, filter ListFilter) ([]*database.Dataset, *errorx.Error) {
	var dbFilter database.DatasetFilter

	if !caller.IsAdmin() {
		if caller.StateID == nil {
			return nil, errorx.Forbidden("State users can only access their own state data")
		}
		dbFilter.StateID = caller.StateID
		dbFilter.EnabledForStateID = caller.StateID
	} else if filter.StateCode != "" {
		state, err := s.store.GetStateByCode(ctx, normalizeCode(filter.StateCode))
		if err != nil {
			if database.IsNotFound(err) {
				return nil, errorx.NotFound("State not found").WithDetail("stateCode", filter.StateCode)
			}
			return nil, s.internal("ListDatasets", err)
		}
		dbFilter.StateID = &state.ID
	}

	if filter.ProductCode != "" {
		product, err := s.store.GetProductByCode(ctx, normalizeCode(filter.ProductCode))
		if err != nil {
			if database.IsNotFound(err) {
				// an unknown product filter yields an empty list, not an error
				return []*database.Dataset{}, nil
			}
			return nil, s.internal("ListDatasets", err)
		}
		if !caller.IsAdmin() {
			if derr := s.assertProductEnabled(ctx, *caller.StateID, product.ID); derr != nil {
				return nil, derr
			}
		}
		dbFilter.ProductID = &product.ID
	}

	if filter.TemplateCode != "" {
		code := normalizeCode(filter.TemplateCode)
		dbFilter.TemplateCode = &code
	}

	datasets, err := s.store.ListDatasets(ctx, dbFilter)
	if err != nil {
		return nil, s.internal("ListDatasets", err)
	}
	return datasets, nil
}
