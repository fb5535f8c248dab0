package dataset

import (
	"context"
	"strings"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/common/errorx"

	"go.uber.org/zap"
)

// GetOrCreateDraft returns the live draft for the caller's (state,
// product) scope, creating it when none exists. Two simultaneous
// first-time calls converge on one draft: the loser of the create race
// re-reads the winner's record, and exactly one caller observes
// Created=true.
func (s *Service) GetOrCreateDraft(ctx context.Context, caller *auth.Context, input CreateDraftInput) (*DraftResult, *errorx.Error) {
	stateID, product, derr := s.resolveDraftScope(ctx, caller, input.StateCode, input.ProductCode)
	if derr != nil {
		return nil, derr
	}

	existing, err := s.store.FindActiveDraft(ctx, stateID, product.ID)
	if err == nil {
		return &DraftResult{Dataset: existing, Created: false}, nil
	}
	if !database.IsNotFound(err) {
		return nil, s.internal("GetOrCreateDraft", err)
	}

	template, derr := s.resolveTemplate(ctx, product.ID, input.TemplateCode)
	if derr != nil {
		return nil, derr
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = product.Code + " Draft"
	}

	active := true
	draft := &database.Dataset{
		Name:            name,
		StateID:         stateID,
		ProductID:       product.ID,
		TemplateID:      template.ID,
		CreatedByUserID: caller.UserID,
		Lifecycle:       database.LifecycleDraft,
		ActiveDraft:     &active,
		Version:         1,
	}

	if err := s.store.CreateDataset(ctx, draft); err != nil {
		if !database.IsDuplicateKey(err) {
			return nil, s.internal("GetOrCreateDraft", err)
		}
		// a concurrent caller won the race under the draft singleton
		// constraint; one re-read is guaranteed to find the winner
		concurrent, err := s.store.FindActiveDraft(ctx, stateID, product.ID)
		if err != nil {
			s.logger.Error("draft creation collided but no active draft found",
				zap.String("stateId", stateID),
				zap.String("productId", product.ID))
			return nil, errorx.Internal("Failed to create draft dataset")
		}
		return &DraftResult{Dataset: concurrent, Created: false}, nil
	}

	created, err := s.store.GetDatasetByID(ctx, draft.ID, nil)
	if err != nil {
		return nil, s.internal("GetOrCreateDraft", err)
	}
	return &DraftResult{Dataset: created, Created: true}, nil
}

// GetDraft returns the live draft for the caller's (state, product)
// scope, or NotFound when none exists.
func (s *Service) GetDraft(ctx context.Context, caller *auth.Context, selector DraftSelector) (*database.Dataset, *errorx.Error) {
	stateID, product, derr := s.resolveDraftScope(ctx, caller, selector.StateCode, selector.ProductCode)
	if derr != nil {
		return nil, derr
	}

	draft, err := s.store.FindActiveDraft(ctx, stateID, product.ID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("Draft dataset not found").
				WithDetail("productCode", product.Code)
		}
		return nil, s.internal("GetDraft", err)
	}
	return draft, nil
}

// resolveDraftScope runs the shared preamble of every draft operation:
// state scope, product lookup, enablement gate.
func (s *Service) resolveDraftScope(ctx context.Context, caller *auth.Context, stateCode, productCode string) (string, *database.Product, *errorx.Error) {
	stateID, derr := s.resolveStateScope(ctx, caller, stateCode)
	if derr != nil {
		return "", nil, derr
	}
	product, derr := s.resolveProductByCode(ctx, productCode)
	if derr != nil {
		return "", nil, derr
	}
	if derr := s.assertProductEnabled(ctx, stateID, product.ID); derr != nil {
		return "", nil, derr
	}
	return stateID, product, nil
}
