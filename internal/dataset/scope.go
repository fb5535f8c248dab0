package dataset

import (
	"context"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/common/errorx"
)

// resolveStateScope determines the single state id an operation may act
// on. State-bound callers always resolve to their own state; any explicit
// state code in the request is ignored for them. Admin callers must name
// a state explicitly.
func (s *Service) resolveStateScope(ctx context.Context, caller *auth.Context, stateCode string) (string, *errorx.Error) {
	if !caller.IsAdmin() {
		if caller.StateID == nil {
			return "", errorx.Forbidden("State users can only access their own state data")
		}
		return *caller.StateID, nil
	}

	code := normalizeCode(stateCode)
	if code == "" {
		return "", errorx.InvalidRequest("stateCode is required for admin requests")
	}
	state, err := s.store.GetStateByCode(ctx, code)
	if err != nil {
		if database.IsNotFound(err) {
			return "", errorx.NotFound("State not found").WithDetail("stateCode", code)
		}
		return "", s.internal("resolveStateScope", err)
	}
	return state.ID, nil
}

// callerStateID returns the visibility scope for dataset fetches: nil for
// admin (all states), the bound state otherwise.
func (s *Service) callerStateID(caller *auth.Context) (*string, *errorx.Error) {
	if caller.IsAdmin() {
		return nil, nil
	}
	if caller.StateID == nil {
		return nil, errorx.Forbidden("State users can only access their own state data")
	}
	return caller.StateID, nil
}

// assertProductEnabled is the product enablement gate: the product must
// exist, be globally active, and be explicitly enabled for the state.
// Any failure is Forbidden, a business rule rather than absence.
func (s *Service) assertProductEnabled(ctx context.Context, stateID, productID string) *errorx.Error {
	_, err := s.store.FindEnabledStateProduct(ctx, stateID, productID)
	if err != nil {
		if database.IsNotFound(err) {
			return errorx.Forbidden("Product is not enabled for this state").
				WithDetail("stateId", stateID).
				WithDetail("productId", productID)
		}
		return s.internal("assertProductEnabled", err)
	}
	return nil
}

// resolveProductByCode looks up a product by its canonical code
func (s *Service) resolveProductByCode(ctx context.Context, productCode string) (*database.Product, *errorx.Error) {
	code := normalizeCode(productCode)
	product, err := s.store.GetProductByCode(ctx, code)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("Product not found").WithDetail("productCode", code)
		}
		return nil, s.internal("resolveProductByCode", err)
	}
	return product, nil
}

// resolveTemplate resolves a product's template: the named one when a
// code is given, otherwise the first active template by code order.
func (s *Service) resolveTemplate(ctx context.Context, productID, templateCode string) (*database.Template, *errorx.Error) {
	var (
		template *database.Template
		err      error
	)
	if code := normalizeCode(templateCode); code != "" {
		template, err = s.store.FindActiveTemplate(ctx, productID, code)
	} else {
		template, err = s.store.FirstActiveTemplate(ctx, productID)
	}
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("Active template not found for product")
		}
		return nil, s.internal("resolveTemplate", err)
	}
	return template, nil
}
