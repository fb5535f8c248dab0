package dataset

import (
	"context"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/schema"
)

// ReplaceRows atomically swaps a dataset's full row set, guarded by the
// caller's version token. Replacement is total: rows missing from the
// submitted set are removed. A rejected replacement changes nothing.
func (s *Service) ReplaceRows(ctx context.Context, caller *auth.Context, datasetID string, input ReplaceRowsInput) (*database.Dataset, *errorx.Error) {
	scope, derr := s.callerStateID(caller)
	if derr != nil {
		return nil, derr
	}

	ds, err := s.store.GetDatasetByID(ctx, datasetID, scope)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("Dataset not found")
		}
		return nil, s.internal("ReplaceRows", err)
	}

	if derr := s.assertProductEnabled(ctx, ds.StateID, ds.ProductID); derr != nil {
		return nil, derr
	}

	if ds.Version != input.Version {
		return nil, errorx.Conflict("Dataset version mismatch").
			WithDetail("expectedVersion", input.Version).
			WithDetail("actualVersion", ds.Version)
	}

	if ds.Template == nil {
		return nil, s.internal("ReplaceRows", errTemplateNotLoaded)
	}
	def, derr := s.resolveTemplateSchema(ds.Template)
	if derr != nil {
		return nil, derr
	}

	if errs := schema.ValidateRows(input.Rows, def); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	rows := make([]database.DatasetRow, 0, len(input.Rows))
	for _, row := range input.Rows {
		rows = append(rows, database.DatasetRow{
			RowIndex: row.RowIndex,
			Data:     row.Data,
		})
	}

	updated, err := s.store.ReplaceDatasetRows(ctx, ds.ID, rows)
	if err != nil {
		return nil, s.internal("ReplaceRows", err)
	}
	return updated, nil
}

// ReplaceDraftRows resolves the caller's live draft and replaces its rows.
func (s *Service) ReplaceDraftRows(ctx context.Context, caller *auth.Context, input ReplaceDraftRowsInput) (*database.Dataset, *errorx.Error) {
	draft, derr := s.GetDraft(ctx, caller, DraftSelector{
		ProductCode: input.ProductCode,
		StateCode:   input.StateCode,
	})
	if derr != nil {
		return nil, derr
	}

	return s.ReplaceRows(ctx, caller, draft.ID, ReplaceRowsInput{
		Version: input.Version,
		Rows:    input.Rows,
	})
}
