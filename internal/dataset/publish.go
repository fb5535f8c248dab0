package dataset

import (
	"context"
	"errors"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/schema"

	"go.uber.org/zap"
)

var errTemplateNotLoaded = errors.New("dataset template association not loaded")

// Publish freezes the live draft's current rows into a new immutable
// published dataset numbered max(publishedVersion)+1 for the (state,
// product) pair. The draft itself is left untouched and can be edited
// and republished afterwards.
//
// Version assignment is serialized per (state, product) with an
// in-process keyed lock so two concurrent publishes cannot both read the
// same maximum.
func (s *Service) Publish(ctx context.Context, caller *auth.Context, selector DraftSelector) (*PublishResult, *errorx.Error) {
	draft, derr := s.GetDraft(ctx, caller, selector)
	if derr != nil {
		return nil, derr
	}

	if draft.Template == nil {
		return nil, s.internal("Publish", errTemplateNotLoaded)
	}
	def, derr := s.resolveTemplateSchema(draft.Template)
	if derr != nil {
		return nil, derr
	}

	// validate every draft row in full, even ones unchanged since the
	// last replace; template or row state might have drifted
	rows := make([]schema.Row, 0, len(draft.Rows))
	for _, row := range draft.Rows {
		rows = append(rows, schema.Row{RowIndex: row.RowIndex, Data: row.Data})
	}
	if errs := schema.ValidateRows(rows, def); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lockKey := draft.StateID + "/" + draft.ProductID
	s.publishMu.Lock(lockKey)
	defer s.publishMu.Unlock(lockKey)

	max, err := s.store.MaxPublishedVersion(ctx, draft.StateID, draft.ProductID)
	if err != nil {
		return nil, s.internal("Publish", err)
	}
	next := max + 1

	snapshotRows := make([]database.DatasetRow, 0, len(draft.Rows))
	for _, row := range draft.Rows {
		snapshotRows = append(snapshotRows, database.DatasetRow{
			RowIndex: row.RowIndex,
			Data:     row.Data,
		})
	}

	published, err := s.store.CreateSnapshot(ctx, &database.Dataset{
		Name:             draft.Name,
		StateID:          draft.StateID,
		ProductID:        draft.ProductID,
		TemplateID:       draft.TemplateID,
		CreatedByUserID:  caller.UserID,
		Lifecycle:        database.LifecyclePublished,
		PublishedVersion: &next,
		Version:          1,
		Metadata:         draft.Metadata,
	}, snapshotRows)
	if err != nil {
		return nil, s.internal("Publish", err)
	}

	s.logger.Info("published dataset",
		zap.String("datasetId", published.ID),
		zap.String("draftId", draft.ID),
		zap.Int("publishedVersion", next),
		zap.Int("rows", len(snapshotRows)))

	return &PublishResult{Dataset: published, RowsCount: len(snapshotRows)}, nil
}
