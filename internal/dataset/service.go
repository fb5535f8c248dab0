package dataset

import (
	"strings"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/schema"

	"go.uber.org/zap"
)

// Service is the dataset lifecycle engine: tenant-scope resolution,
// enablement gating, draft management, optimistic row replacement and
// publishing. Every operation returns either a success value or one
// typed *errorx.Error.
type Service struct {
	store     database.Store
	logger    *zap.Logger
	publishMu *keyedMutex
}

// NewService creates a new dataset service
func NewService(store database.Store, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		logger:    logger.Named("dataset"),
		publishMu: newKeyedMutex(),
	}
}

// normalizeCode canonicalizes state/product/template codes
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// internal logs the underlying cause and returns an opaque internal error
// so storage failures never leak past the service boundary.
func (s *Service) internal(op string, err error) *errorx.Error {
	s.logger.Error("internal failure", zap.String("op", op), zap.Error(err))
	return errorx.Internal("internal server error")
}

// resolveTemplateSchema parses a template's stored schema document.
// A malformed stored schema is a data integrity fault, not a client error.
func (s *Service) resolveTemplateSchema(template *database.Template) (*schema.Definition, *errorx.Error) {
	def, err := schema.ParseDefinition([]byte(template.Schema))
	if err != nil {
		s.logger.Error("stored template schema is invalid",
			zap.String("templateId", template.ID),
			zap.String("templateCode", template.Code),
			zap.Error(err))
		return nil, errorx.Internal("Dataset template schema is invalid")
	}
	return def, nil
}

// validationFailed wraps a non-empty row error list
func validationFailed(errs []schema.RowError) *errorx.Error {
	return errorx.ValidationFailed("Row validation failed").WithDetail("errors", errs)
}
