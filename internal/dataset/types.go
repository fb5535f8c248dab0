package dataset

import (
	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/schema"
)

// CreateDatasetInput creates an ad-hoc dataset under an explicit template.
type CreateDatasetInput struct {
	Name         string         `json:"name"`
	ProductCode  string         `json:"productCode"`
	TemplateCode string         `json:"templateCode"`
	StateCode    string         `json:"stateCode,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// DraftSelector identifies the live draft of a (state, product) pair.
// StateCode is only meaningful for admin callers.
type DraftSelector struct {
	ProductCode string `json:"productCode"`
	StateCode   string `json:"stateCode,omitempty"`
}

// CreateDraftInput selects or creates the live draft.
type CreateDraftInput struct {
	ProductCode  string `json:"productCode"`
	StateCode    string `json:"stateCode,omitempty"`
	TemplateCode string `json:"templateCode,omitempty"`
	Name         string `json:"name,omitempty"`
}

// ReplaceRowsInput carries a full replacement row set guarded by the
// caller's version token.
type ReplaceRowsInput struct {
	Version int          `json:"version"`
	Rows    []schema.Row `json:"rows"`
}

// ReplaceDraftRowsInput replaces the live draft's rows.
type ReplaceDraftRowsInput struct {
	ProductCode string       `json:"productCode"`
	StateCode   string       `json:"stateCode,omitempty"`
	Version     int          `json:"version"`
	Rows        []schema.Row `json:"rows"`
}

// ListFilter narrows dataset listings.
type ListFilter struct {
	ProductCode  string
	TemplateCode string
	StateCode    string
}

// DraftResult reports the draft and whether this call created it.
type DraftResult struct {
	Dataset *database.Dataset `json:"dataset"`
	Created bool              `json:"created"`
}

// PublishResult is the frozen snapshot produced by a publish.
type PublishResult struct {
	Dataset   *database.Dataset `json:"dataset"`
	RowsCount int               `json:"rowsCount"`
}
