package database

import (
	"context"
)

// DatasetFilter narrows dataset listings.
type DatasetFilter struct {
	StateID    *string
	ProductID  *string
	TemplateCode *string
	// EnabledForStateID restricts results to products enabled for the state
	EnabledForStateID *string
}

// Store defines the persistence operations the service layer is written
// against. All mutating multi-step operations are atomic.
type Store interface {
	// Close closes the underlying database connection.
	Close() error

	// States
	CreateState(ctx context.Context, state *State) error
	GetStateByCode(ctx context.Context, code string) (*State, error)

	// Products
	GetProductByCode(ctx context.Context, code string) (*Product, error)
	UpsertProduct(ctx context.Context, code, name string) (*Product, error)

	// State/product enablement
	UpsertStateProduct(ctx context.Context, stateID, productID string, enabled bool) (*StateProduct, error)
	FindEnabledStateProduct(ctx context.Context, stateID, productID string) (*StateProduct, error)
	ListEnabledProducts(ctx context.Context, stateID string) ([]*Product, error)

	// Templates
	CreateTemplate(ctx context.Context, template *Template) error
	FindActiveTemplate(ctx context.Context, productID, code string) (*Template, error)
	FirstActiveTemplate(ctx context.Context, productID string) (*Template, error)

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpsertStateUser(ctx context.Context, user *User) (*User, error)

	// Datasets
	CreateDataset(ctx context.Context, dataset *Dataset) error
	GetDatasetByID(ctx context.Context, id string, stateID *string) (*Dataset, error)
	ListDatasets(ctx context.Context, filter DatasetFilter) ([]*Dataset, error)
	FindActiveDraft(ctx context.Context, stateID, productID string) (*Dataset, error)
	ReplaceDatasetRows(ctx context.Context, datasetID string, rows []DatasetRow) (*Dataset, error)
	MaxPublishedVersion(ctx context.Context, stateID, productID string) (int, error)
	CreateSnapshot(ctx context.Context, dataset *Dataset, rows []DatasetRow) (*Dataset, error)
}
