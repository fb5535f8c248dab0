package database

import (
	"time"
)

// UserRole represents the role of a user
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleStateUser UserRole = "state_user"
)

// Lifecycle is the dataset lifecycle stage.
type Lifecycle string

const (
	LifecycleDraft     Lifecycle = "DRAFT"
	LifecyclePublished Lifecycle = "PUBLISHED"
)

// State is a tenant scope; all datasets and enablement are partitioned by it
type State struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code      string    `json:"code" gorm:"type:varchar(16);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product is a capability area a state may be granted access to
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Code      string    `json:"code" gorm:"type:varchar(32);uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StateProduct is the per-state product enablement relation, unique per pair
type StateProduct struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	StateID   string    `json:"stateId" gorm:"type:varchar(36);uniqueIndex:uniq_state_product;not null"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);uniqueIndex:uniq_state_product;not null"`
	Enabled   bool      `json:"enabled" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	State   *State   `json:"state,omitempty" gorm:"foreignKey:StateID"`
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Template holds a product's column schema as a JSON document
type Template struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);uniqueIndex:uniq_product_template;not null"`
	Code      string    `json:"code" gorm:"type:varchar(64);uniqueIndex:uniq_product_template;not null"`
	Name      string    `json:"name" gorm:"type:varchar(120);not null"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	Schema    string    `json:"schema" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User is an authenticated account; state users carry their state binding
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Email     string    `json:"email,omitempty" gorm:"type:varchar(255)"`
	Role      UserRole  `json:"role" gorm:"type:varchar(16);not null;default:'state_user'"`
	StateID   *string   `json:"stateId,omitempty" gorm:"type:varchar(36)"`
	IsActive  bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Dataset is a versioned, state-and-product-scoped row container.
//
// ActiveDraft is non-NULL (true) only for the single live draft of a
// (state, product) pair; the composite unique index enforces the draft
// singleton because NULLs never collide on any supported dialect.
type Dataset struct {
	ID               string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name             string         `json:"name" gorm:"type:varchar(180);not null"`
	StateID          string         `json:"stateId" gorm:"type:varchar(36);uniqueIndex:uniq_active_draft;index:idx_dataset_scope;not null"`
	ProductID        string         `json:"productId" gorm:"type:varchar(36);uniqueIndex:uniq_active_draft;index:idx_dataset_scope;not null"`
	TemplateID       string         `json:"templateId" gorm:"type:varchar(36);not null"`
	CreatedByUserID  string         `json:"createdByUserId" gorm:"type:varchar(36)"`
	Lifecycle        Lifecycle      `json:"lifecycle" gorm:"type:varchar(16);not null;default:'DRAFT'"`
	ActiveDraft      *bool          `json:"-" gorm:"uniqueIndex:uniq_active_draft"`
	Version          int            `json:"version" gorm:"not null;default:1"`
	PublishedVersion *int           `json:"publishedVersion,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	Rows     []DatasetRow `json:"rows,omitempty" gorm:"foreignKey:DatasetID"`
	State    *State       `json:"state,omitempty" gorm:"foreignKey:StateID"`
	Product  *Product     `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Template *Template    `json:"template,omitempty" gorm:"foreignKey:TemplateID"`
}

// IsActiveDraft reports whether this dataset is the live draft of its scope.
func (d *Dataset) IsActiveDraft() bool {
	return d.ActiveDraft != nil && *d.ActiveDraft
}

// DatasetRow is one ordinal record of a dataset
type DatasetRow struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DatasetID string         `json:"datasetId" gorm:"type:varchar(36);index;not null"`
	RowIndex  int            `json:"rowIndex" gorm:"not null"`
	Data      map[string]any `json:"data" gorm:"serializer:json;type:text"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
