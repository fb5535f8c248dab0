package database

import (
	"context"

	"github.com/google/uuid"
)

// CreateState creates a new state
func (s *DBStore) CreateState(ctx context.Context, state *State) error {
	if state.ID == "" {
		state.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(state).Error
}

// GetStateByCode retrieves a state by its unique code
func (s *DBStore) GetStateByCode(ctx context.Context, code string) (*State, error) {
	var state State
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// GetProductByCode retrieves a product by its unique code
func (s *DBStore) GetProductByCode(ctx context.Context, code string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpsertProduct creates a product or updates its name, reactivating it
func (s *DBStore) UpsertProduct(ctx context.Context, code, name string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&product).Error
	switch {
	case err == nil:
		product.Name = name
		product.IsActive = true
		if err := s.db.WithContext(ctx).Save(&product).Error; err != nil {
			return nil, err
		}
		return &product, nil
	case IsNotFound(err):
		product = Product{
			ID:       uuid.New().String(),
			Code:     code,
			Name:     name,
			IsActive: true,
		}
		if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
			return nil, err
		}
		return &product, nil
	default:
		return nil, err
	}
}

// UpsertStateProduct creates or updates the enablement row for a (state, product) pair
func (s *DBStore) UpsertStateProduct(ctx context.Context, stateID, productID string, enabled bool) (*StateProduct, error) {
	var sp StateProduct
	err := s.db.WithContext(ctx).
		Where("state_id = ? AND product_id = ?", stateID, productID).
		First(&sp).Error
	switch {
	case err == nil:
		sp.Enabled = enabled
		if err := s.db.WithContext(ctx).Save(&sp).Error; err != nil {
			return nil, err
		}
	case IsNotFound(err):
		sp = StateProduct{
			ID:        uuid.New().String(),
			StateID:   stateID,
			ProductID: productID,
			Enabled:   enabled,
		}
		if err := s.db.WithContext(ctx).Create(&sp).Error; err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Preload("State").
		Preload("Product").
		First(&sp, "id = ?", sp.ID).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// FindEnabledStateProduct returns the enablement row for (state, product)
// only when both the relation is enabled and the product is globally active.
func (s *DBStore) FindEnabledStateProduct(ctx context.Context, stateID, productID string) (*StateProduct, error) {
	var sp StateProduct
	err := s.db.WithContext(ctx).
		Joins("JOIN products ON products.id = state_products.product_id").
		Where("state_products.state_id = ? AND state_products.product_id = ? AND state_products.enabled = ? AND products.is_active = ?",
			stateID, productID, true, true).
		First(&sp).Error
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

// ListEnabledProducts lists active products enabled for a state, by code order
func (s *DBStore) ListEnabledProducts(ctx context.Context, stateID string) ([]*Product, error) {
	var products []*Product
	err := s.db.WithContext(ctx).
		Joins("JOIN state_products ON state_products.product_id = products.id").
		Where("state_products.state_id = ? AND state_products.enabled = ? AND products.is_active = ?",
			stateID, true, true).
		Order("products.code asc").
		Find(&products).Error
	return products, err
}

// CreateTemplate creates a template for a product
func (s *DBStore) CreateTemplate(ctx context.Context, template *Template) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(template).Error
}

// FindActiveTemplate retrieves the active template with the given code
func (s *DBStore) FindActiveTemplate(ctx context.Context, productID, code string) (*Template, error) {
	var template Template
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND code = ? AND is_active = ?", productID, code, true).
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// FirstActiveTemplate retrieves the first active template by code order
func (s *DBStore) FirstActiveTemplate(ctx context.Context, productID string) (*Template, error) {
	var template Template
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("code asc").
		First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// CreateUser creates a new user
func (s *DBStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(user).Error
}

// GetUserByUsername retrieves a user by username
func (s *DBStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertStateUser creates a user or rebinds an existing one by username
func (s *DBStore) UpsertStateUser(ctx context.Context, user *User) (*User, error) {
	var existing User
	err := s.db.WithContext(ctx).Where("username = ?", user.Username).First(&existing).Error
	switch {
	case err == nil:
		existing.Email = user.Email
		existing.Role = user.Role
		existing.StateID = user.StateID
		if user.Password != "" {
			existing.Password = user.Password
		}
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case IsNotFound(err):
		if user.ID == "" {
			user.ID = uuid.New().String()
		}
		if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, err
		}
		return user, nil
	default:
		return nil, err
	}
}
