package platform

import (
	"context"
	"strings"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/common/errorx"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Service covers platform administration: states, products, per-state
// product enablement and state user accounts.
type Service struct {
	store  database.Store
	logger *zap.Logger
}

// NewService creates a new platform service
func NewService(store database.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.Named("platform"),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) internal(op string, err error) *errorx.Error {
	s.logger.Error("internal failure", zap.String("op", op), zap.Error(err))
	return errorx.Internal("internal server error")
}

// CreateStateInput names a new tenant scope.
type CreateStateInput struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateState registers a new state. State codes are unique; creating an
// existing one is a conflict.
func (s *Service) CreateState(ctx context.Context, input CreateStateInput) (*database.State, *errorx.Error) {
	code := normalizeCode(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, errorx.InvalidRequest("state code and name are required")
	}

	state := &database.State{Code: code, Name: name}
	if err := s.store.CreateState(ctx, state); err != nil {
		if database.IsDuplicateKey(err) {
			return nil, errorx.Conflict("State already exists").WithDetail("stateCode", code)
		}
		return nil, s.internal("CreateState", err)
	}
	return state, nil
}

// CreateProductInput names a product to create or reactivate.
type CreateProductInput struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateProduct creates a product or updates an existing one's name,
// reactivating it.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*database.Product, *errorx.Error) {
	code := normalizeCode(input.Code)
	name := strings.TrimSpace(input.Name)
	if code == "" || name == "" {
		return nil, errorx.InvalidRequest("product code and name are required")
	}

	product, err := s.store.UpsertProduct(ctx, code, name)
	if err != nil {
		return nil, s.internal("CreateProduct", err)
	}
	return product, nil
}

// SetEnablementInput switches a product on or off for a state.
type SetEnablementInput struct {
	StateCode   string `json:"stateCode"`
	ProductCode string `json:"productCode"`
	ProductName string `json:"productName,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// SetStateProductEnablement upserts the (state, product) enablement row,
// creating the product on demand. The state must already exist.
func (s *Service) SetStateProductEnablement(ctx context.Context, input SetEnablementInput) (*database.StateProduct, *errorx.Error) {
	stateCode := normalizeCode(input.StateCode)
	productCode := normalizeCode(input.ProductCode)

	state, err := s.store.GetStateByCode(ctx, stateCode)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("State not found").WithDetail("stateCode", stateCode)
		}
		return nil, s.internal("SetStateProductEnablement", err)
	}

	productName := strings.TrimSpace(input.ProductName)
	if productName == "" {
		productName = productCode
	}
	product, err := s.store.UpsertProduct(ctx, productCode, productName)
	if err != nil {
		return nil, s.internal("SetStateProductEnablement", err)
	}

	sp, err := s.store.UpsertStateProduct(ctx, state.ID, product.ID, input.Enabled)
	if err != nil {
		return nil, s.internal("SetStateProductEnablement", err)
	}
	return sp, nil
}

// CreateStateUserInput binds a user account to a state.
type CreateStateUserInput struct {
	Username  string `json:"username"`
	Password  string `json:"password,omitempty"`
	Email     string `json:"email,omitempty"`
	StateCode string `json:"stateCode"`
}

// CreateStateUser creates or rebinds a state-bound user account.
func (s *Service) CreateStateUser(ctx context.Context, input CreateStateUserInput) (*database.User, *errorx.Error) {
	stateCode := normalizeCode(input.StateCode)
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, errorx.InvalidRequest("username is required")
	}

	state, err := s.store.GetStateByCode(ctx, stateCode)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, errorx.NotFound("State not found").WithDetail("stateCode", stateCode)
		}
		return nil, s.internal("CreateStateUser", err)
	}

	var hashed string
	if input.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, s.internal("CreateStateUser", err)
		}
		hashed = string(h)
	}

	user, err := s.store.UpsertStateUser(ctx, &database.User{
		Username: username,
		Password: hashed,
		Email:    strings.TrimSpace(input.Email),
		Role:     database.RoleStateUser,
		StateID:  &state.ID,
		IsActive: true,
	})
	if err != nil {
		return nil, s.internal("CreateStateUser", err)
	}
	return user, nil
}

// ListEnabledProducts lists the active products enabled for a state.
func (s *Service) ListEnabledProducts(ctx context.Context, stateID string) ([]*database.Product, *errorx.Error) {
	products, err := s.store.ListEnabledProducts(ctx, stateID)
	if err != nil {
		return nil, s.internal("ListEnabledProducts", err)
	}
	return products, nil
}
