package platform

import (
	"context"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/common/config"
	"github.com/cg-dump/datasrv/internal/schema"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// BootstrapSuperAdmin ensures the configured super admin account exists.
// An existing account is left untouched.
func (s *Service) BootstrapSuperAdmin(ctx context.Context, cfg config.SuperAdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}

	_, err := s.store.GetUserByUsername(ctx, cfg.Username)
	if err == nil {
		return nil
	}
	if !database.IsNotFound(err) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	err = s.store.CreateUser(ctx, &database.User{
		Username: cfg.Username,
		Password: string(hashed),
		Role:     database.RoleAdmin,
		IsActive: true,
	})
	if err != nil && !database.IsDuplicateKey(err) {
		return err
	}
	s.logger.Info("bootstrapped super admin", zap.String("username", cfg.Username))
	return nil
}

// SeedTemplate ensures a product and one of its template definitions
// exist, creating both on demand. The template's stored schema is the
// definition's JSON form.
func (s *Service) SeedTemplate(ctx context.Context, def *schema.Definition) error {
	product, err := s.store.GetProductByCode(ctx, def.ProductCode)
	if database.IsNotFound(err) {
		product, err = s.store.UpsertProduct(ctx, def.ProductCode, def.ProductCode)
	}
	if err != nil {
		return err
	}

	_, err = s.store.FindActiveTemplate(ctx, product.ID, def.Code)
	if err == nil {
		return nil
	}
	if !database.IsNotFound(err) {
		return err
	}

	raw, err := schema.MarshalDefinition(def)
	if err != nil {
		return err
	}
	err = s.store.CreateTemplate(ctx, &database.Template{
		ProductID: product.ID,
		Code:      def.Code,
		Name:      def.Name,
		IsActive:  true,
		Schema:    string(raw),
	})
	if err != nil && !database.IsDuplicateKey(err) {
		return err
	}
	s.logger.Info("seeded template",
		zap.String("productCode", def.ProductCode),
		zap.String("templateCode", def.Code))
	return nil
}
