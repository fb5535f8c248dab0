package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// withRows preloads a dataset's associations, rows in rowIndex order.
func withRows(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("row_index asc")
		}).
		Preload("State").
		Preload("Product").
		Preload("Template")
}

// CreateDataset creates a dataset. A uniqueness violation on the active
// draft index is surfaced unchanged for the caller to classify.
func (s *DBStore) CreateDataset(ctx context.Context, dataset *Dataset) error {
	if dataset.ID == "" {
		dataset.ID = uuid.New().String()
	}
	return s.db.WithContext(ctx).Create(dataset).Error
}

// GetDatasetByID retrieves a dataset with its rows. A non-nil stateID
// restricts visibility to that state's datasets.
func (s *DBStore) GetDatasetByID(ctx context.Context, id string, stateID *string) (*Dataset, error) {
	query := withRows(s.db.WithContext(ctx)).Where("datasets.id = ?", id)
	if stateID != nil {
		query = query.Where("datasets.state_id = ?", *stateID)
	}
	var dataset Dataset
	if err := query.First(&dataset).Error; err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ListDatasets lists datasets matching the filter, most recently updated first
func (s *DBStore) ListDatasets(ctx context.Context, filter DatasetFilter) ([]*Dataset, error) {
	query := s.db.WithContext(ctx).
		Preload("State").
		Preload("Product").
		Preload("Template").
		Order("datasets.updated_at desc")

	if filter.StateID != nil {
		query = query.Where("datasets.state_id = ?", *filter.StateID)
	}
	if filter.ProductID != nil {
		query = query.Where("datasets.product_id = ?", *filter.ProductID)
	}
	if filter.TemplateCode != nil {
		query = query.
			Joins("JOIN templates ON templates.id = datasets.template_id").
			Where("templates.code = ?", *filter.TemplateCode)
	}
	if filter.EnabledForStateID != nil {
		query = query.
			Joins("JOIN state_products ON state_products.product_id = datasets.product_id").
			Where("state_products.state_id = ? AND state_products.enabled = ?", *filter.EnabledForStateID, true)
	}

	var datasets []*Dataset
	err := query.Find(&datasets).Error
	return datasets, err
}

// FindActiveDraft retrieves the live draft for (state, product) with its rows
func (s *DBStore) FindActiveDraft(ctx context.Context, stateID, productID string) (*Dataset, error) {
	var dataset Dataset
	err := withRows(s.db.WithContext(ctx)).
		Where("state_id = ? AND product_id = ? AND lifecycle = ? AND active_draft = ?",
			stateID, productID, LifecycleDraft, true).
		First(&dataset).Error
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

// ReplaceDatasetRows swaps the dataset's entire row set and bumps its
// version by one, all inside a single transaction. Replacement is total:
// delete all, then insert all.
func (s *DBStore) ReplaceDatasetRows(ctx context.Context, datasetID string, rows []DatasetRow) (*Dataset, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dataset_id = ?", datasetID).Delete(&DatasetRow{}).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ID = uuid.New().String()
			rows[i].DatasetID = datasetID
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Model(&Dataset{}).
			Where("id = ?", datasetID).
			UpdateColumn("version", gorm.Expr("version + ?", 1)).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetDatasetByID(ctx, datasetID, nil)
}

// MaxPublishedVersion returns the highest published version for a
// (state, product) pair, or 0 when nothing has been published yet.
func (s *DBStore) MaxPublishedVersion(ctx context.Context, stateID, productID string) (int, error) {
	var max sql.NullInt64
	err := s.db.WithContext(ctx).
		Model(&Dataset{}).
		Where("state_id = ? AND product_id = ? AND lifecycle = ?", stateID, productID, LifecyclePublished).
		Select("MAX(published_version)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if !max.Valid {
		return 0, nil
	}
	return int(max.Int64), nil
}

// CreateSnapshot creates a published dataset together with a copy of the
// given rows in one transaction.
func (s *DBStore) CreateSnapshot(ctx context.Context, dataset *Dataset, rows []DatasetRow) (*Dataset, error) {
	if dataset.ID == "" {
		dataset.ID = uuid.New().String()
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(dataset).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].ID = uuid.New().String()
			rows[i].DatasetID = dataset.ID
		}
		if len(rows) > 0 {
			return tx.Create(&rows).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetDatasetByID(ctx, dataset.ID, nil)
}
