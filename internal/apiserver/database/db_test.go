package database

import (
	"context"
	"testing"

	"github.com/cg-dump/datasrv/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *DBStore {
	t.Helper()
	cfg := &config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"}
	store, err := NewDBStore(zap.NewNop(), cfg)
	if err != nil {
		t.Fatalf("NewDBStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedScope(t *testing.T, s *DBStore) (*State, *Product, *Template) {
	t.Helper()
	ctx := context.Background()

	state := &State{Code: "RJ", Name: "Rajasthan"}
	require.NoError(t, s.CreateState(ctx, state))

	product, err := s.UpsertProduct(ctx, "FMB", "FMB Dumps")
	require.NoError(t, err)

	_, err = s.UpsertStateProduct(ctx, state.ID, product.ID, true)
	require.NoError(t, err)

	template := &Template{
		ProductID: product.ID,
		Code:      "FMB_DUMP_V1",
		Name:      "FMB Dump Template",
		IsActive:  true,
		Schema:    `{"code":"FMB_DUMP_V1","name":"FMB Dump Template","productCode":"FMB","columns":[{"key":"surveyId","label":"Survey ID","required":true}]}`,
	}
	require.NoError(t, s.CreateTemplate(ctx, template))

	return state, product, template
}

func boolPtr(b bool) *bool { return &b }

func TestNewDBStoreRejectsUnknownType(t *testing.T) {
	_, err := NewDBStore(zap.NewNop(), &config.DatabaseConfig{Type: "oracle"})
	assert.ErrorIs(t, err, ErrInvalidDatabaseType)
}

func TestStatesAndProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	state := &State{Code: "KA", Name: "Karnataka"}
	require.NoError(t, s.CreateState(ctx, state))
	assert.NotEmpty(t, state.ID)

	got, err := s.GetStateByCode(ctx, "KA")
	require.NoError(t, err)
	assert.Equal(t, state.ID, got.ID)

	_, err = s.GetStateByCode(ctx, "XX")
	assert.True(t, IsNotFound(err))

	// duplicate state code collides
	err = s.CreateState(ctx, &State{Code: "KA", Name: "Copy"})
	assert.True(t, IsDuplicateKey(err))

	p1, err := s.UpsertProduct(ctx, "FMB", "FMB Dumps")
	require.NoError(t, err)
	assert.True(t, p1.IsActive)

	// upsert renames and keeps the id
	p2, err := s.UpsertProduct(ctx, "FMB", "Field Measurement Books")
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)
	assert.Equal(t, "Field Measurement Books", p2.Name)
}

func TestEnablementQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, _ := seedScope(t, s)

	sp, err := s.FindEnabledStateProduct(ctx, state.ID, product.ID)
	require.NoError(t, err)
	assert.True(t, sp.Enabled)

	// disable flips the same row
	_, err = s.UpsertStateProduct(ctx, state.ID, product.ID, false)
	require.NoError(t, err)
	_, err = s.FindEnabledStateProduct(ctx, state.ID, product.ID)
	assert.True(t, IsNotFound(err))

	// a globally inactive product is not enabled either
	_, err = s.UpsertStateProduct(ctx, state.ID, product.ID, true)
	require.NoError(t, err)
	require.NoError(t, s.db.Model(&Product{}).Where("id = ?", product.ID).Update("is_active", false).Error)
	_, err = s.FindEnabledStateProduct(ctx, state.ID, product.ID)
	assert.True(t, IsNotFound(err))
}

func TestListEnabledProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, _ := seedScope(t, s)

	other, err := s.UpsertProduct(ctx, "ABC", "Disabled Product")
	require.NoError(t, err)
	_, err = s.UpsertStateProduct(ctx, state.ID, other.ID, false)
	require.NoError(t, err)

	products, err := s.ListEnabledProducts(ctx, state.ID)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, product.ID, products[0].ID)
}

func TestTemplates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, product, template := seedScope(t, s)

	got, err := s.FindActiveTemplate(ctx, product.ID, "FMB_DUMP_V1")
	require.NoError(t, err)
	assert.Equal(t, template.ID, got.ID)

	// first active by code order
	require.NoError(t, s.CreateTemplate(ctx, &Template{
		ProductID: product.ID, Code: "AAA_V1", Name: "Earlier", IsActive: true, Schema: "{}",
	}))
	first, err := s.FirstActiveTemplate(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAA_V1", first.Code)

	_, err = s.FindActiveTemplate(ctx, product.ID, "NOPE")
	assert.True(t, IsNotFound(err))
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, _, _ := seedScope(t, s)

	u := &User{Username: "rj-user", Password: "hash", Role: RoleStateUser, StateID: &state.ID, IsActive: true}
	got, err := s.UpsertStateUser(ctx, u)
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)

	// upsert rebinds without clearing the password
	again, err := s.UpsertStateUser(ctx, &User{Username: "rj-user", Role: RoleStateUser, StateID: &state.ID})
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.Equal(t, "hash", again.Password)
}

func TestActiveDraftUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, template := seedScope(t, s)

	first := &Dataset{
		Name: "FMB Draft", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
		Lifecycle: LifecycleDraft, ActiveDraft: boolPtr(true), Version: 1,
	}
	require.NoError(t, s.CreateDataset(ctx, first))

	second := &Dataset{
		Name: "FMB Draft 2", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
		Lifecycle: LifecycleDraft, ActiveDraft: boolPtr(true), Version: 1,
	}
	err := s.CreateDataset(ctx, second)
	assert.True(t, IsDuplicateKey(err))

	// published snapshots carry a NULL slot and never collide
	for i := 1; i <= 2; i++ {
		v := i
		snap := &Dataset{
			Name: "Snapshot", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
			Lifecycle: LifecyclePublished, PublishedVersion: &v, Version: 1,
		}
		require.NoError(t, s.CreateDataset(ctx, snap))
	}

	draft, err := s.FindActiveDraft(ctx, state.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, draft.ID)
}

func TestReplaceDatasetRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, template := seedScope(t, s)

	ds := &Dataset{
		Name: "Draft", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
		Lifecycle: LifecycleDraft, ActiveDraft: boolPtr(true), Version: 1,
	}
	require.NoError(t, s.CreateDataset(ctx, ds))

	updated, err := s.ReplaceDatasetRows(ctx, ds.ID, []DatasetRow{
		{RowIndex: 1, Data: map[string]any{"surveyId": "S2"}},
		{RowIndex: 0, Data: map[string]any{"surveyId": "S1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	require.Len(t, updated.Rows, 2)
	// rows come back in rowIndex order
	assert.Equal(t, 0, updated.Rows[0].RowIndex)
	assert.Equal(t, "S1", updated.Rows[0].Data["surveyId"])

	// total replacement: a smaller set removes the missing rows
	updated, err = s.ReplaceDatasetRows(ctx, ds.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Version)
	assert.Empty(t, updated.Rows)
}

func TestMaxPublishedVersionAndSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, template := seedScope(t, s)

	max, err := s.MaxPublishedVersion(ctx, state.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, max)

	v := 1
	snap, err := s.CreateSnapshot(ctx, &Dataset{
		Name: "Snapshot", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
		Lifecycle: LifecyclePublished, PublishedVersion: &v, Version: 1,
	}, []DatasetRow{{RowIndex: 0, Data: map[string]any{"surveyId": "S1"}}})
	require.NoError(t, err)
	require.Len(t, snap.Rows, 1)
	require.NotNil(t, snap.PublishedVersion)
	assert.Equal(t, 1, *snap.PublishedVersion)

	max, err = s.MaxPublishedVersion(ctx, state.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, max)
}

func TestGetDatasetScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, template := seedScope(t, s)

	ds := &Dataset{
		Name: "Draft", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
		Lifecycle: LifecycleDraft, ActiveDraft: boolPtr(true), Version: 1,
	}
	require.NoError(t, s.CreateDataset(ctx, ds))

	got, err := s.GetDatasetByID(ctx, ds.ID, &state.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, got.ID)

	otherState := "not-the-owner"
	_, err = s.GetDatasetByID(ctx, ds.ID, &otherState)
	assert.True(t, IsNotFound(err))
}

func TestListDatasetsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	state, product, template := seedScope(t, s)

	require.NoError(t, s.CreateDataset(ctx, &Dataset{
		Name: "Draft", StateID: state.ID, ProductID: product.ID, TemplateID: template.ID,
		Lifecycle: LifecycleDraft, ActiveDraft: boolPtr(true), Version: 1,
	}))

	all, err := s.ListDatasets(ctx, DatasetFilter{StateID: &state.ID})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	code := "FMB_DUMP_V1"
	byTemplate, err := s.ListDatasets(ctx, DatasetFilter{TemplateCode: &code})
	require.NoError(t, err)
	assert.Len(t, byTemplate, 1)

	missing := "NO_SUCH"
	none, err := s.ListDatasets(ctx, DatasetFilter{TemplateCode: &missing})
	require.NoError(t, err)
	assert.Empty(t, none)

	enabled, err := s.ListDatasets(ctx, DatasetFilter{EnabledForStateID: &state.ID})
	require.NoError(t, err)
	assert.Len(t, enabled, 1)
}
