package dataset

import (
	"context"
	"sync"
	"testing"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/common/config"
	"github.com/cg-dump/datasrv/internal/common/errorx"
	"github.com/cg-dump/datasrv/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store   *database.DBStore
	svc     *Service
	state   *database.State
	product *database.Product
	admin   *auth.Context
	user    *auth.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := database.NewDBStore(zap.NewNop(), &config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	state := &database.State{Code: "RJ", Name: "Rajasthan"}
	require.NoError(t, store.CreateState(ctx, state))

	product, err := store.UpsertProduct(ctx, "FMB", "FMB Dumps")
	require.NoError(t, err)

	_, err = store.UpsertStateProduct(ctx, state.ID, product.ID, true)
	require.NoError(t, err)

	raw, err := schema.MarshalDefinition(&schema.Definition{
		Code:        "FMB_DUMP_V1",
		Name:        "FMB Dump Template",
		ProductCode: "FMB",
		Columns: []schema.Column{
			{Key: "surveyId", Label: "Survey ID", Type: schema.TypeString, Required: true, MaxLength: 64},
			{Key: "submissionCount", Label: "Submission Count", Type: schema.TypeNumber},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.CreateTemplate(ctx, &database.Template{
		ProductID: product.ID,
		Code:      "FMB_DUMP_V1",
		Name:      "FMB Dump Template",
		IsActive:  true,
		Schema:    string(raw),
	}))

	return &fixture{
		store:   store,
		svc:     NewService(store, zap.NewNop()),
		state:   state,
		product: product,
		admin:   &auth.Context{UserID: "admin-1", Username: "root", Role: auth.RoleAdmin},
		user:    &auth.Context{UserID: "user-1", Username: "rj-user", Role: auth.RoleStateUser, StateID: &state.ID},
	}
}

func validRows(ids ...string) []schema.Row {
	rows := make([]schema.Row, 0, len(ids))
	for i, id := range ids {
		rows = append(rows, schema.Row{RowIndex: i, Data: map[string]any{"surveyId": id}})
	}
	return rows
}

func TestGetOrCreateDraftIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)
	assert.True(t, first.Created)
	assert.Equal(t, database.LifecycleDraft, first.Dataset.Lifecycle)
	assert.True(t, first.Dataset.IsActiveDraft())
	assert.Equal(t, 1, first.Dataset.Version)
	assert.Nil(t, first.Dataset.PublishedVersion)
	assert.Equal(t, "FMB Draft", first.Dataset.Name)

	second, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)
	assert.False(t, second.Created)
	assert.Equal(t, first.Dataset.ID, second.Dataset.ID)
}

func TestGetOrCreateDraftConcurrent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const callers = 8
	results := make([]*DraftResult, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
			if derr == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	createdCount := 0
	var draftID string
	for _, res := range results {
		require.NotNil(t, res)
		if res.Created {
			createdCount++
		}
		if draftID == "" {
			draftID = res.Dataset.ID
		}
		assert.Equal(t, draftID, res.Dataset.ID)
	}
	assert.Equal(t, 1, createdCount)
}

func TestGetDraftNotFound(t *testing.T) {
	f := newFixture(t)
	_, derr := f.svc.GetDraft(context.Background(), f.user, DraftSelector{ProductCode: "FMB"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)
}

func TestDraftScopeFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// state user without a binding is rejected before any storage access
	unbound := &auth.Context{UserID: "u", Role: auth.RoleStateUser}
	_, derr := f.svc.GetOrCreateDraft(ctx, unbound, CreateDraftInput{ProductCode: "FMB"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindForbidden, derr.Kind)

	// admin must name a state
	_, derr = f.svc.GetOrCreateDraft(ctx, f.admin, CreateDraftInput{ProductCode: "FMB"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindInvalidRequest, derr.Kind)

	// unknown state is NotFound, not InvalidRequest
	_, derr = f.svc.GetOrCreateDraft(ctx, f.admin, CreateDraftInput{ProductCode: "FMB", StateCode: "XX"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)

	// admin with an explicit state resolves normally
	res, derr := f.svc.GetOrCreateDraft(ctx, f.admin, CreateDraftInput{ProductCode: "FMB", StateCode: "rj"})
	require.Nil(t, derr)
	assert.True(t, res.Created)
}

func TestEnablementGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// disabled relation
	_, err := f.store.UpsertStateProduct(ctx, f.state.ID, f.product.ID, false)
	require.NoError(t, err)

	_, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindForbidden, derr.Kind)
	assert.Equal(t, "Product is not enabled for this state", derr.Message)
}

func TestReplaceRowsVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)
	draftID := res.Dataset.ID

	updated, derr := f.svc.ReplaceRows(ctx, f.user, draftID, ReplaceRowsInput{
		Version: 1,
		Rows:    validRows("S1", "S2"),
	})
	require.Nil(t, derr)
	assert.Equal(t, 2, updated.Version)
	assert.Len(t, updated.Rows, 2)

	// identical resubmission with the stale token fails
	_, derr = f.svc.ReplaceRows(ctx, f.user, draftID, ReplaceRowsInput{
		Version: 1,
		Rows:    validRows("S1", "S2"),
	})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindConflict, derr.Kind)
	assert.Equal(t, 1, derr.Details["expectedVersion"])
	assert.Equal(t, 2, derr.Details["actualVersion"])

	// the rejected replacement changed nothing
	stored, derr := f.svc.GetDataset(ctx, f.user, draftID)
	require.Nil(t, derr)
	assert.Equal(t, 2, stored.Version)
	assert.Len(t, stored.Rows, 2)
}

func TestReplaceRowsValidationFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	_, derr = f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{
		Version: 1,
		Rows:    []schema.Row{{RowIndex: 0, Data: map[string]any{}}},
	})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindValidationFailed, derr.Kind)

	errs, ok := derr.Details["errors"].([]schema.RowError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, schema.RowError{RowIndex: 0, Field: "surveyId", Message: "Survey ID is required"}, errs[0])

	// no state change, version still 1
	stored, gerr := f.svc.GetDataset(ctx, f.user, res.Dataset.ID)
	require.Nil(t, gerr)
	assert.Equal(t, 1, stored.Version)
	assert.Empty(t, stored.Rows)
}

func TestReplaceRowsEmptySetStillBumpsVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	updated, derr := f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{
		Version: 1,
		Rows:    validRows("S1"),
	})
	require.Nil(t, derr)
	require.Len(t, updated.Rows, 1)

	emptied, derr := f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{Version: 2})
	require.Nil(t, derr)
	assert.Equal(t, 3, emptied.Version)
	assert.Empty(t, emptied.Rows)
}

func TestReplaceRowsTenantIsolation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	other := &database.State{Code: "KA", Name: "Karnataka"}
	require.NoError(t, f.store.CreateState(ctx, other))
	intruder := &auth.Context{UserID: "ka-user", Role: auth.RoleStateUser, StateID: &other.ID}

	// out of scope looks identical to absence
	_, derr = f.svc.ReplaceRows(ctx, intruder, res.Dataset.ID, ReplaceRowsInput{Version: 1})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)
}

func TestReplaceDraftRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	updated, derr := f.svc.ReplaceDraftRows(ctx, f.user, ReplaceDraftRowsInput{
		ProductCode: "FMB",
		Version:     1,
		Rows:        validRows("S1"),
	})
	require.Nil(t, derr)
	assert.Equal(t, 2, updated.Version)
}

func TestPublishSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	_, derr = f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{
		Version: 1,
		Rows:    validRows("S1", "S2", "S3"),
	})
	require.Nil(t, derr)

	first, derr := f.svc.Publish(ctx, f.user, DraftSelector{ProductCode: "FMB"})
	require.Nil(t, derr)
	require.NotNil(t, first.Dataset.PublishedVersion)
	assert.Equal(t, 1, *first.Dataset.PublishedVersion)
	assert.Equal(t, 3, first.RowsCount)
	assert.Equal(t, database.LifecyclePublished, first.Dataset.Lifecycle)
	assert.False(t, first.Dataset.IsActiveDraft())

	second, derr := f.svc.Publish(ctx, f.user, DraftSelector{ProductCode: "FMB"})
	require.Nil(t, derr)
	assert.Equal(t, 2, *second.Dataset.PublishedVersion)

	// the draft survives publishing, unchanged
	draft, derr := f.svc.GetDraft(ctx, f.user, DraftSelector{ProductCode: "FMB"})
	require.Nil(t, derr)
	assert.Equal(t, res.Dataset.ID, draft.ID)
	assert.Equal(t, database.LifecycleDraft, draft.Lifecycle)
	assert.Equal(t, 2, draft.Version)
}

func TestPublishSnapshotImmutability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	_, derr = f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{
		Version: 1,
		Rows:    validRows("S1", "S2"),
	})
	require.Nil(t, derr)

	published, derr := f.svc.Publish(ctx, f.user, DraftSelector{ProductCode: "FMB"})
	require.Nil(t, derr)

	// later draft edits do not touch the snapshot
	_, derr = f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{
		Version: 2,
		Rows:    validRows("CHANGED"),
	})
	require.Nil(t, derr)

	snapshot, derr := f.svc.GetDataset(ctx, f.user, published.Dataset.ID)
	require.Nil(t, derr)
	require.Len(t, snapshot.Rows, 2)
	assert.Equal(t, "S1", snapshot.Rows[0].Data["surveyId"])
	assert.Equal(t, "S2", snapshot.Rows[1].Data["surveyId"])
}

func TestPublishValidatesAllRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	// plant an invalid row directly, as template/row drift would
	_, err := f.store.ReplaceDatasetRows(ctx, res.Dataset.ID, []database.DatasetRow{
		{RowIndex: 0, Data: map[string]any{"submissionCount": "many"}},
	})
	require.NoError(t, err)

	_, derr = f.svc.Publish(ctx, f.user, DraftSelector{ProductCode: "FMB"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindValidationFailed, derr.Kind)

	// nothing was published
	max, err := f.store.MaxPublishedVersion(ctx, f.state.ID, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, max)
}

func TestPublishWithoutDraft(t *testing.T) {
	f := newFixture(t)
	_, derr := f.svc.Publish(context.Background(), f.user, DraftSelector{ProductCode: "FMB"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)
}

func TestPublishConcurrentVersions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)
	_, derr = f.svc.ReplaceRows(ctx, f.user, res.Dataset.ID, ReplaceRowsInput{
		Version: 1,
		Rows:    validRows("S1"),
	})
	require.Nil(t, derr)

	const publishers = 4
	versions := make(chan int, publishers)
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, derr := f.svc.Publish(ctx, f.user, DraftSelector{ProductCode: "FMB"})
			if derr == nil {
				versions <- *out.Dataset.PublishedVersion
			}
		}()
	}
	wg.Wait()
	close(versions)

	seen := make(map[int]bool)
	for v := range versions {
		assert.False(t, seen[v], "duplicate published version %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, publishers)
}

func TestCreateDataset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ds, derr := f.svc.CreateDataset(ctx, f.admin, CreateDatasetInput{
		Name:         "Ad hoc",
		ProductCode:  "fmb",
		TemplateCode: "fmb_dump_v1",
		StateCode:    "RJ",
		Metadata:     map[string]any{"source": "manual"},
	})
	require.Nil(t, derr)
	assert.Equal(t, database.LifecycleDraft, ds.Lifecycle)
	assert.False(t, ds.IsActiveDraft())
	assert.Equal(t, 1, ds.Version)
	assert.Equal(t, "manual", ds.Metadata["source"])

	// admin without a state code
	_, derr = f.svc.CreateDataset(ctx, f.admin, CreateDatasetInput{
		Name: "X", ProductCode: "FMB", TemplateCode: "FMB_DUMP_V1",
	})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindInvalidRequest, derr.Kind)

	// unknown template
	_, derr = f.svc.CreateDataset(ctx, f.admin, CreateDatasetInput{
		Name: "X", ProductCode: "FMB", TemplateCode: "NO_SUCH", StateCode: "RJ",
	})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)
}

func TestListDatasets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, derr := f.svc.GetOrCreateDraft(ctx, f.user, CreateDraftInput{ProductCode: "FMB"})
	require.Nil(t, derr)

	mine, derr := f.svc.ListDatasets(ctx, f.user, ListFilter{})
	require.Nil(t, derr)
	assert.Len(t, mine, 1)

	all, derr := f.svc.ListDatasets(ctx, f.admin, ListFilter{StateCode: "RJ"})
	require.Nil(t, derr)
	assert.Len(t, all, 1)

	none, derr := f.svc.ListDatasets(ctx, f.admin, ListFilter{ProductCode: "GONE"})
	require.Nil(t, derr)
	assert.Empty(t, none)

	_, derr = f.svc.ListDatasets(ctx, f.admin, ListFilter{StateCode: "ZZ"})
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)
}

func TestGetDatasetNotFound(t *testing.T) {
	f := newFixture(t)
	_, derr := f.svc.GetDataset(context.Background(), f.user, "no-such-id")
	require.NotNil(t, derr)
	assert.Equal(t, errorx.KindNotFound, derr.Kind)
}
