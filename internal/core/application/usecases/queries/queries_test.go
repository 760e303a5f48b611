package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/core/domain/model/worker"
	"artfactory/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewPage(t *testing.T) {
	page, err := newPage(0, 0)
	require.NoError(t, err)
	assert.Equal(t, Page{Limit: DefaultPageSize}, page)

	_, err = newPage(MaxPageSize+1, 0)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)

	_, err = newPage(10, -1)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%50\% off\_sale%`, likePattern("50% off_sale"))
	assert.Equal(t, `%a\\b%`, likePattern(`a\b`))
}

func TestQueries_ZeroValueIsNotConstructed(t *testing.T) {
	assert.ErrorIs(t, GetOrderQuery{}.Validate(), ErrGetOrderQueryIsNotConstructed)
	assert.ErrorIs(t, ListOrdersQuery{}.Validate(), ErrListOrdersQueryIsNotConstructed)
	assert.ErrorIs(t, ListProductsQuery{}.Validate(), ErrListProductsQueryIsNotConstructed)
	assert.ErrorIs(t, GetProductQuery{}.Validate(), ErrGetProductQueryIsNotConstructed)
	assert.ErrorIs(t, ListMachinesQuery{}.Validate(), ErrListMachinesQueryIsNotConstructed)
	assert.ErrorIs(t, GetMachineQuery{}.Validate(), ErrGetMachineQueryIsNotConstructed)
	assert.ErrorIs(t, ValidateMachineParametersQuery{}.Validate(), ErrValidateMachineParametersQueryIsNotConstructed)
	assert.ErrorIs(t, GetWorkersQuery{}.Validate(), ErrGetWorkersQueryIsNotConstructed)
}

func TestNewListProductsQuery_NormalizesFilter(t *testing.T) {
	q, err := NewListProductsQuery(ProductFilter{MachineSlug: "  fal-flux ", Tag: " Sea ", Search: " koi "})

	require.NoError(t, err)
	f := q.Filter()
	assert.Equal(t, "fal-flux", f.MachineSlug)
	assert.Equal(t, "sea", f.Tag)
	assert.Equal(t, "koi", f.Search)
	assert.Equal(t, DefaultPageSize, q.Page().Limit)
}

func TestNewListProductsQuery_RejectsBadInput(t *testing.T) {
	bad := kernel.MediaType("hologram")
	_, err := NewListProductsQuery(ProductFilter{MediaType: &bad, Limit: -3})

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

func TestNewGetMachineQuery_RequiresSlug(t *testing.T) {
	_, err := NewGetMachineQuery("   ")
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)

	_, err = NewValidateMachineParametersQuery("", nil)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
}

type mockMachineReader struct {
	mock.Mock
}

func (m *mockMachineReader) GetBySlug(ctx context.Context, slug string) (*machine.Definition, error) {
	args := m.Called(ctx, slug)
	def, _ := args.Get(0).(*machine.Definition)
	return def, args.Error(1)
}

func replicateMachine(t *testing.T) *machine.Definition {
	t.Helper()
	def, err := machine.NewDefinition(kernel.NewUUID(), machine.Attributes{
		Slug:       "replicate-sdxl",
		Name:       "SDXL",
		Provider:   machine.ProviderReplicate,
		Model:      "stability-ai/sdxl",
		MediaType:  kernel.MediaTypeImage,
		CostPerRun: decimal.RequireFromString("0.0042"),
		Defaults:   kernel.NewParameters(map[string]any{"num_inference_steps": 30}),
		Rules: []machine.Rule{
			{Name: "num_inference_steps", Kind: machine.KindInteger, Min: machine.Bound(1), Max: machine.Bound(50)},
		},
	}, time.Now())
	require.NoError(t, err)
	return def
}

func TestGetMachineQueryHandler_ReturnsEffectiveRules(t *testing.T) {
	ctx := t.Context()
	def := replicateMachine(t)
	reader := new(mockMachineReader)
	reader.On("GetBySlug", ctx, "replicate-sdxl").Return(def, nil)

	q, err := NewGetMachineQuery("replicate-sdxl")
	require.NoError(t, err)
	view, err := NewGetMachineQueryHandler(reader).Handle(ctx, q)

	require.NoError(t, err)
	assert.Equal(t, def.ID(), view.ID)
	assert.Equal(t, "replicate", view.Provider)
	require.Len(t, view.Rules, 1)
	assert.Equal(t, "num_inference_steps", view.Rules[0].Name)
	assert.Greater(t, len(view.EffectiveRules), len(view.Rules))
	names := make([]string, 0, len(view.EffectiveRules))
	for _, r := range view.EffectiveRules {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, machine.ParamPrompt)
	reader.AssertExpectations(t)
}

func TestGetMachineQueryHandler_NotFound(t *testing.T) {
	ctx := t.Context()
	reader := new(mockMachineReader)
	reader.On("GetBySlug", ctx, "nope").Return(nil, errs.NewObjectNotFoundError("machine", "nope"))

	q, err := NewGetMachineQuery("nope")
	require.NoError(t, err)
	_, err = NewGetMachineQueryHandler(reader).Handle(ctx, q)

	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestValidateMachineParametersQueryHandler(t *testing.T) {
	ctx := t.Context()
	def := replicateMachine(t)
	reader := new(mockMachineReader)
	reader.On("GetBySlug", ctx, "replicate-sdxl").Return(def, nil)
	handler := NewValidateMachineParametersQueryHandler(reader)

	t.Run("valid parameters are resolved over defaults", func(t *testing.T) {
		q, err := NewValidateMachineParametersQuery("replicate-sdxl", map[string]any{"prompt": "a fox"})
		require.NoError(t, err)

		resp, err := handler.Handle(ctx, q)

		require.NoError(t, err)
		assert.True(t, resp.Valid)
		assert.Empty(t, resp.Errors)
		assert.Equal(t, "a fox", resp.Resolved["prompt"])
		assert.EqualValues(t, 30, resp.Resolved["num_inference_steps"])
	})

	t.Run("every violation is reported", func(t *testing.T) {
		q, err := NewValidateMachineParametersQuery("replicate-sdxl", map[string]any{
			"num_inference_steps": 500,
			"colour":              "red",
		})
		require.NoError(t, err)

		resp, err := handler.Handle(ctx, q)

		require.NoError(t, err)
		assert.False(t, resp.Valid)
		assert.Nil(t, resp.Resolved)
		assert.GreaterOrEqual(t, len(resp.Errors), 3, "range, unknown key and missing prompt")
	})
}

func TestFlatten_UnwrapsJoinedErrors(t *testing.T) {
	err := errors.Join(errors.New("a"), errors.Join(errors.New("b"), errors.New("c")))

	assert.Equal(t, []string{"a", "b", "c"}, flatten(err))
	assert.Equal(t, []string{"single"}, flatten(errors.New("single")))
}

type mockHeartbeatStore struct {
	mock.Mock
}

func (m *mockHeartbeatStore) Beat(ctx context.Context, hb worker.Heartbeat) error {
	return m.Called(ctx, hb).Error(0)
}

func (m *mockHeartbeatStore) List(ctx context.Context) ([]worker.Heartbeat, error) {
	args := m.Called(ctx)
	beats, _ := args.Get(0).([]worker.Heartbeat)
	return beats, args.Error(1)
}

func (m *mockHeartbeatStore) Remove(ctx context.Context, workerID string) error {
	return m.Called(ctx, workerID).Error(0)
}

func TestGetWorkersQueryHandler_AnnotatesHealth(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := new(mockHeartbeatStore)
	store.On("List", ctx).Return([]worker.Heartbeat{
		{WorkerID: "worker-2", State: worker.StateIdle, LastSeen: now.Add(-2 * time.Minute)},
		{WorkerID: "worker-1", State: worker.StateBusy, CurrentItem: "item-9", Processed: 4, LastSeen: now.Add(-5 * time.Second)},
	}, nil)

	handler := NewGetWorkersQueryHandler(store, 30*time.Second)
	handler.now = func() time.Time { return now }
	q, err := NewGetWorkersQuery()
	require.NoError(t, err)

	resp, err := handler.Handle(ctx, q)

	require.NoError(t, err)
	require.Len(t, resp.Workers, 2)
	assert.Equal(t, "worker-1", resp.Workers[0].WorkerID)
	assert.Equal(t, "healthy", resp.Workers[0].Health)
	assert.Equal(t, "busy", resp.Workers[0].State)
	assert.Equal(t, 5*time.Second, resp.Workers[0].Age)
	assert.Equal(t, "stale", resp.Workers[1].Health)
	assert.Equal(t, 1, resp.Healthy)
	assert.Equal(t, 1, resp.Stale)
}

func TestGetWorkersQueryHandler_StoreError(t *testing.T) {
	ctx := t.Context()
	store := new(mockHeartbeatStore)
	store.On("List", ctx).Return(nil, errors.New("redis down"))

	q, err := NewGetWorkersQuery()
	require.NoError(t, err)
	_, err = NewGetWorkersQueryHandler(store, time.Minute).Handle(ctx, q)

	assert.EqualError(t, err, "redis down")
}
