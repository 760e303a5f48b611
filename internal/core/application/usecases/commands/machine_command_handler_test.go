package commands_test

import (
	"errors"
	"testing"

	"artfactory/internal/core/application/usecases/commands"
	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sdxlAttributes() machine.Attributes {
	return machine.Attributes{
		Slug:       "replicate-sdxl",
		Name:       "SDXL",
		Provider:   machine.ProviderReplicate,
		Model:      "stability-ai/sdxl",
		MediaType:  kernel.MediaTypeImage,
		CostPerRun: decimal.RequireFromString("0.012"),
		Defaults:   kernel.NewParameters(map[string]any{"width": 1024}),
	}
}

func machineUoW(repo *MockMachineRepository) (*MockUoW, *MockMachineUoWFactory) {
	uow := new(MockUoW)
	uow.On("MachineRepository").Return(repo)
	uow.On("Rollback", mock.Anything).Return(nil)
	factory := new(MockMachineUoWFactory)
	factory.On("Create").Return(uow).Once()
	return uow, factory
}

func TestCreateMachineCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	repo := new(MockMachineRepository)
	uow, factory := machineUoW(repo)
	uow.On("Begin", ctx).Return(nil).Once()
	repo.On("GetBySlug", ctx, "replicate-sdxl").Return(nil, errs.NewObjectNotFoundError("machine", "replicate-sdxl")).Once()
	repo.On("Add", ctx, mock.MatchedBy(func(def *machine.Definition) bool {
		return def.ID() == id && def.IsActive() && def.Slug() == "replicate-sdxl"
	})).Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()

	cmd, err := commands.NewCreateMachineCommand(id, sdxlAttributes())
	require.NoError(t, err)
	h := commands.NewCreateMachineCommandHandler(factory)

	require.NoError(t, h.Handle(ctx, cmd))
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestCreateMachineCommandHandler_Handle_DuplicateSlug(t *testing.T) {
	ctx := t.Context()
	existing, err := machine.NewDefinition(kernel.NewUUID(), sdxlAttributes(), fixedNow)
	require.NoError(t, err)

	repo := new(MockMachineRepository)
	uow, factory := machineUoW(repo)
	uow.On("Begin", ctx).Return(nil).Once()
	repo.On("GetBySlug", ctx, "replicate-sdxl").Return(existing, nil).Once()

	cmd, _ := commands.NewCreateMachineCommand(kernel.NewUUID(), sdxlAttributes())
	h := commands.NewCreateMachineCommandHandler(factory)
	err = h.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)
	repo.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCreateMachineCommandHandler_Handle_InvalidAttributes(t *testing.T) {
	attrs := sdxlAttributes()
	attrs.Slug = "Not A Slug"
	attrs.Defaults = kernel.NewParameters(map[string]any{"width": 9000})
	factory := new(MockMachineUoWFactory)

	cmd, _ := commands.NewCreateMachineCommand(kernel.NewUUID(), attrs)
	h := commands.NewCreateMachineCommandHandler(factory)
	err := h.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	factory.AssertNotCalled(t, "Create")
}

func TestUpdateMachineCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	def, err := machine.NewDefinition(kernel.NewUUID(), sdxlAttributes(), fixedNow)
	require.NoError(t, err)

	repo := new(MockMachineRepository)
	uow, factory := machineUoW(repo)
	uow.On("Begin", ctx).Return(nil).Once()
	repo.On("GetBySlug", ctx, "replicate-sdxl").Return(def, nil).Once()
	repo.On("Update", ctx, def).Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()

	attrs := sdxlAttributes()
	attrs.Slug = ""
	attrs.Name = "SDXL 1.0"
	attrs.CostPerRun = decimal.RequireFromString("0.02")
	cmd, err := commands.NewUpdateMachineCommand("replicate-sdxl", attrs)
	require.NoError(t, err)
	h := commands.NewUpdateMachineCommandHandler(factory)

	require.NoError(t, h.Handle(ctx, cmd))
	assert.Equal(t, "SDXL 1.0", def.Name())
	assert.Equal(t, "0.02", def.CostPerRun().String())
}

func TestUpdateMachineCommandHandler_Handle_ProviderIsImmutable(t *testing.T) {
	ctx := t.Context()
	def, err := machine.NewDefinition(kernel.NewUUID(), sdxlAttributes(), fixedNow)
	require.NoError(t, err)

	repo := new(MockMachineRepository)
	uow, factory := machineUoW(repo)
	uow.On("Begin", ctx).Return(nil).Once()
	repo.On("GetBySlug", ctx, "replicate-sdxl").Return(def, nil).Once()

	attrs := sdxlAttributes()
	attrs.Provider = machine.ProviderFal
	cmd, _ := commands.NewUpdateMachineCommand("replicate-sdxl", attrs)
	h := commands.NewUpdateMachineCommandHandler(factory)

	require.ErrorIs(t, h.Handle(ctx, cmd), errs.ErrValueIsInvalid)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestSetMachineActiveCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	def, err := machine.NewDefinition(kernel.NewUUID(), sdxlAttributes(), fixedNow)
	require.NoError(t, err)

	t.Run("deactivates an active machine", func(t *testing.T) {
		repo := new(MockMachineRepository)
		uow, factory := machineUoW(repo)
		uow.On("Begin", ctx).Return(nil).Once()
		repo.On("GetBySlug", ctx, "replicate-sdxl").Return(def, nil).Once()
		repo.On("Update", ctx, def).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()

		cmd, _ := commands.NewSetMachineActiveCommand("replicate-sdxl", false)
		h := commands.NewSetMachineActiveCommandHandler(factory)

		require.NoError(t, h.Handle(ctx, cmd))
		assert.False(t, def.IsActive())
	})

	t.Run("is a no-op when already in the requested state", func(t *testing.T) {
		repo := new(MockMachineRepository)
		uow, factory := machineUoW(repo)
		uow.On("Begin", ctx).Return(nil).Once()
		repo.On("GetBySlug", ctx, "replicate-sdxl").Return(def, nil).Once()

		cmd, _ := commands.NewSetMachineActiveCommand("replicate-sdxl", false)
		h := commands.NewSetMachineActiveCommandHandler(factory)

		require.NoError(t, h.Handle(ctx, cmd))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestSyncMachineCatalogCommandHandler_Handle_Upserts(t *testing.T) {
	ctx := t.Context()
	existing, err := machine.NewDefinition(kernel.NewUUID(), sdxlAttributes(), fixedNow)
	require.NoError(t, err)

	flux := machine.Attributes{
		Slug:       "fal-flux-schnell",
		Name:       "FLUX schnell",
		Provider:   machine.ProviderFal,
		Model:      "fal-ai/flux/schnell",
		MediaType:  kernel.MediaTypeImage,
		CostPerRun: decimal.RequireFromString("0.003"),
	}
	updated := sdxlAttributes()
	updated.Name = "SDXL (catalog)"

	repo := new(MockMachineRepository)
	uow, factory := machineUoW(repo)
	uow.On("Begin", ctx).Return(nil).Once()
	repo.On("GetBySlug", ctx, "fal-flux-schnell").Return(nil, errs.NewObjectNotFoundError("machine", "fal-flux-schnell")).Once()
	repo.On("Add", ctx, mock.AnythingOfType("*machine.Definition")).Return(nil).Once()
	repo.On("GetBySlug", ctx, "replicate-sdxl").Return(existing, nil).Once()
	repo.On("Update", ctx, existing).Return(nil).Once()
	uow.On("Commit", ctx).Return(nil).Once()

	cmd, err := commands.NewSyncMachineCatalogCommand([]machine.Attributes{flux, updated})
	require.NoError(t, err)
	h := commands.NewSyncMachineCatalogCommandHandler(factory)
	result, err := h.Handle(ctx, cmd)

	require.NoError(t, err)
	assert.Equal(t, commands.SyncMachineCatalogResult{Created: 1, Updated: 1}, result)
	assert.Equal(t, "SDXL (catalog)", existing.Name())
	repo.AssertExpectations(t)
}

func TestSyncMachineCatalogCommandHandler_Handle_RollsBackOnAnyError(t *testing.T) {
	ctx := t.Context()
	repo := new(MockMachineRepository)
	uow, factory := machineUoW(repo)
	uow.On("Begin", ctx).Return(nil).Once()
	repo.On("GetBySlug", ctx, "replicate-sdxl").Return(nil, errors.New("connection reset")).Once()

	cmd, _ := commands.NewSyncMachineCatalogCommand([]machine.Attributes{sdxlAttributes()})
	h := commands.NewSyncMachineCatalogCommandHandler(factory)
	_, err := h.Handle(ctx, cmd)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "machine replicate-sdxl")
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestNewSyncMachineCatalogCommand_RejectsDuplicates(t *testing.T) {
	_, err := commands.NewSyncMachineCatalogCommand([]machine.Attributes{sdxlAttributes(), sdxlAttributes(), {}})

	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	assert.ErrorIs(t, err, errs.ErrValueIsRequired)
	assert.Contains(t, err.Error(), "entry 1")
}
