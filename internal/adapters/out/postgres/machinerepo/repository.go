package machinerepo

import (
	"context"
	"errors"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/machine"
	"artfactory/internal/pkg/errs"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormMachineRepository implements ports.MachineRepository using GORM.
// Without a tracker it can serve reads outside a unit of work.
type GormMachineRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

type noTracking struct{}

func (noTracking) TrackAggregate(kernel.UUID, any) {}

func NewGormMachineRepository(db *gorm.DB, tracker aggregateTracker) *GormMachineRepository {
	if tracker == nil {
		tracker = noTracking{}
	}
	return &GormMachineRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts a definition. A taken slug yields errs.ErrObjectAlreadyExists.
func (r *GormMachineRepository) Add(ctx context.Context, aggregate *machine.Definition) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}
	if err = r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if pgErr := new(pgconn.PgError); errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return errs.NewObjectAlreadyExistsErrorWithCause("machine", aggregate.Slug(), err)
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormMachineRepository) Update(ctx context.Context, aggregate *machine.Definition) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto, err := fromDomain(aggregate)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&MachineDTO{}).
		Where("id = ?", dto.ID).
		Select("name", "model", "cost_per_run", "default_parameters", "rules", "active", "updated_at").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundErrorWithCause("machine", aggregate.Slug(), gorm.ErrRecordNotFound)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormMachineRepository) Get(ctx context.Context, id kernel.UUID) (*machine.Definition, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto MachineDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("machine", id.String())
		}
		return nil, err
	}
	return toDomain(dto)
}

func (r *GormMachineRepository) GetBySlug(ctx context.Context, slug string) (*machine.Definition, error) {
	var dto MachineDTO
	if err := r.db.WithContext(ctx).First(&dto, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("machine", slug)
		}
		return nil, err
	}
	return toDomain(dto)
}

// GetBySlugs loads the listed machines keyed by slug. Unknown slugs are left out.
func (r *GormMachineRepository) GetBySlugs(ctx context.Context, slugs []string) (map[string]*machine.Definition, error) {
	defs := make(map[string]*machine.Definition, len(slugs))
	if len(slugs) == 0 {
		return defs, nil
	}

	var dtos []MachineDTO
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&dtos).Error; err != nil {
		return nil, err
	}
	for _, dto := range dtos {
		def, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		defs[def.Slug()] = def
	}
	return defs, nil
}
