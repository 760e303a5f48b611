// Package productrepo persists gallery products.
package productrepo

import (
	"encoding/json"
	"time"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/core/domain/model/product"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProductDTO is the products row. Tags are a text[] column.
type ProductDTO struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid"`
	ItemID      uuid.UUID `gorm:"type:uuid;index"`
	MachineID   uuid.UUID `gorm:"type:uuid"`
	Title       string
	MediaType   string
	URL         string
	ContentType string
	Width       int
	Height      int
	Seed        *int64
	Provider    string
	Model       string
	Parameters  []byte         `gorm:"type:jsonb"`
	Metadata    []byte         `gorm:"type:jsonb"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	Favorite    bool
	CreatedAt   time.Time
}

func (ProductDTO) TableName() string {
	return "products"
}

func fromDomain(p *product.Product) (ProductDTO, error) {
	origin, media := p.Origin(), p.Media()

	params, err := origin.Parameters.MarshalJSON()
	if err != nil {
		return ProductDTO{}, err
	}
	metadata := media.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return ProductDTO{}, err
	}
	tags := p.Tags()
	if tags == nil {
		tags = []string{}
	}

	return ProductDTO{
		ID:          p.ID().Bytes(),
		OrderID:     origin.OrderID.Bytes(),
		ItemID:      origin.ItemID.Bytes(),
		MachineID:   origin.MachineID.Bytes(),
		Title:       p.Title(),
		MediaType:   media.Type.String(),
		URL:         media.URL,
		ContentType: media.ContentType,
		Width:       media.Width,
		Height:      media.Height,
		Seed:        media.Seed,
		Provider:    origin.Provider,
		Model:       origin.Model,
		Parameters:  params,
		Metadata:    rawMetadata,
		Tags:        pq.StringArray(tags),
		Favorite:    p.IsFavorite(),
		CreatedAt:   p.CreatedAt(),
	}, nil
}

func toDomain(dto ProductDTO) (*product.Product, error) {
	var ids [4]kernel.UUID
	for i, raw := range []uuid.UUID{dto.ID, dto.OrderID, dto.ItemID, dto.MachineID} {
		id, err := kernel.UUIDFromBytes(raw[:])
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}

	params, err := kernel.ParametersFromJSON(dto.Parameters)
	if err != nil {
		return nil, err
	}
	mediaType, err := kernel.ParseMediaType(dto.MediaType)
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{}
	if len(dto.Metadata) > 0 {
		if err = json.Unmarshal(dto.Metadata, &metadata); err != nil {
			return nil, err
		}
	}

	return product.RestoreProduct(
		ids[0],
		product.Origin{
			OrderID:    ids[1],
			ItemID:     ids[2],
			MachineID:  ids[3],
			Provider:   dto.Provider,
			Model:      dto.Model,
			Parameters: params,
		},
		product.Media{
			Type:        mediaType,
			URL:         dto.URL,
			ContentType: dto.ContentType,
			Width:       dto.Width,
			Height:      dto.Height,
			Seed:        dto.Seed,
			Metadata:    metadata,
		},
		dto.Title,
		dto.Tags,
		dto.Favorite,
		dto.CreatedAt,
	)
}
