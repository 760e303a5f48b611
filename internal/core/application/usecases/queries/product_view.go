package queries

import (
	"time"

	"artfactory/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ProductView is a gallery entry.
type ProductView struct {
	ID          kernel.UUID
	OrderID     kernel.UUID
	ItemID      kernel.UUID
	MachineID   kernel.UUID
	MachineSlug string
	Title       string
	Prompt      string
	MediaType   string
	URL         string
	ContentType string
	Width       int
	Height      int
	Seed        *int64
	Provider    string
	Model       string
	Parameters  map[string]any
	Metadata    map[string]string
	Tags        []string
	Favorite    bool
	CreatedAt   time.Time
}

const productColumns = `
	p.id,
	p.order_id,
	p.item_id,
	p.machine_id,
	COALESCE(m.slug, ''),
	p.title,
	COALESCE(p.parameters->>'prompt', ''),
	p.media_type,
	p.url,
	p.content_type,
	p.width,
	p.height,
	p.seed,
	p.provider,
	p.model,
	p.parameters,
	p.metadata,
	p.tags,
	p.favorite,
	p.created_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanProduct reads productColumns from s.
func scanProduct(s scanner) (ProductView, error) {
	var (
		view                     ProductView
		id, orderID, itemID, mID uuid.UUID
		params, metadata         []byte
		tags                     pq.StringArray
	)
	dest := []any{
		&id, &orderID, &itemID, &mID,
		&view.MachineSlug,
		&view.Title,
		&view.Prompt,
		&view.MediaType,
		&view.URL,
		&view.ContentType,
		&view.Width,
		&view.Height,
		&view.Seed,
		&view.Provider,
		&view.Model,
		&params,
		&metadata,
		&tags,
		&view.Favorite,
		&view.CreatedAt,
	}
	if err := s.Scan(dest...); err != nil {
		return ProductView{}, err
	}

	var err error
	for _, pair := range []struct {
		dst *kernel.UUID
		src uuid.UUID
	}{{&view.ID, id}, {&view.OrderID, orderID}, {&view.ItemID, itemID}, {&view.MachineID, mID}} {
		if *pair.dst, err = kernel.UUIDFromBytes(pair.src[:]); err != nil {
			return ProductView{}, err
		}
	}
	if view.Parameters, err = decodeParameters(params); err != nil {
		return ProductView{}, err
	}
	if view.Metadata, err = decodeMetadata(metadata); err != nil {
		return ProductView{}, err
	}
	view.Tags = append([]string{}, tags...)
	return view, nil
}
