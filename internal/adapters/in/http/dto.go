package http

import (
	"time"

	"artfactory/internal/core/application/usecases/queries"
	"artfactory/internal/core/domain/model/kernel"
)

type NewOrderItem struct {
	Machine    string         `json:"machine"`
	Prompt     string         `json:"prompt"`
	Parameters map[string]any `json:"parameters"`
	Quantity   int            `json:"quantity"`
}

type NewOrder struct {
	Title       string         `json:"title"`
	Prompt      string         `json:"prompt"`
	RequestedBy string         `json:"requested_by"`
	Items       []NewOrderItem `json:"items"`
}

type OrderItem struct {
	ID          string         `json:"id"`
	Position    int            `json:"position"`
	MachineID   string         `json:"machine_id"`
	MachineSlug string         `json:"machine_slug,omitempty"`
	MachineName string         `json:"machine_name,omitempty"`
	Prompt      string         `json:"prompt"`
	Parameters  map[string]any `json:"parameters"`
	Cost        string         `json:"cost"`
	Status      string         `json:"status"`
	Attempts    int            `json:"attempts"`
	LastError   string         `json:"last_error,omitempty"`
	WorkerID    string         `json:"worker_id,omitempty"`
	ClaimedAt   *time.Time     `json:"claimed_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
	ProductIDs  []string       `json:"product_ids"`
}

type Order struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Prompt      string      `json:"prompt"`
	RequestedBy string      `json:"requested_by,omitempty"`
	Status      string      `json:"status"`
	TotalCost   string      `json:"total_cost"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Items       []OrderItem `json:"items"`
}

type OrderSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	RequestedBy string    `json:"requested_by,omitempty"`
	Status      string    `json:"status"`
	Items       int       `json:"items"`
	Pending     int       `json:"pending"`
	Processing  int       `json:"processing"`
	Completed   int       `json:"completed"`
	Failed      int       `json:"failed"`
	Cancelled   int       `json:"cancelled"`
	TotalCost   string    `json:"total_cost"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type OrderPage struct {
	Orders []OrderSummary `json:"orders"`
	Total  int            `json:"total"`
}

type Product struct {
	ID          string            `json:"id"`
	OrderID     string            `json:"order_id"`
	ItemID      string            `json:"item_id"`
	MachineID   string            `json:"machine_id"`
	MachineSlug string            `json:"machine_slug,omitempty"`
	Title       string            `json:"title"`
	Prompt      string            `json:"prompt"`
	MediaType   string            `json:"media_type"`
	URL         string            `json:"url"`
	ContentType string            `json:"content_type,omitempty"`
	Width       int               `json:"width,omitempty"`
	Height      int               `json:"height,omitempty"`
	Seed        *int64            `json:"seed,omitempty"`
	Provider    string            `json:"provider"`
	Model       string            `json:"model"`
	Parameters  map[string]any    `json:"parameters"`
	Metadata    map[string]string `json:"metadata"`
	Tags        []string          `json:"tags"`
	Favorite    bool              `json:"favorite"`
	CreatedAt   time.Time         `json:"created_at"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type ProductPatch struct {
	Title    *string   `json:"title"`
	Tags     *[]string `json:"tags"`
	Favorite *bool     `json:"favorite"`
}

type Favorite struct {
	Favorite bool `json:"favorite"`
}

type MachineInput struct {
	Slug              string             `json:"slug"`
	Name              string             `json:"name"`
	Provider          string             `json:"provider"`
	Model             string             `json:"model"`
	MediaType         string             `json:"media_type"`
	CostPerRun        string             `json:"cost_per_run"`
	DefaultParameters map[string]any     `json:"default_parameters"`
	Rules             []queries.RuleView `json:"rules"`
}

type Machine struct {
	ID                string             `json:"id"`
	Slug              string             `json:"slug"`
	Name              string             `json:"name"`
	Provider          string             `json:"provider"`
	Model             string             `json:"model"`
	MediaType         string             `json:"media_type"`
	CostPerRun        string             `json:"cost_per_run"`
	DefaultParameters map[string]any     `json:"default_parameters"`
	Rules             []queries.RuleView `json:"rules"`
	EffectiveRules    []queries.RuleView `json:"effective_rules,omitempty"`
	Active            bool               `json:"active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type ValidateParameters struct {
	Parameters map[string]any `json:"parameters"`
}

type Validation struct {
	Valid    bool           `json:"valid"`
	Resolved map[string]any `json:"resolved,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}

type Worker struct {
	WorkerID    string    `json:"worker_id"`
	Name        string    `json:"name"`
	State       string    `json:"state"`
	Health      string    `json:"health"`
	CurrentItem string    `json:"current_item,omitempty"`
	Processed   int64     `json:"processed"`
	Failed      int64     `json:"failed"`
	StartedAt   time.Time `json:"started_at"`
	LastSeen    time.Time `json:"last_seen"`
	AgeSeconds  float64   `json:"age_seconds"`
}

type Workers struct {
	Workers []Worker `json:"workers"`
	Healthy int      `json:"healthy"`
	Stale   int      `json:"stale"`
}

func ids(in []kernel.UUID) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, id.String())
	}
	return out
}

func toOrder(v queries.GetOrderQueryResponse) Order {
	items := make([]OrderItem, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, OrderItem{
			ID:          it.ID.String(),
			Position:    it.Position,
			MachineID:   it.MachineID.String(),
			MachineSlug: it.MachineSlug,
			MachineName: it.MachineName,
			Prompt:      it.Prompt,
			Parameters:  it.Parameters,
			Cost:        it.Cost.String(),
			Status:      it.Status,
			Attempts:    it.Attempts,
			LastError:   it.LastError,
			WorkerID:    it.WorkerID,
			ClaimedAt:   it.ClaimedAt,
			FinishedAt:  it.FinishedAt,
			ProductIDs:  ids(it.ProductIDs),
		})
	}
	return Order{
		ID:          v.ID.String(),
		Title:       v.Title,
		Prompt:      v.Prompt,
		RequestedBy: v.RequestedBy,
		Status:      v.Status,
		TotalCost:   v.TotalCost.String(),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
		Items:       items,
	}
}

func toOrderSummary(v queries.OrderSummary) OrderSummary {
	return OrderSummary{
		ID:          v.ID.String(),
		Title:       v.Title,
		RequestedBy: v.RequestedBy,
		Status:      v.Status,
		Items:       v.Items,
		Pending:     v.Pending,
		Processing:  v.Processing,
		Completed:   v.Completed,
		Failed:      v.Failed,
		Cancelled:   v.Cancelled,
		TotalCost:   v.TotalCost.String(),
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

func toProduct(v queries.ProductView) Product {
	tags := v.Tags
	if tags == nil {
		tags = []string{}
	}
	return Product{
		ID:          v.ID.String(),
		OrderID:     v.OrderID.String(),
		ItemID:      v.ItemID.String(),
		MachineID:   v.MachineID.String(),
		MachineSlug: v.MachineSlug,
		Title:       v.Title,
		Prompt:      v.Prompt,
		MediaType:   v.MediaType,
		URL:         v.URL,
		ContentType: v.ContentType,
		Width:       v.Width,
		Height:      v.Height,
		Seed:        v.Seed,
		Provider:    v.Provider,
		Model:       v.Model,
		Parameters:  v.Parameters,
		Metadata:    v.Metadata,
		Tags:        tags,
		Favorite:    v.Favorite,
		CreatedAt:   v.CreatedAt,
	}
}

func toMachine(v queries.MachineView) Machine {
	return Machine{
		ID:                v.ID.String(),
		Slug:              v.Slug,
		Name:              v.Name,
		Provider:          v.Provider,
		Model:             v.Model,
		MediaType:         v.MediaType,
		CostPerRun:        v.CostPerRun.String(),
		DefaultParameters: v.DefaultParameters,
		Rules:             v.Rules,
		EffectiveRules:    v.EffectiveRules,
		Active:            v.Active,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func toWorkers(v queries.GetWorkersQueryResponse) Workers {
	workers := make([]Worker, 0, len(v.Workers))
	for _, w := range v.Workers {
		workers = append(workers, Worker{
			WorkerID:    w.WorkerID,
			Name:        w.Name,
			State:       w.State,
			Health:      w.Health,
			CurrentItem: w.CurrentItem,
			Processed:   w.Processed,
			Failed:      w.Failed,
			StartedAt:   w.StartedAt,
			LastSeen:    w.LastSeen,
			AgeSeconds:  w.Age.Seconds(),
		})
	}
	return Workers{Workers: workers, Healthy: v.Healthy, Stale: v.Stale}
}
