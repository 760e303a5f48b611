package order

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const maxErrorLength = 2000

// ItemSpec describes an item to add to a new order. Parameters must already be
// resolved against the machine definition.
type ItemSpec struct {
	MachineID  kernel.UUID
	Prompt     string
	Parameters kernel.Parameters
	Cost       decimal.Decimal
}

// ItemState is the persisted form of an item, used by RestoreItem.
type ItemState struct {
	ID         kernel.UUID
	OrderID    kernel.UUID
	MachineID  kernel.UUID
	Position   int
	Prompt     string
	Parameters kernel.Parameters
	Cost       decimal.Decimal
	Status     ItemStatus
	Attempts   int
	LastError  string
	WorkerID   string
	ClaimedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
}

// Item is one unit of generation work. Items are only mutated through their Order.
type Item struct {
	state ItemState
	dirty bool
}

func newItem(orderID kernel.UUID, position int, spec ItemSpec, now time.Time) (*Item, error) {
	prompt := strings.TrimSpace(spec.Prompt)

	var problems []error
	if err := spec.MachineID.Validate(); err != nil {
		problems = append(problems, err)
	}
	if prompt == "" {
		problems = append(problems, errs.NewValueIsRequiredError("item prompt"))
	}
	if spec.Cost.IsNegative() {
		problems = append(problems, errs.NewValueIsOutOfRangeError("item cost", spec.Cost, 0, "unbounded"))
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}

	return &Item{
		state: ItemState{
			ID:         kernel.NewUUID(),
			OrderID:    orderID,
			MachineID:  spec.MachineID,
			Position:   position,
			Prompt:     prompt,
			Parameters: spec.Parameters,
			Cost:       spec.Cost,
			Status:     ItemPending,
			CreatedAt:  now,
		},
		dirty: true,
	}, nil
}

// RestoreItem rebuilds an item loaded from persistence.
func RestoreItem(state ItemState) (*Item, error) {
	if err := errors.Join(
		state.ID.Validate(),
		state.OrderID.Validate(),
		state.MachineID.Validate(),
		state.Status.Validate(),
	); err != nil {
		return nil, err
	}
	if state.Attempts < 0 {
		return nil, errs.NewValueIsOutOfRangeError("attempts", state.Attempts, 0, "unbounded")
	}
	return &Item{state: state}, nil
}

func (i *Item) ID() kernel.UUID               { return i.state.ID }
func (i *Item) OrderID() kernel.UUID          { return i.state.OrderID }
func (i *Item) MachineID() kernel.UUID        { return i.state.MachineID }
func (i *Item) Position() int                 { return i.state.Position }
func (i *Item) Prompt() string                { return i.state.Prompt }
func (i *Item) Parameters() kernel.Parameters { return i.state.Parameters }
func (i *Item) Cost() decimal.Decimal         { return i.state.Cost }
func (i *Item) Status() ItemStatus            { return i.state.Status }
func (i *Item) Attempts() int                 { return i.state.Attempts }
func (i *Item) LastError() string             { return i.state.LastError }
func (i *Item) WorkerID() string              { return i.state.WorkerID }
func (i *Item) ClaimedAt() *time.Time         { return i.state.ClaimedAt }
func (i *Item) FinishedAt() *time.Time        { return i.state.FinishedAt }
func (i *Item) CreatedAt() time.Time          { return i.state.CreatedAt }

// State returns a copy of the persisted fields.
func (i *Item) State() ItemState {
	return i.state
}

func (i *Item) claim(workerID string, now time.Time) error {
	if strings.TrimSpace(workerID) == "" {
		return errs.NewValueIsRequiredError("worker id")
	}
	next, err := i.state.Status.Claim()
	if err != nil {
		return err
	}
	i.state.Status = next
	i.state.Attempts++
	i.state.WorkerID = workerID
	i.state.ClaimedAt = &now
	i.state.FinishedAt = nil
	i.dirty = true
	return nil
}

func (i *Item) complete(workerID string, now time.Time) error {
	if err := i.ensureClaimedBy(workerID); err != nil {
		return err
	}
	next, err := i.state.Status.Complete()
	if err != nil {
		return err
	}
	i.state.Status = next
	i.state.LastError = ""
	i.state.FinishedAt = &now
	i.dirty = true
	return nil
}

// fail records cause and either releases the item for another attempt or
// marks it Failed once maxAttempts is reached.
func (i *Item) fail(cause string, now time.Time, maxAttempts int) error {
	if i.state.Attempts < maxAttempts {
		next, err := i.state.Status.Release()
		if err != nil {
			return err
		}
		i.state.Status = next
		i.state.WorkerID = ""
		i.state.ClaimedAt = nil
	} else {
		next, err := i.state.Status.Fail()
		if err != nil {
			return err
		}
		i.state.Status = next
		i.state.FinishedAt = &now
	}
	i.state.LastError = truncate(cause)
	i.dirty = true
	return nil
}

func (i *Item) retry() error {
	next, err := i.state.Status.Retry()
	if err != nil {
		return err
	}
	i.state.Status = next
	i.state.Attempts = 0
	i.state.LastError = ""
	i.state.WorkerID = ""
	i.state.ClaimedAt = nil
	i.state.FinishedAt = nil
	i.dirty = true
	return nil
}

func (i *Item) cancel(now time.Time) error {
	next, err := i.state.Status.Cancel()
	if err != nil {
		return err
	}
	i.state.Status = next
	i.state.FinishedAt = &now
	i.dirty = true
	return nil
}

func (i *Item) ensureClaimedBy(workerID string) error {
	if i.state.Status != ItemProcessing || i.state.WorkerID != workerID {
		return ErrItemNotClaimedByWorker
	}
	return nil
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxErrorLength {
		return s
	}
	return string([]rune(s)[:maxErrorLength])
}
