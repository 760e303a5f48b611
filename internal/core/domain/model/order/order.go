package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"artfactory/internal/core/domain/model/kernel"
	"artfactory/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

const (
	MaxItems       = 32
	maxTitleLength = 200

	// AnonymousRequester is recorded when an order is placed without authentication.
	AnonymousRequester = "anonymous"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrInvalidTransition is returned when an item or order cannot move to the requested state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrItemNotClaimedByWorker is returned when a worker reports on an item it no
	// longer holds, e.g. after the foreman requeued it.
	ErrItemNotClaimedByWorker = errors.New("item is not claimed by this worker")

	ErrNothingToCancel = fmt.Errorf("%w: order has no pending items", ErrInvalidTransition)
	ErrNothingToRetry  = fmt.Errorf("%w: order has no failed items", ErrInvalidTransition)
)

// Order is the aggregate root for a request of generated media.
//
// Order follows these invariants:
//   - Holds between 1 and MaxItems items
//   - Title is required and at most 200 characters
//   - Status always equals the status derived from the items
//   - Items change only through Order methods, which refresh the status
type Order struct {
	id          kernel.UUID
	title       string
	prompt      string
	requestedBy string
	status      Status
	items       []*Item
	createdAt   time.Time
	updatedAt   time.Time

	isConstructed bool
}

// NewOrder creates a pending order with one item per spec.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), "Lighthouse series", "a lighthouse at dusk", "alice",
//	    []order.ItemSpec{{MachineID: flux.ID(), Prompt: "a lighthouse at dusk", Parameters: params, Cost: flux.CostPerRun()}},
//	    time.Now())
func NewOrder(
	id kernel.UUID,
	title, prompt, requestedBy string,
	specs []ItemSpec,
	now time.Time,
) (*Order, error) {
	o := &Order{
		id:            id,
		prompt:        strings.TrimSpace(prompt),
		requestedBy:   strings.TrimSpace(requestedBy),
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}
	if o.requestedBy == "" {
		o.requestedBy = AnonymousRequester
	}

	if err := errors.Join(
		id.Validate(),
		o.setTitle(title),
		validateItemCount(len(specs)),
	); err != nil {
		return nil, err
	}

	var problems []error
	for i, spec := range specs {
		item, err := newItem(id, i, spec, now)
		if err != nil {
			problems = append(problems, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		o.items = append(o.items, item)
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}

	o.status = deriveStatus(o.items)
	return o, nil
}

// RestoreOrder rebuilds an order from persistence. Items must be ordered by position.
func RestoreOrder(
	id kernel.UUID,
	title, prompt, requestedBy string,
	status Status,
	items []*Item,
	createdAt, updatedAt time.Time,
) (*Order, error) {
	o := &Order{
		id:            id,
		prompt:        prompt,
		requestedBy:   requestedBy,
		status:        status,
		items:         items,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		isConstructed: true,
	}

	if err := errors.Join(
		id.Validate(),
		o.setTitle(title),
		status.Validate(),
		validateItemCount(len(items)),
	); err != nil {
		return nil, err
	}

	for _, it := range items {
		if !it.OrderID().IsEqual(id) {
			return nil, errs.NewValueIsInvalidErrorWithCause("item",
				fmt.Errorf("item %s belongs to order %s", it.ID(), it.OrderID()))
		}
	}
	return o, nil
}

func validateItemCount(n int) error {
	if n < 1 || n > MaxItems {
		return errs.NewValueIsOutOfRangeError("items", n, 1, MaxItems)
	}
	return nil
}

func (o *Order) setTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errs.NewValueIsRequiredError("title")
	}
	if n := utf8.RuneCountInString(title); n > maxTitleLength {
		return errs.NewValueIsOutOfRangeError("title length", n, 1, maxTitleLength)
	}
	o.title = title
	return nil
}

// Validate ensures the order was created through a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) ID() kernel.UUID      { return o.id }
func (o *Order) Title() string        { return o.title }
func (o *Order) Prompt() string       { return o.prompt }
func (o *Order) RequestedBy() string  { return o.requestedBy }
func (o *Order) Status() Status       { return o.status }
func (o *Order) CreatedAt() time.Time { return o.createdAt }
func (o *Order) UpdatedAt() time.Time { return o.updatedAt }

// Items returns the items in position order. The slice is a copy; the items are not.
func (o *Order) Items() []*Item {
	items := make([]*Item, len(o.items))
	copy(items, o.items)
	return items
}

// Item returns the item with the given id.
func (o *Order) Item(id kernel.UUID) (*Item, error) {
	for _, it := range o.items {
		if it.ID().IsEqual(id) {
			return it, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("order item", id.String())
}

// TotalCost sums the cost of every item that was not cancelled.
func (o *Order) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.items {
		if it.Status() != ItemCancelled {
			total = total.Add(it.Cost())
		}
	}
	return total
}

// ChangedItems returns items modified since construction, restore or ClearChanges.
func (o *Order) ChangedItems() []*Item {
	var changed []*Item
	for _, it := range o.items {
		if it.dirty {
			changed = append(changed, it)
		}
	}
	return changed
}

// ClearChanges is called by repositories once changes are persisted.
func (o *Order) ClearChanges() {
	for _, it := range o.items {
		it.dirty = false
	}
}

// ClaimItem marks a pending item as being processed by workerID.
func (o *Order) ClaimItem(itemID kernel.UUID, workerID string, now time.Time) (*Item, error) {
	return o.mutateItem(itemID, now, func(it *Item) error {
		return it.claim(workerID, now)
	})
}

// CompleteItem marks the item as done. Only the claiming worker may complete it.
func (o *Order) CompleteItem(itemID kernel.UUID, workerID string, now time.Time) (*Item, error) {
	return o.mutateItem(itemID, now, func(it *Item) error {
		return it.complete(workerID, now)
	})
}

// FailItem records a failed attempt by workerID. The item goes back to Pending
// while attempts remain, otherwise it becomes Failed.
func (o *Order) FailItem(itemID kernel.UUID, workerID, cause string, now time.Time, maxAttempts int) (*Item, error) {
	return o.mutateItem(itemID, now, func(it *Item) error {
		if err := it.ensureClaimedBy(workerID); err != nil {
			return err
		}
		return it.fail(cause, now, maxAttempts)
	})
}

// RequeueItem takes a processing item away from its (presumably dead) worker.
// Exhausted items become Failed, as with FailItem.
func (o *Order) RequeueItem(itemID kernel.UUID, reason string, now time.Time, maxAttempts int) (*Item, error) {
	return o.mutateItem(itemID, now, func(it *Item) error {
		return it.fail(reason, now, maxAttempts)
	})
}

// Cancel cancels every pending item. Items already processing run to completion.
func (o *Order) Cancel(now time.Time) error {
	cancelled := 0
	for _, it := range o.items {
		if it.Status() == ItemPending {
			if err := it.cancel(now); err != nil {
				return err
			}
			cancelled++
		}
	}
	if cancelled == 0 {
		return ErrNothingToCancel
	}
	o.refresh(now)
	return nil
}

// RetryFailed moves every failed item back to Pending with a fresh attempt budget.
func (o *Order) RetryFailed(now time.Time) (int, error) {
	retried := 0
	for _, it := range o.items {
		if it.Status() == ItemFailed {
			if err := it.retry(); err != nil {
				return retried, err
			}
			retried++
		}
	}
	if retried == 0 {
		return 0, ErrNothingToRetry
	}
	o.refresh(now)
	return retried, nil
}

func (o *Order) mutateItem(itemID kernel.UUID, now time.Time, mutate func(*Item) error) (*Item, error) {
	it, err := o.Item(itemID)
	if err != nil {
		return nil, err
	}
	if err = mutate(it); err != nil {
		return nil, err
	}
	o.refresh(now)
	return it, nil
}

func (o *Order) refresh(now time.Time) {
	o.status = deriveStatus(o.items)
	o.updatedAt = now
}
