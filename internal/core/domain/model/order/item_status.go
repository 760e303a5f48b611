package order

import (
	"fmt"
	"strings"

	"artfactory/internal/pkg/errs"
)

// ItemStatus is the lifecycle state of a single order item.
type ItemStatus int

const (
	ItemUnknown ItemStatus = iota
	ItemPending
	ItemProcessing
	ItemCompleted
	ItemFailed
	ItemCancelled
)

var itemStatusNames = map[ItemStatus]string{
	ItemPending:    "pending",
	ItemProcessing: "processing",
	ItemCompleted:  "completed",
	ItemFailed:     "failed",
	ItemCancelled:  "cancelled",
}

func (s ItemStatus) Validate() error {
	if _, ok := itemStatusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("item status is invalid", fmt.Errorf("%d is not a valid item status", s))
	}
	return nil
}

func (s ItemStatus) String() string {
	if name, ok := itemStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseItemStatus maps an API name to an ItemStatus.
func ParseItemStatus(name string) (ItemStatus, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range itemStatusNames {
		if n == name {
			return s, nil
		}
	}
	return ItemUnknown, errs.NewValueIsInvalidErrorWithCause("item status is invalid", fmt.Errorf("%q is not a valid item status", name))
}

// IsTerminal reports whether the item will not be processed again without a manual retry.
func (s ItemStatus) IsTerminal() bool {
	return s == ItemCompleted || s == ItemFailed || s == ItemCancelled
}

// Claim transitions Pending -> Processing.
func (s ItemStatus) Claim() (ItemStatus, error) {
	if s != ItemPending {
		return 0, s.transitionError("claim")
	}
	return ItemProcessing, nil
}

// Complete transitions Processing -> Completed.
func (s ItemStatus) Complete() (ItemStatus, error) {
	if s != ItemProcessing {
		return 0, s.transitionError("complete")
	}
	return ItemCompleted, nil
}

// Release transitions Processing -> Pending so another attempt can be made.
func (s ItemStatus) Release() (ItemStatus, error) {
	if s != ItemProcessing {
		return 0, s.transitionError("release")
	}
	return ItemPending, nil
}

// Fail transitions Processing -> Failed.
func (s ItemStatus) Fail() (ItemStatus, error) {
	if s != ItemProcessing {
		return 0, s.transitionError("fail")
	}
	return ItemFailed, nil
}

// Retry transitions Failed -> Pending.
func (s ItemStatus) Retry() (ItemStatus, error) {
	if s != ItemFailed {
		return 0, s.transitionError("retry")
	}
	return ItemPending, nil
}

// Cancel transitions Pending -> Cancelled.
func (s ItemStatus) Cancel() (ItemStatus, error) {
	if s != ItemPending {
		return 0, s.transitionError("cancel")
	}
	return ItemCancelled, nil
}

func (s ItemStatus) transitionError(action string) error {
	return fmt.Errorf("%w: cannot %s an item in %s status", ErrInvalidTransition, action, s)
}
