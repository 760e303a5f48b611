package order

import (
	"fmt"
	"strings"

	"artfactory/internal/pkg/errs"
)

// Status is the lifecycle state of an order, derived from its items.
type Status int

const (
	// Unknown catches uninitialised values.
	Unknown Status = iota

	// Pending: no item has been claimed yet.
	Pending

	// Processing: some items are running or done while others still wait.
	Processing

	// Completed: every item produced its media.
	Completed

	// PartiallyCompleted: every item finished, some failed.
	PartiallyCompleted

	// Failed: every item finished and none succeeded.
	Failed

	// Cancelled: the order was cancelled before all items ran.
	Cancelled
)

var statusNames = map[Status]string{
	Pending:            "pending",
	Processing:         "processing",
	Completed:          "completed",
	PartiallyCompleted: "partially_completed",
	Failed:             "failed",
	Cancelled:          "cancelled",
}

// Validate rejects Unknown and out-of-range values, e.g. when restoring from the database.
func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// IsFinal reports whether no further item work is expected.
func (s Status) IsFinal() bool {
	return s == Completed || s == PartiallyCompleted || s == Failed || s == Cancelled
}

// ParseStatus maps an API name ("pending", "partially_completed", ...) to a Status.
func ParseStatus(name string) (Status, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", name))
}

// deriveStatus computes the order status from its item statuses.
func deriveStatus(items []*Item) Status {
	var pending, processing, completed, failed, cancelled int
	for _, it := range items {
		switch it.Status() {
		case ItemPending:
			pending++
		case ItemProcessing:
			processing++
		case ItemCompleted:
			completed++
		case ItemFailed:
			failed++
		case ItemCancelled:
			cancelled++
		}
	}

	switch {
	case len(items) == 0:
		return Unknown
	case pending == len(items):
		return Pending
	case pending > 0 || processing > 0:
		return Processing
	case cancelled > 0:
		return Cancelled
	case completed == len(items):
		return Completed
	case completed > 0:
		return PartiallyCompleted
	default:
		return Failed
	}
}
