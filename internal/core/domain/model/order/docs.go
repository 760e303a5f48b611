// Package order implements the Order aggregate: a user request for generated
// media, split into order items that workers process one at a time.
//
// The package includes:
//   - Order: the aggregate root owning its items and a status derived from them
//   - Item: one unit of generation work bound to a factory machine definition
//   - Status and ItemStatus: state machines guarding every transition
//
// Item lifecycle:
//
//	Pending ──claim──> Processing ──complete──> Completed
//	   ^  │                │
//	   │  cancel           ├──fail (attempts left)──> Pending
//	   │  v                └──fail (exhausted)──────> Failed ──retry──┐
//	Cancelled                                                         │
//	   ^─────────────────────────────────────────────────────────────-┘ (back to Pending)
//
// The order status is recomputed from the items after every item transition,
// so it never needs to be set directly.
package order
