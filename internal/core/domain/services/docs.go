// Package services provides domain services that span more than one aggregate.
//
// The package includes:
//   - OrderPlanner: turns item requests into order item specs by resolving each
//     request against its factory machine definition
//
// Domain services hold no state and perform no I/O; callers load the
// aggregates and persist the results.
package services
