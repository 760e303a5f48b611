// Package kernel holds the value objects shared by every Art Factory aggregate.
//
// The package includes:
//   - UUID: identifier of orders, items, products and machine definitions
//   - Parameters: an immutable bag of generation parameters sent to providers
//   - MediaType: the kind of artifact a factory machine produces
//
// All values are immutable once constructed and safe for concurrent use.
package kernel
