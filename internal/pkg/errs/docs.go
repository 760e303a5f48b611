// Package errs provides the typed errors shared by every layer of Art Factory.
//
// Each error type pairs a sentinel (ErrObjectNotFound, ErrValueIsInvalid, ...)
// with a struct carrying the offending parameter and an optional cause.
// Unwrap returns the sentinel, so callers classify errors with errors.Is and
// the HTTP adapter maps them to status codes without knowing the concrete type.
package errs
