// Package product models generated media artifacts shown in the gallery.
//
// A Product is created by a worker for every output a factory machine returns.
// It records where the media lives, how it was produced (provider, model,
// parameters, seed) and the curation state users control: title, tags and
// the favorite flag.
package product
