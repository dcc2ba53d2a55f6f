// Package weather turns a weather reading into one of six discrete labels
// that gate garment eligibility. Lookups go through the Lookup interface; the
// Resolver bounds each lookup with a timeout and degrades to Mild on any
// failure instead of returning an error.
package weather
