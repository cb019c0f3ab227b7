// Package batch runs many conversions on a bounded worker pool.
//
// Each input gets exactly one Result, reported in input order. A failed
// conversion never stops the batch. Inputs that map to the same output
// path are serialised so two workers never write one file at once. An
// optional Gate can hold conversions back before they start.
package batch
