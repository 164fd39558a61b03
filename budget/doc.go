// Package budget truncates ranked result lists to a caller-specified token
// budget.
//
// Token counts come from an exact tokenizer when one is configured, or from
// a character-based heuristic otherwise. The limiter accepts results
// greedily in rank order and guarantees the returned list never exceeds the
// budget in aggregate. When sentence preservation is requested, a result
// that would overflow the budget may be truncated to the largest prefix
// ending at a sentence boundary that still fits.
package budget
