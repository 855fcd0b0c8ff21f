//go:build !floatsafe

package snowflake

// TotalBits is the bit budget available to a layout. The default build uses
// the full 63 usable bits of an int64; bit 63 stays zero so IDs are always
// positive and sort correctly as signed integers.
//
// Building with the "floatsafe" tag shrinks the budget to 52 bits so that
// every ID fits in the exact-integer range of an IEEE 754 float64
// (<= 2^53 - 1). Pick the mode once at build time; IDs produced under
// different budgets are not interchangeable.
const TotalBits = 63

// FloatSafe reports which bit budget this binary was built with.
const FloatSafe = false
