//go:build floatsafe

package snowflake

// TotalBits is the bit budget available to a layout. The "floatsafe" build
// caps it at 52 bits so the largest producible ID stays below 2^53, the
// exact-integer ceiling of an IEEE 754 float64. Use this mode when IDs pass
// through systems that store numbers as doubles (JavaScript, some JSON
// pipelines) and the string encodings are not an option.
const TotalBits = 52

// FloatSafe reports which bit budget this binary was built with.
const FloatSafe = true
