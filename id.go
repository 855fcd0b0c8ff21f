// Package snowflake - id.go provides the strongly-typed ID with encodings,
// marshaling, database integration, and component inspection.

package snowflake

import (
	"database/sql/driver"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strconv"
	"time"
)

// ID is a snowflake identifier.
//
// Wrapping int64 in a named type keeps IDs from mixing with ordinary
// integers and hangs the encoding and inspection methods off the value. The
// type implements json.Marshaler (string form, so JavaScript clients never
// lose precision past 2^53), encoding.TextMarshaler, encoding.BinaryMarshaler,
// sql.Scanner, driver.Valuer, and fmt.Stringer.
//
// Component accessors without a layout argument assume LayoutDefault and the
// package Epoch; use the WithLayout variants for anything else.
type ID int64

// Int64 returns the ID as a raw int64.
func (id ID) Int64() int64 {
	return int64(id)
}

// Uint64 returns the ID as a uint64.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// String returns the decimal representation; implements fmt.Stringer.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Base2 returns the binary string form. Mostly useful for eyeballing the
// bit layout while debugging.
func (id ID) Base2() string {
	return strconv.FormatInt(int64(id), 2)
}

// Base32 returns the z-base-32 form: case-insensitive and free of the
// characters people misread (0/O, 1/I/l).
func (id ID) Base32() string {
	return encodeBase32(int64(id))
}

// Base36 returns the base36 form (0-9, a-z).
func (id ID) Base36() string {
	return strconv.FormatInt(int64(id), 36)
}

// Base58 returns the Bitcoin-alphabet form, for contexts where copy-paste
// accuracy matters.
func (id ID) Base58() string {
	return encodeBase58(int64(id))
}

// Base62 returns the URL-safe alphanumeric form (~11 chars). The right
// choice for REST resource IDs and short links.
func (id ID) Base62() string {
	return encodeBase62(int64(id))
}

// Base64 returns the standard base64 encoding of the decimal string.
func (id ID) Base64() string {
	return base64.StdEncoding.EncodeToString(id.Bytes())
}

// Hex returns the lowercase hexadecimal form.
func (id ID) Hex() string {
	return encodeHex(int64(id))
}

// Bytes returns the decimal string form as bytes. For the fixed-width binary
// form use IntBytes.
func (id ID) Bytes() []byte {
	return []byte(id.String())
}

// IntBytes returns the ID as 8 big-endian bytes, the natural representation
// for binary protocols and ordered key encodings.
func (id ID) IntBytes() [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(id))
	return b
}

// MarshalBinary implements encoding.BinaryMarshaler (8 bytes, big-endian).
func (id ID) MarshalBinary() ([]byte, error) {
	b := id.IntBytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *ID) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return fmt.Errorf("snowflake: invalid binary length %d, want 8", len(data))
	}
	*id = ID(binary.BigEndian.Uint64(data))
	return nil
}

// MarshalJSON implements json.Marshaler. IDs marshal as JSON strings, not
// numbers: a float64-backed JSON reader silently corrupts integers past
// 2^53, and most snowflake IDs are past it.
func (id ID) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, id.String()), nil
}

// UnmarshalJSON implements json.Unmarshaler, accepting both the string and
// the bare-number form.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("snowflake: invalid ID %q: %w", data, err)
	}
	*id = ID(i)
	return nil
}

// MarshalText implements encoding.TextMarshaler (decimal form), used by
// YAML, TOML, and XML encoders.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	i, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return err
	}
	*id = ID(i)
	return nil
}

// Scan implements sql.Scanner so IDs read directly from BIGINT, VARCHAR, or
// TEXT columns. nil scans to zero.
func (id *ID) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*id = 0
	case int64:
		*id = ID(v)
	case []byte:
		i, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return err
		}
		*id = ID(i)
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*id = ID(i)
	default:
		return fmt.Errorf("snowflake: cannot scan %T into ID", value)
	}
	return nil
}

// Value implements driver.Valuer, storing the ID as int64 for BIGINT
// columns.
func (id ID) Value() (driver.Value, error) {
	return int64(id), nil
}

// ParseString parses a decimal string into an ID.
func ParseString(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase2 parses a binary string into an ID.
func ParseBase2(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 2, 64)
	if err != nil {
		return 0, ErrInvalidBase2
	}
	return ID(i), nil
}

// ParseBase32 parses a z-base-32 string into an ID.
func ParseBase32(s string) (ID, error) {
	i, err := decodeBase32(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase36 parses a base36 string into an ID.
func ParseBase36(s string) (ID, error) {
	i, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, ErrInvalidBase36
	}
	return ID(i), nil
}

// ParseBase58 parses a Bitcoin-alphabet base58 string into an ID.
func ParseBase58(s string) (ID, error) {
	i, err := decodeBase58(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase62 parses a URL-safe base62 string into an ID.
func ParseBase62(s string) (ID, error) {
	i, err := decodeBase62(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseBase64 parses a standard base64 string into an ID.
func ParseBase64(s string) (ID, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return 0, ErrInvalidBase64
	}
	return ParseString(string(b))
}

// ParseHex parses a hexadecimal string (either case) into an ID.
func ParseHex(s string) (ID, error) {
	i, err := decodeHex(s)
	if err != nil {
		return 0, err
	}
	return ID(i), nil
}

// ParseIntBytes parses 8 big-endian bytes into an ID.
func ParseIntBytes(b [8]byte) ID {
	return ID(binary.BigEndian.Uint64(b[:]))
}

// Time returns the creation time, assuming the default layout and epoch.
func (id ID) Time() time.Time {
	return time.UnixMilli(id.Timestamp())
}

// TimeWithLayout returns the creation time for an ID packed with the given
// layout and epoch.
func (id ID) TimeWithLayout(layout BitLayout, epoch int64) time.Time {
	ts, _, _ := layout.Decompose(int64(id))
	return time.UnixMilli(ts + epoch)
}

// Timestamp returns milliseconds since the Unix epoch, assuming the default
// layout and epoch.
func (id ID) Timestamp() int64 {
	return (int64(id) >> TimestampShift) + Epoch
}

// Worker returns the worker ID component, assuming the default layout.
func (id ID) Worker() int64 {
	return (int64(id) >> WorkerIDShift) & MaxWorkerID
}

// Sequence returns the sequence component, assuming the default layout.
func (id ID) Sequence() int64 {
	return int64(id) & MaxSequence
}

// Components returns all three components, assuming the default layout and
// epoch. The timestamp is absolute milliseconds since the Unix epoch.
func (id ID) Components() (timestamp, workerID, sequence int64) {
	return ParseIDComponents(int64(id))
}

// ComponentsWithLayout returns all three components for an ID packed with
// the given layout and epoch.
func (id ID) ComponentsWithLayout(layout BitLayout, epoch int64) (timestamp, workerID, sequence int64) {
	timestamp, workerID, sequence = layout.Decompose(int64(id))
	timestamp += epoch
	return
}

// Age returns the time elapsed since the ID was created, assuming the
// default layout and epoch.
func (id ID) Age() time.Duration {
	return time.Since(id.Time())
}

// IsValid reports whether the ID is structurally plausible under the default
// layout: positive, timestamped after the epoch, and no more than a day in
// the future (tolerating clock skew between producer and inspector).
func (id ID) IsValid() bool {
	if id <= 0 {
		return false
	}
	ts := id.Timestamp()
	if ts <= Epoch {
		return false
	}
	if ts > time.Now().UnixMilli()+24*time.Hour.Milliseconds() {
		return false
	}
	return true
}

// Before reports whether id was created before other. Snowflake IDs are
// time-ordered, so this is numeric comparison.
func (id ID) Before(other ID) bool {
	return id < other
}

// After reports whether id was created after other.
func (id ID) After(other ID) bool {
	return id > other
}

// Compare returns -1, 0, or 1 ordering id against other.
func (id ID) Compare(other ID) int {
	switch {
	case id < other:
		return -1
	case id > other:
		return 1
	default:
		return 0
	}
}

// Format renders the ID in the named encoding: "decimal" (default), "hex",
// "binary", "base32", "base36", "base58", "base62", or "base64". Short
// aliases like "b62" work too. Unrecognized names are an error so typos do
// not silently print a decimal value.
func (id ID) Format(format string) (string, error) {
	switch format {
	case "decimal", "dec", "d", "":
		return id.String(), nil
	case "hex", "x":
		return id.Hex(), nil
	case "binary", "bin", "b":
		return id.Base2(), nil
	case "base32", "b32":
		return id.Base32(), nil
	case "base36", "b36":
		return id.Base36(), nil
	case "base58", "b58":
		return id.Base58(), nil
	case "base62", "b62":
		return id.Base62(), nil
	case "base64", "b64":
		return id.Base64(), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
