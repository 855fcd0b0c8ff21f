// Package snowflake - encoding.go implements the base32/base58/base62/hex
// codecs behind the ID string forms.
//
// Decoding goes through 256-byte lookup tables built once at init, so
// character mapping is O(1) and invalid input is caught in the same pass.
// Power-of-two bases (32, 16) encode with shifts instead of division.
//
// The encoders represent non-negative values only. Input at or below zero
// clamps to the alphabet's zero digit; generation never produces a negative
// ID, so the clamp is a backstop rather than a reachable code path.

package snowflake

import "errors"

// Maximum encoded lengths for an int64, used to reject oversized input
// before doing any work.
const (
	maxBase32Len = 13 // ceil(64/5)
	maxBase58Len = 11
	maxBase62Len = 11
	maxHexLen    = 16 // ceil(64/4)
)

// Decoding errors.
var (
	ErrInvalidBase2    = errors.New("invalid base2 encoding")
	ErrInvalidBase32   = errors.New("invalid base32 encoding")
	ErrInvalidBase36   = errors.New("invalid base36 encoding")
	ErrInvalidBase58   = errors.New("invalid base58 encoding")
	ErrInvalidBase62   = errors.New("invalid base62 encoding")
	ErrInvalidBase64   = errors.New("invalid base64 encoding")
	ErrInvalidHex      = errors.New("invalid hexadecimal encoding")
	ErrStringTooLong   = errors.New("encoded string exceeds maximum length")
	ErrIntegerOverflow = errors.New("decoded value would overflow int64")
)

// Alphabets. z-base-32 and the Bitcoin base58 set both drop the characters
// humans confuse (0/O, 1/I/l).
const (
	base32Alphabet = "ybndrfg8ejkmcpqxot1uwisza345h769"
	base58Alphabet = "123456789abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	hexAlphabet    = "0123456789abcdef"
)

// Reverse lookup tables; 0xFF marks an invalid byte. Filled at init and
// read-only afterwards, so concurrent use needs no synchronization.
var (
	base32Reverse [256]byte
	base58Reverse [256]byte
	base62Reverse [256]byte
	hexReverse    [256]byte
)

func init() {
	for i := range base32Reverse {
		base32Reverse[i] = 0xFF
		base58Reverse[i] = 0xFF
		base62Reverse[i] = 0xFF
		hexReverse[i] = 0xFF
	}
	for i := 0; i < len(base32Alphabet); i++ {
		base32Reverse[base32Alphabet[i]] = byte(i)
	}
	for i := 0; i < len(base58Alphabet); i++ {
		base58Reverse[base58Alphabet[i]] = byte(i)
	}
	for i := 0; i < len(base62Alphabet); i++ {
		base62Reverse[base62Alphabet[i]] = byte(i)
	}
	for i := 0; i < len(hexAlphabet); i++ {
		hexReverse[hexAlphabet[i]] = byte(i)
		if c := hexAlphabet[i]; c >= 'a' && c <= 'f' {
			hexReverse[c-32] = byte(i) // uppercase
		}
	}
}

// reverseBytes flips b in place.
func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func encodeBase32(id int64) string {
	if id <= 0 {
		return string(base32Alphabet[0])
	}
	b := make([]byte, 0, maxBase32Len)
	for id > 0 {
		b = append(b, base32Alphabet[id&0x1F])
		id >>= 5
	}
	reverseBytes(b)
	return string(b)
}

func decodeBase32(s string) (int64, error) {
	if len(s) > maxBase32Len {
		return -1, ErrStringTooLong
	}
	const maxBeforeShift = (1<<63 - 1) >> 5
	var id int64
	for i := 0; i < len(s); i++ {
		v := base32Reverse[s[i]]
		if v == 0xFF {
			return -1, ErrInvalidBase32
		}
		if id > maxBeforeShift {
			return -1, ErrIntegerOverflow
		}
		id = id<<5 + int64(v)
	}
	return id, nil
}

func encodeBase58(id int64) string {
	if id <= 0 {
		return string(base58Alphabet[0])
	}
	b := make([]byte, 0, maxBase58Len)
	for id > 0 {
		b = append(b, base58Alphabet[id%58])
		id /= 58
	}
	reverseBytes(b)
	return string(b)
}

func decodeBase58(s string) (int64, error) {
	if len(s) > maxBase58Len {
		return -1, ErrStringTooLong
	}
	const maxBeforeMul = (1<<63 - 1) / 58
	var id int64
	for i := 0; i < len(s); i++ {
		v := base58Reverse[s[i]]
		if v == 0xFF {
			return -1, ErrInvalidBase58
		}
		if id > maxBeforeMul {
			return -1, ErrIntegerOverflow
		}
		id = id*58 + int64(v)
		if id < 0 {
			return -1, ErrIntegerOverflow
		}
	}
	return id, nil
}

func encodeBase62(id int64) string {
	if id <= 0 {
		return string(base62Alphabet[0])
	}
	b := make([]byte, 0, maxBase62Len)
	for id > 0 {
		b = append(b, base62Alphabet[id%62])
		id /= 62
	}
	reverseBytes(b)
	return string(b)
}

func decodeBase62(s string) (int64, error) {
	if len(s) > maxBase62Len {
		return -1, ErrStringTooLong
	}
	const maxBeforeMul = (1<<63 - 1) / 62
	var id int64
	for i := 0; i < len(s); i++ {
		v := base62Reverse[s[i]]
		if v == 0xFF {
			return -1, ErrInvalidBase62
		}
		if id > maxBeforeMul {
			return -1, ErrIntegerOverflow
		}
		id = id*62 + int64(v)
		if id < 0 {
			return -1, ErrIntegerOverflow
		}
	}
	return id, nil
}

func encodeHex(id int64) string {
	if id <= 0 {
		return "0"
	}
	b := make([]byte, 0, maxHexLen)
	for id > 0 {
		b = append(b, hexAlphabet[id&0x0F])
		id >>= 4
	}
	reverseBytes(b)
	return string(b)
}

func decodeHex(s string) (int64, error) {
	if len(s) > maxHexLen {
		return -1, ErrStringTooLong
	}
	const maxBeforeShift = (1<<63 - 1) >> 4
	var id int64
	for i := 0; i < len(s); i++ {
		v := hexReverse[s[i]]
		if v == 0xFF {
			return -1, ErrInvalidHex
		}
		if id > maxBeforeShift {
			return -1, ErrIntegerOverflow
		}
		id = id<<4 + int64(v)
	}
	return id, nil
}
