package shortener

import (
	"crypto/sha256"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/jaevor/go-nanoid"
)

// Alphabet is the short code character set: ASCII letters and digits without the visually
// ambiguous 0, O, l and I.
const Alphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ123456789"

const (
	// DefaultCodeLength is the length of a hash-derived code on the first attempt.
	DefaultCodeLength = 7

	maxRandomDraws = 1000
	// minRandomLength is the shortest code the nanoid generator accepts.
	minRandomLength = 2
)

var (
	base      = uint64(len(Alphabet))
	bigBase   = big.NewInt(int64(len(Alphabet)))
	charIndex = buildCharIndex()
)

func buildCharIndex() [256]int {
	var idx [256]int
	for i := range idx {
		idx[i] = -1
	}

	for i := range len(Alphabet) {
		idx[Alphabet[i]] = i
	}

	return idx
}

// Encode returns the base-58 representation of n, most significant digit first.
func Encode(n uint64) string {
	if n == 0 {
		return Alphabet[:1]
	}

	var buf [16]byte

	i := len(buf)
	for n > 0 {
		i--
		buf[i] = Alphabet[n%base]
		n /= base
	}

	return string(buf[i:])
}

// EncodeBig is Encode for integers wider than 64 bits.
func EncodeBig(n *big.Int) string {
	if n.Sign() == 0 {
		return Alphabet[:1]
	}

	var digits []byte

	q := new(big.Int).Set(n)
	r := new(big.Int)

	for q.Sign() > 0 {
		q.QuoRem(q, bigBase, r)
		digits = append(digits, Alphabet[r.Int64()])
	}

	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}

	return string(digits)
}

// Decode is the inverse of Encode. It fails with ErrInvalidCodeFormat on an empty code, a
// character outside Alphabet, or a value that does not fit in a uint64.
func Decode(code string) (uint64, error) {
	if code == "" {
		return 0, fmt.Errorf("%w: empty code", ErrInvalidCodeFormat)
	}

	var n uint64

	for i := range len(code) {
		d := charIndex[code[i]]
		if d < 0 {
			return 0, fmt.Errorf("%w: unexpected character %q", ErrInvalidCodeFormat, code[i])
		}

		if n > (math.MaxUint64-uint64(d))/base {
			return 0, fmt.Errorf("%w: value overflows uint64", ErrInvalidCodeFormat)
		}

		n = n*base + uint64(d)
	}

	return n, nil
}

// DecodeBig is Decode without the 64-bit bound.
func DecodeBig(code string) (*big.Int, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrInvalidCodeFormat)
	}

	n := new(big.Int)

	for i := range len(code) {
		d := charIndex[code[i]]
		if d < 0 {
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidCodeFormat, code[i])
		}

		n.Mul(n, bigBase)
		n.Add(n, big.NewInt(int64(d)))
	}

	return n, nil
}

// ValidCode reports whether every character of code belongs to Alphabet.
func ValidCode(code string) bool {
	if code == "" {
		return false
	}

	for i := range len(code) {
		if charIndex[code[i]] < 0 {
			return false
		}
	}

	return true
}

// FromID encodes a numeric identifier, left-padded with Alphabet[0] to minLength.
func FromID(id uint64, minLength int) Code {
	code := Encode(id)
	if pad := minLength - len(code); pad > 0 {
		code = strings.Repeat(Alphabet[:1], pad) + code
	}

	return Code(code)
}

// FromHash derives a code from the SHA-256 digest of url read as one large integer, truncated to
// length characters. Codes for the same url at different lengths are prefixes of each other.
func FromHash(url string, length int) Code {
	if length <= 0 {
		length = DefaultCodeLength
	}

	sum := sha256.Sum256([]byte(url))
	code := EncodeBig(new(big.Int).SetBytes(sum[:]))

	if len(code) > length {
		code = code[:length]
	}

	return Code(code)
}

// Random draws codes of the given length uniformly from Alphabet until one is not in avoid.
// After maxRandomDraws misses it moves on to length+1.
func Random(length int, avoid map[Code]struct{}) (Code, error) {
	switch {
	case length <= 0:
		length = DefaultCodeLength
	case length < minRandomLength:
		length = minRandomLength
	}

	for {
		generate, err := nanoid.CustomASCII(Alphabet, length)
		if err != nil {
			return "", fmt.Errorf("random code generator: %w", err)
		}

		for range maxRandomDraws {
			code := Code(generate())
			if _, taken := avoid[code]; !taken {
				return code, nil
			}
		}

		length++
	}
}
