package chain

import (
	"encoding/hex"
	"errors"
	"strings"
)

// AddressLen is the byte length of an EVM address.
const AddressLen = 20

// ErrInvalidAddress indicates the supplied string is not a 20-byte hex address.
var ErrInvalidAddress = errors.New("invalid address")

// Address is a normalized (lowercase, 0x-prefixed) EVM address. Construct it
// through ParseAddress so downstream code can rely on the normalized form.
type Address string

// ZeroAddress is the all-zero address.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and normalizes a hex address string.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = s[2:]
	}
	if len(s) != AddressLen*2 {
		return "", ErrInvalidAddress
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", ErrInvalidAddress
	}
	return Address("0x" + strings.ToLower(s)), nil
}

// Bytes returns the 20 raw address bytes. The receiver must have been produced
// by ParseAddress.
func (a Address) Bytes() [AddressLen]byte {
	var out [AddressLen]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(string(a), "0x"))
	if err != nil || len(raw) != AddressLen {
		return out
	}
	copy(out[:], raw)
	return out
}

// IsZero reports whether the address is empty or the zero address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

// String returns the normalized textual form.
func (a Address) String() string { return string(a) }
