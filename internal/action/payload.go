package action

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hyperwallet/hyperwallet/internal/chain"
)

// Version is the only payload version currently emitted or accepted.
const Version byte = 1

// HeaderLen is the fixed byte length of the payload header: one version byte
// followed by a 3-byte big-endian action kind.
const HeaderLen = 4

var (
	// ErrPayloadTooShort indicates a payload shorter than the fixed header.
	ErrPayloadTooShort = errors.New("payload shorter than header")
	// ErrVersionNotSupported indicates an unknown payload version byte.
	ErrVersionNotSupported = errors.New("payload version not supported")
	// ErrNameTooLong indicates a name that does not fit the u16 length field.
	ErrNameTooLong = errors.New("name too long")
)

// Kind identifies one settlement-layer action. The tag space is a flat 3-byte
// integer, reserved monotonically; existing values are never reinterpreted.
type Kind uint32

const (
	KindLimitOrder          Kind = 1
	KindVaultTransfer       Kind = 2
	KindTokenDelegate       Kind = 3
	KindStakingDeposit      Kind = 4
	KindStakingWithdraw     Kind = 5
	KindSpotSend            Kind = 6
	KindUsdClassTransfer    Kind = 7
	KindFinalizeEVMContract Kind = 8
	KindAddAPIWallet        Kind = 9
	KindCancelOrderByOid    Kind = 10
	KindCancelOrderByCloid  Kind = 11
)

// Cloid is a 128-bit client order identifier.
type Cloid [16]byte

// ParseCloid decodes a hex string (optionally 0x-prefixed, up to 32 hex
// digits) into a right-aligned Cloid.
func ParseCloid(s string) (Cloid, error) {
	var c Cloid
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return c, nil
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) > len(c) {
		return c, fmt.Errorf("invalid cloid %q", s)
	}
	copy(c[len(c)-len(raw):], raw)
	return c, nil
}

// Encode assembles a raw payload from its three parts. It performs no
// validation of args beyond attaching them verbatim.
func Encode(version byte, kind Kind, args []byte) []byte {
	out := make([]byte, HeaderLen, HeaderLen+len(args))
	out[0] = version
	out[1] = byte(kind >> 16)
	out[2] = byte(kind >> 8)
	out[3] = byte(kind)
	return append(out, args...)
}

// Header splits a payload into version, kind and args.
func Header(payload []byte) (byte, Kind, []byte, error) {
	if len(payload) < HeaderLen {
		return 0, 0, nil, ErrPayloadTooShort
	}
	if payload[0] != Version {
		return 0, 0, nil, ErrVersionNotSupported
	}
	kind := Kind(uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3]))
	return payload[0], kind, payload[HeaderLen:], nil
}

// LimitOrder places an order on the settlement layer order book.
// Field order: asset u32, isBuy u8, limitPx u64, size u64, reduceOnly u8,
// tif u8, cloid 16 bytes.
func LimitOrder(asset uint32, isBuy bool, limitPx, size uint64, reduceOnly bool, tif uint8, cloid Cloid) []byte {
	args := make([]byte, 0, 4+1+8+8+1+1+16)
	args = binary.BigEndian.AppendUint32(args, asset)
	args = appendBool(args, isBuy)
	args = binary.BigEndian.AppendUint64(args, limitPx)
	args = binary.BigEndian.AppendUint64(args, size)
	args = appendBool(args, reduceOnly)
	args = append(args, tif)
	args = append(args, cloid[:]...)
	return Encode(Version, KindLimitOrder, args)
}

// VaultTransfer deposits into or withdraws from a settlement-layer vault.
// Field order: vault 20 bytes, isDeposit u8, usd u64.
func VaultTransfer(vault chain.Address, isDeposit bool, usd uint64) []byte {
	args := make([]byte, 0, chain.AddressLen+1+8)
	args = appendAddress(args, vault)
	args = appendBool(args, isDeposit)
	args = binary.BigEndian.AppendUint64(args, usd)
	return Encode(Version, KindVaultTransfer, args)
}

// TokenDelegate delegates to or undelegates from a validator.
// Field order: validator 20 bytes, wei u64, isUndelegate u8.
func TokenDelegate(validator chain.Address, wei uint64, isUndelegate bool) []byte {
	args := make([]byte, 0, chain.AddressLen+8+1)
	args = appendAddress(args, validator)
	args = binary.BigEndian.AppendUint64(args, wei)
	args = appendBool(args, isUndelegate)
	return Encode(Version, KindTokenDelegate, args)
}

// StakingDeposit moves wei from the spot balance into staking.
func StakingDeposit(wei uint64) []byte {
	return Encode(Version, KindStakingDeposit, binary.BigEndian.AppendUint64(nil, wei))
}

// StakingWithdraw moves wei from staking back to the spot balance.
func StakingWithdraw(wei uint64) []byte {
	return Encode(Version, KindStakingWithdraw, binary.BigEndian.AppendUint64(nil, wei))
}

// SpotSend sends a spot asset to another settlement-layer account.
// Field order: destination 20 bytes, token u64, wei u64.
func SpotSend(destination chain.Address, token uint64, wei uint64) []byte {
	args := make([]byte, 0, chain.AddressLen+8+8)
	args = appendAddress(args, destination)
	args = binary.BigEndian.AppendUint64(args, token)
	args = binary.BigEndian.AppendUint64(args, wei)
	return Encode(Version, KindSpotSend, args)
}

// UsdClassTransfer moves usd between the spot and perp balance classes.
// Field order: ntl u64, toPerp u8.
func UsdClassTransfer(ntl uint64, toPerp bool) []byte {
	args := make([]byte, 0, 8+1)
	args = binary.BigEndian.AppendUint64(args, ntl)
	args = appendBool(args, toPerp)
	return Encode(Version, KindUsdClassTransfer, args)
}

// FinalizeEVMContract finalizes the deployment linkage of an EVM contract for
// a settlement-layer token. Field order: token u64, variant u8, createNonce u64.
func FinalizeEVMContract(token uint64, variant uint8, createNonce uint64) []byte {
	args := make([]byte, 0, 8+1+8)
	args = binary.BigEndian.AppendUint64(args, token)
	args = append(args, variant)
	args = binary.BigEndian.AppendUint64(args, createNonce)
	return Encode(Version, KindFinalizeEVMContract, args)
}

// AddAPIWallet registers an API wallet credential.
// Field order: wallet 20 bytes, name length u16, name bytes.
func AddAPIWallet(wallet chain.Address, name string) ([]byte, error) {
	if len(name) > math.MaxUint16 {
		return nil, ErrNameTooLong
	}
	args := make([]byte, 0, chain.AddressLen+2+len(name))
	args = appendAddress(args, wallet)
	args = binary.BigEndian.AppendUint16(args, uint16(len(name)))
	args = append(args, name...)
	return Encode(Version, KindAddAPIWallet, args), nil
}

// CancelOrderByOid cancels an order by its exchange-assigned id.
// Field order: asset u32, oid u64.
func CancelOrderByOid(asset uint32, oid uint64) []byte {
	args := make([]byte, 0, 4+8)
	args = binary.BigEndian.AppendUint32(args, asset)
	args = binary.BigEndian.AppendUint64(args, oid)
	return Encode(Version, KindCancelOrderByOid, args)
}

// CancelOrderByCloid cancels an order by its client-assigned id.
// Field order: asset u32, cloid 16 bytes.
func CancelOrderByCloid(asset uint32, cloid Cloid) []byte {
	args := make([]byte, 0, 4+16)
	args = binary.BigEndian.AppendUint32(args, asset)
	args = append(args, cloid[:]...)
	return Encode(Version, KindCancelOrderByCloid, args)
}

func appendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}

func appendAddress(dst []byte, a chain.Address) []byte {
	raw := a.Bytes()
	return append(dst, raw[:]...)
}
