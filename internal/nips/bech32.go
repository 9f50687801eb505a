package nips

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Bech32 charset
const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

const checksumLen = 6

// Bech32Decode decodes a bech32 string into HRP and 5-bit data with the
// checksum verified and stripped. Mixed case is rejected.
func Bech32Decode(bech string) (string, []byte, error) {
	if len(bech) < 8 {
		return "", nil, fmt.Errorf("%w: too short", ErrInvalidBech32)
	}
	if strings.ToLower(bech) != bech && strings.ToUpper(bech) != bech {
		return "", nil, fmt.Errorf("%w: mixed case", ErrInvalidBech32)
	}
	bech = strings.ToLower(bech)

	pos := strings.LastIndex(bech, "1")
	if pos < 1 || pos+checksumLen+1 > len(bech) {
		return "", nil, fmt.Errorf("%w: invalid separator position", ErrInvalidBech32)
	}

	hrp := bech[:pos]
	values := make([]byte, 0, len(bech)-pos-1)
	for _, c := range bech[pos+1:] {
		idx := strings.IndexRune(bech32Charset, c)
		if idx == -1 {
			return "", nil, fmt.Errorf("%w: invalid character %q", ErrInvalidBech32, c)
		}
		values = append(values, byte(idx))
	}

	if !bech32VerifyChecksum(hrp, values) {
		return "", nil, ErrInvalidChecksum
	}

	return hrp, values[:len(values)-checksumLen], nil
}

// Bech32ConvertBits converts between bit groups
func Bech32ConvertBits(data []byte, fromBits, toBits int, pad bool) ([]byte, error) {
	acc := 0
	bits := 0
	var ret []byte
	maxv := (1 << toBits) - 1

	for _, value := range data {
		if int(value)>>fromBits != 0 {
			return nil, fmt.Errorf("%w: value out of range", ErrInvalidBech32)
		}
		acc = (acc << fromBits) | int(value)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			ret = append(ret, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits || ((acc<<(toBits-bits))&maxv) != 0 {
		return nil, fmt.Errorf("%w: invalid padding", ErrInvalidBech32)
	}

	return ret, nil
}

// Bech32Encode encodes 5-bit data with the given HRP
func Bech32Encode(hrp string, data []byte) (string, error) {
	for _, v := range data {
		if int(v) >= len(bech32Charset) {
			return "", fmt.Errorf("%w: value out of range", ErrInvalidBech32)
		}
	}

	checksum := bech32CreateChecksum(hrp, data)

	var result strings.Builder
	result.Grow(len(hrp) + 1 + len(data) + checksumLen)
	result.WriteString(hrp)
	result.WriteByte('1')
	for _, v := range data {
		result.WriteByte(bech32Charset[v])
	}
	for _, v := range checksum {
		result.WriteByte(bech32Charset[v])
	}

	return result.String(), nil
}

// bech32 polymod for checksum calculation
func bech32Polymod(values []int) int {
	gen := []int{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := 1
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ v
		for i := 0; i < 5; i++ {
			if (top>>i)&1 != 0 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HrpExpand(hrp string) []int {
	ret := make([]int, 0, len(hrp)*2+1)
	for _, c := range hrp {
		ret = append(ret, int(c>>5))
	}
	ret = append(ret, 0)
	for _, c := range hrp {
		ret = append(ret, int(c&31))
	}
	return ret
}

func bech32VerifyChecksum(hrp string, data []byte) bool {
	values := bech32HrpExpand(hrp)
	for _, d := range data {
		values = append(values, int(d))
	}
	return bech32Polymod(values) == 1
}

func bech32CreateChecksum(hrp string, data []byte) []byte {
	values := bech32HrpExpand(hrp)
	for _, d := range data {
		values = append(values, int(d))
	}
	values = append(values, make([]int, checksumLen)...)
	polymod := bech32Polymod(values) ^ 1
	checksum := make([]byte, checksumLen)
	for i := 0; i < checksumLen; i++ {
		checksum[i] = byte((polymod >> (5 * (5 - i))) & 31)
	}
	return checksum
}

// encodeHex32 bech32-encodes a 32-byte hex value under hrp.
func encodeHex32(hrp, hexValue string) (string, error) {
	raw, err := hex.DecodeString(hexValue)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLength, err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidLength, len(raw))
	}

	data, err := Bech32ConvertBits(raw, 8, 5, true)
	if err != nil {
		return "", err
	}
	return Bech32Encode(hrp, data)
}

// EncodePubkey encodes a hex pubkey to npub format
func EncodePubkey(hexPubkey string) (string, error) {
	return encodeHex32(PrefixNpub, hexPubkey)
}

// EncodeEventID encodes a hex event ID to note format
func EncodeEventID(hexEventID string) (string, error) {
	return encodeHex32(PrefixNote, hexEventID)
}
