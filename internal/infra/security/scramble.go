package security

import (
	"math"
	"strconv"
)

// ScrambleID maps a 32-bit identifier to a pseudo-random but unique 32-bit
// value using a fixed 3-round Feistel network. Sequential primary keys can
// therefore be exposed in URLs without revealing backend ordering and
// without a persisted mapping table.
//
// The construction is its own inverse: applying ScrambleID to the output
// reproduces the input, so unscrambling is just another call.
//
// Further reading: https://wiki.postgresql.org/wiki/Pseudo_encrypt
func ScrambleID(id uint32) uint32 {
	l := (id >> 16) & 0xFFFF
	r := id & 0xFFFF

	for i := 0; i < 3; i++ {
		l, r = r, l^feistelRound(r)
	}

	return (r << 16) + l
}

// feistelRound computes the keyed round function over a 16-bit half.
// No exact .5 values occur for 16-bit inputs, so the rounding mode of
// math.Round never matters here.
func feistelRound(r uint32) uint32 {
	scaled := float64((1366*r+150889)%714025) / 714025.0 * 32767.0
	return uint32(math.Round(scaled)) & 0xFFFF
}

// ScrambleIdent is the total variant used at the system boundary. Decimal
// identifiers in [0, 2^32) are scrambled; anything else — UUIDs, composite
// identifiers, out-of-range integers — passes through unchanged.
func ScrambleIdent(ident string) string {
	val, err := strconv.ParseUint(ident, 10, 64)
	if err != nil {
		return ident
	}
	if val > math.MaxUint32 {
		return ident
	}
	return strconv.FormatUint(uint64(ScrambleID(uint32(val))), 10)
}

// UnscrambleIdent inverts a boundary identifier back to the internal primary
// key. The second return value is false when the identifier is not a plain
// 32-bit integer and therefore cannot reference a sequential key.
func UnscrambleIdent(ident string) (int64, bool) {
	val, err := strconv.ParseUint(ident, 10, 64)
	if err != nil {
		return 0, false
	}
	if val > math.MaxUint32 {
		return 0, false
	}
	return int64(ScrambleID(uint32(val))), true
}
