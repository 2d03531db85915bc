package upload

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var units = map[byte]int64{
	'b': 1,
	'k': 1024,
	'm': 1048576,
	'g': 1073741824,
}

// HumanReadableToBytes converts sizes like "10K" or "3M" into bytes.
// The leading integer is multiplied by the unit of the last character;
// an unknown suffix leaves the number as a raw byte count. Input without
// a leading integer yields 0. Values beyond the int64 range saturate.
//
// Example:
//
//	upload.HumanReadableToBytes("10M") // 10485760
//	upload.HumanReadableToBytes("5")   // 5
func HumanReadableToBytes(input string) int64 {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0
	}

	number := leadingInt(input)
	if unit, ok := units[lower(input[len(input)-1])]; ok {
		number = mulSaturated(number, unit)
	}

	return number
}

// leadingInt parses an optional sign and the digits that follow it,
// ignoring anything after.
func leadingInt(s string) int64 {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return n // ParseInt clamps to the int64 bounds
	}
	if err != nil {
		return 0
	}
	return n
}

func mulSaturated(n, unit int64) int64 {
	switch {
	case n > math.MaxInt64/unit:
		return math.MaxInt64
	case n < math.MinInt64/unit:
		return math.MinInt64
	default:
		return n * unit
	}
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
