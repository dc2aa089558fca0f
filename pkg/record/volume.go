package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LowCountLabel is the literal the keyword tool emits for monthly volumes below ten.
const LowCountLabel = "< 10"

// VolumeKind discriminates the Volume union.
type VolumeKind int

const (
	VolumeUnknown VolumeKind = iota
	VolumeCount
	VolumeLowCount
)

func (k VolumeKind) String() string {
	switch k {
	case VolumeCount:
		return "count"
	case VolumeLowCount:
		return "low_count"
	default:
		return "unknown"
	}
}

// Volume is a monthly search volume as reported upstream: an exact non-negative count,
// the low-count sentinel, or something unrecognized kept verbatim.
type Volume struct {
	kind  VolumeKind
	count int64
	raw   string
}

func Count(n int64) Volume {
	if n < 0 {
		return Unknown(strconv.FormatInt(n, 10))
	}
	return Volume{kind: VolumeCount, count: n}
}

func LowCount() Volume {
	return Volume{kind: VolumeLowCount, raw: LowCountLabel}
}

func Unknown(raw string) Volume {
	return Volume{kind: VolumeUnknown, raw: raw}
}

func (v Volume) Kind() VolumeKind { return v.kind }

// Int returns the exact count and whether the volume is one.
func (v Volume) Int() (int64, bool) {
	if v.kind != VolumeCount {
		return 0, false
	}
	return v.count, true
}

// Raw returns the upstream string for sentinel and unknown volumes.
func (v Volume) Raw() string { return v.raw }

func (v Volume) String() string {
	if v.kind == VolumeCount {
		return strconv.FormatInt(v.count, 10)
	}
	return v.raw
}

// ParseVolume interprets a string volume. Whitespace inside the sentinel is tolerated
// ("<10" and "< 10" both mean low count).
func ParseVolume(s string) Volume {
	trimmed := strings.TrimSpace(s)
	if strings.ReplaceAll(trimmed, " ", "") == "<10" {
		return LowCount()
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil && n >= 0 {
		return Count(n)
	}
	return Unknown(s)
}

func (v *Volume) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Unknown("")
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode volume string: %w", err)
		}
		if strings.ReplaceAll(strings.TrimSpace(s), " ", "") == "<10" {
			*v = LowCount()
		} else {
			*v = Unknown(s)
		}
		return nil
	}

	if n, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*v = Count(n)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*v = Unknown(string(data))
		return nil
	}
	if f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		*v = Unknown(string(data))
		return nil
	}
	*v = Count(int64(f))
	return nil
}

func (v Volume) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case VolumeCount:
		return []byte(strconv.FormatInt(v.count, 10)), nil
	case VolumeLowCount:
		return json.Marshal(LowCountLabel)
	default:
		if v.raw == "" {
			return []byte("null"), nil
		}
		return json.Marshal(v.raw)
	}
}

// CellValue is the raw value written to a spreadsheet cell: the integer for counts and
// the upstream text otherwise.
func (v Volume) CellValue() interface{} {
	if v.kind == VolumeCount {
		return v.count
	}
	return v.raw
}
