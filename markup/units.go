package markup

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the unit a length was written in.
type Unit int

const (
	UnitNone Unit = iota // 无单位按 pt 处理
	UnitPT
	UnitMM
	UnitCM
	UnitIN
	UnitPercent
)

// Conversion constants between pt and mm (1in = 72pt = 25.4mm).
const (
	PtToMm = 25.4 / 72
	MmToPt = 72 / 25.4
)

func (u Unit) String() string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	case UnitPercent:
		return "%"
	}
	return ""
}

// Length keeps a number with the unit it was written in.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// Points converts to points; percentages resolve against ref.
func (l Length) Points(ref float64) float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * 72
	case UnitPercent:
		return ref * l.Value / 100
	}
	return l.Value
}

// MM converts to millimetres.
func (l Length) MM() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value
	case UnitCM:
		return l.Value * 10
	case UnitIN:
		return l.Value * 25.4
	}
	return l.Value * PtToMm
}

func (l Length) String() string {
	return strconv.FormatFloat(l.Value, 'f', -1, 64) + l.Unit.String()
}

var unitSuffixes = []struct {
	s string
	u Unit
}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}, {"%", UnitPercent}}

// ParseLength parses "12", "12pt", "4.5mm", "1in" or "50%".
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("%w: empty length", ErrInvalidValue)
	}
	unit := UnitNone
	for _, suf := range unitSuffixes {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{}, fmt.Errorf("%w: length %q", ErrInvalidValue, value)
	}
	return Length{Value: f, Unit: unit}, nil
}

// LineSpacing is written either as a factor of the font size ("0.5x") or as a length.
type LineSpacing struct {
	Factor float64
	Len    *Length
}

// ParseLineSpacing parses "4", "4pt" or "0.5x".
func ParseLineSpacing(value string) (LineSpacing, error) {
	v := strings.TrimSpace(value)
	if f, ok := strings.CutSuffix(v, "x"); ok {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return LineSpacing{}, fmt.Errorf("%w: line spacing %q", ErrInvalidValue, value)
		}
		return LineSpacing{Factor: n}, nil
	}
	l, err := ParseLength(v)
	if err != nil {
		return LineSpacing{}, err
	}
	return LineSpacing{Len: &l}, nil
}

// Resolve returns the spacing in points for the given font size.
func (s LineSpacing) Resolve(fontSize float64) float64 {
	if s.Len != nil {
		return s.Len.Points(fontSize)
	}
	return fontSize * s.Factor
}
