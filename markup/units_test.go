package markup

import (
	"errors"
	"math"
	"testing"
)

// TestPtMmRoundTrip 验证 pt↔mm 换算的往返精度。
func TestPtMmRoundTrip(t *testing.T) {
	samples := []float64{0, 0.001, 1, 12, 14.4, 72, 96, 144, 1000}
	for _, pt := range samples {
		back := pt * PtToMm * MmToPt
		if diff := math.Abs(back - pt); diff > 1e-9 {
			t.Fatalf("pt→mm→pt 往返误差过大: in=%gpt back=%g diff=%g", pt, back, diff)
		}
	}
	if got := (Length{Value: 72, Unit: UnitPT}).MM(); math.Abs(got-25.4) > 1e-9 {
		t.Fatalf("72pt 转 mm 期望 25.4，实际 %g", got)
	}
}

// TestLengthPoints 覆盖各单位到 pt 的换算。
func TestLengthPoints(t *testing.T) {
	cases := []struct {
		in   string
		ref  float64
		want float64
	}{
		{"12", 0, 12},
		{"12pt", 0, 12},
		{"1in", 0, 72},
		{"25.4mm", 0, 72},
		{"2.54cm", 0, 72},
		{"50%", 30, 15},
		{"-4", 0, -4},
	}
	for _, c := range cases {
		l, err := ParseLength(c.in)
		if err != nil {
			t.Fatalf("ParseLength(%q) 失败: %v", c.in, err)
		}
		if got := l.Points(c.ref); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("%s 转 pt 期望 %g，实际 %g", c.in, c.want, got)
		}
	}
	if l, _ := ParseLength("4.5mm"); l.String() != "4.5mm" {
		t.Fatalf("String() 应保留单位，实际 %s", l)
	}
}

func TestParseLengthErrors(t *testing.T) {
	for _, in := range []string{"", "pt", "abc", "1.2.3mm"} {
		if _, err := ParseLength(in); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("ParseLength(%q) 应返回 ErrInvalidValue，实际 %v", in, err)
		}
	}
}

// TestLineSpacingResolve 验证倍数与绝对值两种写法。
func TestLineSpacingResolve(t *testing.T) {
	s, err := ParseLineSpacing("0.5x")
	if err != nil {
		t.Fatalf("ParseLineSpacing 失败: %v", err)
	}
	if got := s.Resolve(12); got != 6 {
		t.Fatalf("0.5x 期望 6，实际 %g", got)
	}
	s, err = ParseLineSpacing("1in")
	if err != nil {
		t.Fatalf("ParseLineSpacing 失败: %v", err)
	}
	if got := s.Resolve(12); got != 72 {
		t.Fatalf("1in 期望 72，实际 %g", got)
	}
	if _, err := ParseLineSpacing("ax"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("非法倍数应报错，实际 %v", err)
	}
}
