package binding

import (
	"reflect"
	"testing"

	"github.com/ByLCY/scribe/styled"
)

func sampleData() map[string]any {
	return map[string]any{
		"user": map[string]any{
			"name": "Ada",
			"tags": []any{"math", "engines"},
		},
		"count": 3.0,
	}
}

func TestInterpolate(t *testing.T) {
	data := sampleData()
	cases := []struct {
		in, want string
	}{
		{"Hello ${user.name}", "Hello Ada"},
		{"${ user.tags[1] }!", "engines!"},
		{"n=${count}", "n=3"},
		{"${missing.path} stays", "${missing.path} stays"},
		{"no placeholders", "no placeholders"},
	}
	for _, c := range cases {
		if got := Interpolate(c.in, data); got != c.want {
			t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := Interpolate("${user.name}", nil); got != "${user.name}" {
		t.Fatalf("nil data should keep placeholder, got %q", got)
	}
}

func TestLookupStruct(t *testing.T) {
	type item struct {
		Title string
		Sizes []int
	}
	data := map[string]any{"item": &item{Title: "scribe", Sizes: []int{10, 20}}}
	v, ok := Lookup(data, "item.Sizes[1]")
	if !ok || v != 20 {
		t.Fatalf("Lookup struct slice = %v, %v", v, ok)
	}
	if _, ok := Lookup(data, "item.missing"); ok {
		t.Fatalf("unexported or missing field should not resolve")
	}
	if _, ok := Lookup(data, "item.Sizes[5]"); ok {
		t.Fatalf("out of range index should not resolve")
	}
}

func TestInterpolateTextShiftsAttributes(t *testing.T) {
	red := styled.RGBA(255, 0, 0, 255)
	blue := styled.RGBA(0, 0, 255, 255)
	txt := styled.Concat(
		styled.New("Hi ${user.name}", styled.Attributes{Color: &red}),
		styled.New(" end", styled.Attributes{Color: &blue}),
	)
	out, err := InterpolateText(txt, sampleData())
	if err != nil {
		t.Fatalf("InterpolateText error: %v", err)
	}
	if out.String() != "Hi Ada end" {
		t.Fatalf("unexpected text %q", out.String())
	}
	a, r := out.AttributesAt(3)
	if a.Color == nil || *a.Color != red || r != styled.NewRange(0, 6) {
		t.Fatalf("substituted run = %+v %v", a.Color, r)
	}
	a, r = out.AttributesAt(7)
	if a.Color == nil || *a.Color != blue || r != styled.NewRange(6, 4) {
		t.Fatalf("trailing run = %+v %v", a.Color, r)
	}
	if txt.String() != "Hi ${user.name} end" {
		t.Fatalf("source text mutated: %q", txt.String())
	}
}

func TestInterpolateTextMultiple(t *testing.T) {
	txt := styled.Plain("${user.tags[0]}/${nope}/${user.tags[1]}")
	out, err := InterpolateText(txt, sampleData())
	if err != nil {
		t.Fatalf("InterpolateText error: %v", err)
	}
	if out.String() != "math/${nope}/engines" {
		t.Fatalf("unexpected text %q", out.String())
	}
}

func TestInterpolateTextUTF16(t *testing.T) {
	txt := styled.Plain("😀${user.name}")
	out, err := InterpolateText(txt, sampleData())
	if err != nil {
		t.Fatalf("InterpolateText error: %v", err)
	}
	if out.String() != "😀Ada" || out.Len() != 5 {
		t.Fatalf("unexpected text %q len %d", out.String(), out.Len())
	}
}

func TestMissing(t *testing.T) {
	got := Missing("${a} ${user.name} ${b} ${a}", sampleData())
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("Missing = %v", got)
	}
	if keys := Keys(sampleData()); !reflect.DeepEqual(keys, []string{"count", "user"}) {
		t.Fatalf("Keys = %v", keys)
	}
}
