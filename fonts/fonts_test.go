package fonts

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/ByLCY/scribe/styled"
)

func TestDefaultFamilies(t *testing.T) {
	got := Default().Families()
	for _, want := range []string{"Go", "Go Medium", "Go Mono", "Go Smallcaps"} {
		if !slices.Contains(got, want) {
			t.Fatalf("缺少内置家族 %q: %v", want, got)
		}
	}
}

func TestLoadStyles(t *testing.T) {
	r := Default()
	data, err := r.Load(styled.Font{Family: "go", Size: 12, Bold: true})
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if !bytes.Equal(data, gobold.TTF) {
		t.Fatalf("家族名应大小写不敏感，且 bold 应取 Go Bold")
	}
	// Go Medium 没有粗体，退回同家族的 Regular
	key, err := r.Key(styled.Font{Family: "Go Medium", Size: 12, Bold: true})
	if err != nil {
		t.Fatalf("Key 失败: %v", err)
	}
	if key != "go medium|regular" {
		t.Fatalf("缺失样式应回退 Regular，实际 %s", key)
	}
}

func TestFallbackFamily(t *testing.T) {
	r := Default()
	data, err := r.Load(styled.Font{Family: "Helvetica", Size: 12})
	if err != nil {
		t.Fatalf("未知家族应回退: %v", err)
	}
	if !bytes.Equal(data, goregular.TTF) {
		t.Fatalf("回退家族应为 Go Regular")
	}

	empty := New()
	if _, err := empty.Load(styled.DefaultFont); !errors.Is(err, ErrUnknownFont) {
		t.Fatalf("空注册表应返回 ErrUnknownFont，实际 %v", err)
	}
}

func TestRegisterIsolatedByClone(t *testing.T) {
	r := Default().Clone()
	if err := r.Register("Code", Regular, gomono.TTF); err != nil {
		t.Fatalf("Register 失败: %v", err)
	}
	if _, err := r.Key(styled.Font{Family: "Code"}); err != nil {
		t.Fatalf("新注册的家族不可用: %v", err)
	}
	if slices.Contains(Default().Families(), "Code") {
		t.Fatalf("Clone 后注册不应影响默认注册表")
	}
	if err := r.Register("Broken", Regular, []byte("not a font")); err == nil {
		t.Fatalf("非法字体数据应报错")
	}
	if err := r.Register("  ", Regular, gomono.TTF); err == nil {
		t.Fatalf("空家族名应报错")
	}
}

func TestDecorationScalesWithSize(t *testing.T) {
	r := Default()
	pos, thick, err := r.Decoration(styled.Font{Family: "Go", Size: 20})
	if err != nil {
		t.Fatalf("Decoration 失败: %v", err)
	}
	if pos >= 0 {
		t.Fatalf("下划线位置应在基线下方（负值），实际 %g", pos)
	}
	if thick <= 0 || thick > 5 {
		t.Fatalf("下划线粗细不合理: %g", thick)
	}
	pos2, thick2, _ := r.Decoration(styled.Font{Family: "Go", Size: 40})
	if d := pos2 - 2*pos; d > 1e-9 || d < -1e-9 {
		t.Fatalf("位置应随字号线性缩放: %g vs %g", pos, pos2)
	}
	if d := thick2 - 2*thick; d > 1e-9 || d < -1e-9 {
		t.Fatalf("粗细应随字号线性缩放: %g vs %g", thick, thick2)
	}
}
