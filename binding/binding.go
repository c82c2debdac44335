// Package binding 实现 ${path} 数据插值，既可作用于普通字符串，也可作用于带属性的文本。
package binding

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/scribe/styled"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则保留原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		if val, ok := Lookup(data, pathOf(match)); ok {
			return format(val)
		}
		return match
	})
}

// InterpolateText 对带属性的文本做同样的替换。替换值沿用占位符首字符的属性（去掉不可延续的属性），
// 之后的属性区间随长度变化整体平移。
func InterpolateText(t *styled.Text, data any) (*styled.Text, error) {
	if t == nil || data == nil {
		return t, nil
	}
	s := t.String()
	matches := exprPattern.FindAllStringSubmatchIndex(s, -1)
	// 从后往前替换，前面的下标不受影响
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		val, ok := Lookup(data, strings.TrimSpace(s[m[2]:m[3]]))
		if !ok {
			continue
		}
		start, end := t.IndexOfByte(m[0]), t.IndexOfByte(m[1])
		attrs, _ := t.AttributesAt(start)
		var err error
		t, err = t.Replace(styled.NewRange(start, end-start), styled.New(format(val), attrs.StripDiscontinuous()))
		if err != nil {
			return nil, fmt.Errorf("binding: replace %q: %w", s[m[0]:m[1]], err)
		}
	}
	return t, nil
}

// Missing 返回 text 中无法在 data 里解析的路径，按出现顺序去重。
func Missing(text string, data any) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range exprPattern.FindAllString(text, -1) {
		path := pathOf(m)
		if seen[path] {
			continue
		}
		if _, ok := Lookup(data, path); !ok {
			out = append(out, path)
			seen[path] = true
		}
	}
	return out
}

func pathOf(match string) string {
	return strings.TrimSpace(match[2 : len(match)-1])
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// Lookup 解析 a.b[0].c 形式的路径，支持 map、slice 以及导出的结构体字段。
func Lookup(data any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, indexes := parseSegment(segment)
		if name != "" {
			var ok bool
			if current, ok = descendField(current, name); !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			if current, ok = descendIndex(current, idx); !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendField(current any, key string) (any, bool) {
	if m, ok := current.(map[string]any); ok {
		val, ok := m[key]
		return val, ok
	}
	v := reflect.Indirect(reflect.ValueOf(current))
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return val.Interface(), true
	case reflect.Struct:
		f := v.FieldByName(key)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

func descendIndex(current any, idx int) (any, bool) {
	if a, ok := current.([]any); ok {
		if idx < 0 || idx >= len(a) {
			return nil, false
		}
		return a[idx], true
	}
	v := reflect.Indirect(reflect.ValueOf(current))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < 0 || idx >= v.Len() {
			return nil, false
		}
		return v.Index(idx).Interface(), true
	}
	return nil, false
}

// Keys 返回 data 顶层的键，供 REPL 补全使用。
func Keys(data any) []string {
	m, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
