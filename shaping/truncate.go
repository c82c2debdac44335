package shaping

import (
	"github.com/ByLCY/scribe/layout"
	"github.com/ByLCY/scribe/styled"
)

func advance(cs []cluster) float64 {
	w := 0.0
	for i := range cs {
		w += cs[i].adv
	}
	return w
}

// tokenAt 把截断符号的簇映射到原文的插入位置
func tokenAt(tok []cluster, at int) []cluster {
	out := make([]cluster, len(tok))
	for i, c := range tok {
		c.index, c.length = at, 0
		c.token = true
		c.breakAfter, c.mandatory = false, false
		out[i] = c
	}
	return out
}

func trimSpaceRight(cs []cluster) []cluster {
	for len(cs) > 0 && cs[len(cs)-1].space {
		cs = cs[:len(cs)-1]
	}
	return cs
}

func trimSpaceLeft(cs []cluster) []cluster {
	for len(cs) > 0 && cs[0].space {
		cs = cs[1:]
	}
	return cs
}

func endOf(cs []cluster, fallback int) int {
	if len(cs) == 0 {
		return fallback
	}
	c := cs[len(cs)-1]
	return c.index + c.length
}

func startOf(cs []cluster, fallback int) int {
	if len(cs) == 0 {
		return fallback
	}
	return cs[0].index
}

// TruncatedLine shapes line r of t with token elided in at the start, middle or end so
// that the result fits width. The result keeps r as its range; token runs are flagged
// and sit at a zero-length range at the elision point.
func (f *Framesetter) TruncatedLine(t *styled.Text, r styled.Range, token *styled.Text, width float64, mode layout.TruncationType, vertical bool) (layout.ShapedLine, error) {
	if f.Metrics == nil {
		return layout.ShapedLine{}, ErrNoMetrics
	}
	cs := f.clusters(t, r, vertical)
	for len(cs) > 0 && cs[len(cs)-1].newline {
		cs = cs[:len(cs)-1]
	}
	var tok []cluster
	if token != nil {
		tok = f.clusters(token, token.FullRange(), vertical)
	}
	budget := width - advance(tok)

	var out []cluster
	switch mode {
	case layout.TruncateStart:
		k, w := len(cs), 0.0
		for k > 0 && w+cs[k-1].adv <= budget+epsilon {
			w += cs[k-1].adv
			k--
		}
		tail := trimSpaceLeft(cs[k:])
		out = append(tokenAt(tok, startOf(tail, r.End())), tail...)
	case layout.TruncateMiddle:
		head, tail := 0, len(cs)
		w := 0.0
		for head < tail {
			// 交替从两端取簇，头部优先
			if advance(cs[:head]) <= advance(cs[tail:]) {
				if w+cs[head].adv > budget+epsilon {
					break
				}
				w += cs[head].adv
				head++
			} else {
				if w+cs[tail-1].adv > budget+epsilon {
					break
				}
				w += cs[tail-1].adv
				tail--
			}
		}
		h := trimSpaceRight(cs[:head])
		out = append(out, h...)
		out = append(out, tokenAt(tok, endOf(h, r.Location))...)
		out = append(out, trimSpaceLeft(cs[tail:])...)
	default:
		k, w := 0, 0.0
		for k < len(cs) && w+cs[k].adv <= budget+epsilon {
			w += cs[k].adv
			k++
		}
		h := trimSpaceRight(cs[:k])
		out = append(out, h...)
		out = append(out, tokenAt(tok, endOf(h, r.Location))...)
	}
	sl := makeLine(out)
	sl.Range = r
	return sl, nil
}
