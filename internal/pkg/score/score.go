// Package score 对制品内容做启发式质量评分
// 纯函数实现，不依赖任何外部状态，便于在制品写入路径上同步计算
package score

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// 各指标在综合分中的权重
const (
	weightEntropy   = 0.4
	weightPrintable = 0.4
	weightLength    = 0.2

	// lengthSaturation 长度得分的半饱和点（字节）
	lengthSaturation = 1024.0
)

// Metrics 单次评估的各项指标，除 Composite 外均在 [0,1] 区间
type Metrics struct {
	Entropy        float64 // 归一化香农熵，衡量信息密度
	PrintableRatio float64 // 可打印字符占比
	LengthScore    float64 // 长度饱和得分
	Composite      float64 // 加权综合分，[0,100]
}

// Evaluate 计算内容的启发式指标
func Evaluate(content []byte) Metrics {
	m := Metrics{
		Entropy:        entropy(content),
		PrintableRatio: printableRatio(content),
		LengthScore:    lengthScore(len(content)),
	}
	m.Composite = clamp(weightEntropy*m.Entropy+weightPrintable*m.PrintableRatio+weightLength*m.LengthScore) * 100
	return m
}

// entropy 字节级香农熵，除以 8 归一化到 [0,1]
func entropy(content []byte) float64 {
	if len(content) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range content {
		freq[b]++
	}
	total := float64(len(content))
	h := 0.0
	for _, n := range freq {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		h -= p * math.Log2(p)
	}
	return h / 8
}

// printableRatio 按 UTF-8 解码统计可打印字符占比，空白算可打印，解码失败的字节算不可打印
func printableRatio(content []byte) float64 {
	if len(content) == 0 {
		return 0
	}
	printable, total := 0, 0
	for len(content) > 0 {
		r, size := utf8.DecodeRune(content)
		content = content[size:]
		total++
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

// lengthScore n/(n+k) 形式的饱和函数，随内容增长趋近 1
func lengthScore(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n) / (float64(n) + lengthSaturation)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
