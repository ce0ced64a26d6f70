package score

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestEvaluateEmpty(t *testing.T) {
	m := Evaluate(nil)
	if m.Entropy != 0 || m.PrintableRatio != 0 || m.LengthScore != 0 || m.Composite != 0 {
		t.Fatalf("empty content metrics = %+v, want all zero", m)
	}
}

func TestEvaluateRange(t *testing.T) {
	inputs := [][]byte{
		[]byte("hello world"),
		[]byte(strings.Repeat("a", 4096)),
		bytes.Repeat([]byte{0x00, 0xff}, 512),
		[]byte("{\"key\": \"value\", \"n\": 42}"),
		[]byte("中文内容也要能评分"),
	}
	for _, content := range inputs {
		m := Evaluate(content)
		for name, v := range map[string]float64{
			"Entropy":        m.Entropy,
			"PrintableRatio": m.PrintableRatio,
			"LengthScore":    m.LengthScore,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("%s = %f out of [0,1] for %q", name, v, content)
			}
		}
		if m.Composite < 0 || m.Composite > 100 {
			t.Fatalf("Composite = %f out of [0,100] for %q", m.Composite, content)
		}
	}
}

// 单一字符零熵，随机字节接近满熵
func TestEntropyOrdering(t *testing.T) {
	uniform := Evaluate(bytes.Repeat([]byte{'a'}, 1024))
	if uniform.Entropy != 0 {
		t.Fatalf("uniform entropy = %f, want 0", uniform.Entropy)
	}

	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 64*1024)
	rng.Read(random)
	m := Evaluate(random)
	if m.Entropy < 0.95 {
		t.Fatalf("random entropy = %f, want near 1", m.Entropy)
	}
	if m.Entropy <= uniform.Entropy {
		t.Fatalf("entropy not increasing: random %f <= uniform %f", m.Entropy, uniform.Entropy)
	}
}

func TestPrintableRatio(t *testing.T) {
	if m := Evaluate([]byte("plain text\nwith spaces")); m.PrintableRatio != 1 {
		t.Fatalf("all-printable ratio = %f, want 1", m.PrintableRatio)
	}
	if m := Evaluate([]byte{0x00, 0x01, 0x02, 0x03}); m.PrintableRatio != 0 {
		t.Fatalf("binary ratio = %f, want 0", m.PrintableRatio)
	}
}

// 长度得分随内容增长单调不减并趋近 1
func TestLengthScoreMonotonic(t *testing.T) {
	prev := -1.0
	for _, n := range []int{0, 1, 128, 1024, 65536} {
		m := Evaluate(bytes.Repeat([]byte{'x'}, n))
		if m.LengthScore < prev {
			t.Fatalf("LengthScore decreased at n=%d: %f < %f", n, m.LengthScore, prev)
		}
		prev = m.LengthScore
	}
	if prev < 0.9 {
		t.Fatalf("LengthScore at 64KiB = %f, want near 1", prev)
	}
}
