package conf

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationUnmarshal(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{`"3s"`, 3 * time.Second},
		{`"2h"`, 2 * time.Hour},
		{`"1h30m"`, 90 * time.Minute},
		{`"200ms"`, 200 * time.Millisecond},
		// 纯数字按秒处理
		{`5`, 5 * time.Second},
	}
	for _, tc := range cases {
		var d Duration
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if d.AsDuration() != tc.want {
			t.Fatalf("unmarshal %s = %v, want %v", tc.in, d.AsDuration(), tc.want)
		}
	}
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	for _, in := range []string{`"fast"`, `true`, `{}`} {
		var d Duration
		if err := json.Unmarshal([]byte(in), &d); err == nil {
			t.Fatalf("unmarshal %s: expected error", in)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(90 * time.Minute)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Duration
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != d {
		t.Fatalf("round trip: %v != %v", back, d)
	}
}
