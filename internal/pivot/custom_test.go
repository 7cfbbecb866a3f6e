package pivot

import "testing"

func TestParseCustomBucketsNumeric(t *testing.T) {
	b, err := parseCustomBuckets("0, 25, 50, 100")
	if err != nil {
		t.Fatalf("parseCustomBuckets: %v", err)
	}

	wantLabels := []string{"0-25", "25-50", "50-100"}
	if len(b.Labels) != len(wantLabels) {
		t.Fatalf("labels = %v, want %v", b.Labels, wantLabels)
	}
	for i, w := range wantLabels {
		if b.Labels[i] != w {
			t.Errorf("labels[%d] = %q, want %q", i, b.Labels[i], w)
		}
	}

	values := []interface{}{0.0, 10.0, 25.0, 26.0, 100.0, 101.0, -1.0}
	labels, included := b.Apply(values)

	// Lowest edge is inclusive; interior edges belong to the lower bucket.
	want := []struct {
		label    string
		included bool
	}{
		{"0-25", true},
		{"0-25", true},
		{"0-25", true},
		{"25-50", true},
		{"50-100", true},
		{"", false},
		{"", false},
	}
	for i, w := range want {
		if included[i] != w.included {
			t.Errorf("value %v: included = %v, want %v", values[i], included[i], w.included)
			continue
		}
		if w.included && labels[i] != w.label {
			t.Errorf("value %v: label = %q, want %q", values[i], labels[i], w.label)
		}
	}
}

func TestParseCustomBucketsLabelsBecomeQuantiles(t *testing.T) {
	b, err := parseCustomBuckets("Low, High")
	if err != nil {
		t.Fatalf("parseCustomBuckets: %v", err)
	}
	labels, included := b.Apply([]interface{}{1.0, 2.0, 3.0, 4.0})
	for i, l := range labels {
		if !included[i] {
			t.Fatalf("value %d excluded", i)
		}
		want := "Low"
		if i >= 2 {
			want = "High"
		}
		if l != want {
			t.Errorf("labels[%d] = %q, want %q", i, l, want)
		}
	}
}

func TestParseCustomBucketsErrors(t *testing.T) {
	tests := []struct {
		name   string
		ranges string
	}{
		{"empty", ""},
		{"single token", "42"},
		{"not ascending", "0, 100, 50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseCustomBuckets(tt.ranges); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseCustomBucketsTrimsTokens(t *testing.T) {
	b, err := parseCustomBuckets(" 0 ,10,, 20 ")
	if err != nil {
		t.Fatalf("parseCustomBuckets: %v", err)
	}
	if len(b.Labels) != 2 || b.Labels[0] != "0-10" || b.Labels[1] != "10-20" {
		t.Errorf("labels = %v, want [0-10 10-20]", b.Labels)
	}
}
