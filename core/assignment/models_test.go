package assignment

import "testing"

func TestParseMarks(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "85", want: "85.00", wantOK: true},
		{in: "85.5", want: "85.50", wantOK: true},
		{in: "0", want: "0.00", wantOK: true},
		{in: "999.99", want: "999.99", wantOK: true},
		{in: "-1"},
		{in: "abc"},

	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMarks(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseMarks(%q) ok = %t, want %t", tt.in, ok, tt.wantOK)
			}
			if ok && FormatMarks(got) != tt.want {
				t.Errorf("ParseMarks(%q) = %s, want %s", tt.in, FormatMarks(got), tt.want)
			}
		})
	}
}

func TestFormatMarks(t *testing.T) {
	if got := FormatMarks(nil); got != "" {
		t.Errorf("FormatMarks(nil) = %q, want empty", got)
	}
	if (Assignment{}).HasMarks() {
		t.Error("ungraded assignment reports marks")
	}
}
