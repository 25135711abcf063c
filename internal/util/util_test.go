package util

import "testing"

func TestTrimQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no quotes", "hello", "hello"},
		{"double quoted", `"hello"`, "hello"},
		{"single quotes only", "'hello'", "'hello'"},
		{"quotes in middle", `he"llo`, `he"llo`},
		{"only quotes", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimQuotes(tt.input)
			if result != tt.expected {
				t.Errorf("TrimQuotes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFixEscapeQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"no escaped quotes", "hello", "hello"},
		{"single escaped quote", `he""llo`, `he"llo`},
		{"multiple escaped quotes", `a""b""c`, `a"b"c`},
		{"consecutive escaped", `a""""b`, `a""b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FixEscapeQuotes(tt.input)
			if result != tt.expected {
				t.Errorf("FixEscapeQuotes(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCleanArgs(t *testing.T) {
	in := []string{` "hills" `, `[[1,2],[3,4]]`, `"say ""hi"""`}
	got := CleanArgs(in)

	want := []string{"hills", "[[1,2],[3,4]]", `say "hi`}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CleanArgs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if in[0] != ` "hills" ` {
		t.Error("CleanArgs modified its input")
	}
}

func TestOptionalFloat(t *testing.T) {
	args := []string{"x", "12.5", "", "abc", "NaN", "-Inf"}

	tests := []struct {
		name    string
		index   int
		want    float64
		wantErr bool
	}{
		{"present", 1, 12.5, false},
		{"empty uses default", 2, 7, false},
		{"missing uses default", 10, 7, false},
		{"not a number", 3, 0, true},
		{"NaN rejected", 4, 0, true},
		{"infinity rejected", 5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OptionalFloat(args, tt.index, 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OptionalFloat(%d) error = %v, wantErr %v", tt.index, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("OptionalFloat(%d) = %v, want %v", tt.index, got, tt.want)
			}
		})
	}
}
