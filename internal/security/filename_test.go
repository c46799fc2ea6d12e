package security

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "unknown"},
		{"tokyo-2024_06.run", "tokyo-2024_06.run"},
		{"Tokyo rain / June", "Tokyo_rain_June"},
		{"../../etc/passwd", "etc_passwd"},
		{"..", "unknown"},
		{"東京", "unknown"},
		{"  spaced  ", "spaced"},
		{"a!!!b", "a_b"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFilename_Length(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	if got := SanitizeFilename(string(long)); len(got) != maxFilenameLen {
		t.Errorf("expected %d characters, got %d", maxFilenameLen, len(got))
	}
}
