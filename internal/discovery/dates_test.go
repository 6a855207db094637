package discovery

import "testing"

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Sept. 18, 2022", "2022-09-18", true},
		{"June 2, 2025", "2025-06-02", true},
		{"Jan 5 2021", "2021-01-05", true},
		{"Oct. 31, 2019", "2019-10-31", true},
		{"SEPTEMBER 1, 2020", "2020-09-01", true},
		{"Posted on March 3rd, 2023 by Staff", "2023-03-03", true},
		{"2024-02-29T09:00:00Z", "2024-02-29", true},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseDate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
