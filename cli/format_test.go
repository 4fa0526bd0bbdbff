package cli

import "testing"

func TestFormatFileSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
	}
	for _, c := range cases {
		if got := FormatFileSize(c.in); got != c.want {
			t.Errorf("FormatFileSize(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
