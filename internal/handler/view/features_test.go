package view

import "testing"

func TestVersionAllowed(t *testing.T) {
	cases := []struct {
		lock            int
		client, expected string
		want            bool
	}{
		{0, "anything", "30200101_0", true},
		{1, "30200101_0", "30200101_0", true},
		{1, "30191004_0", "30200101_0", false},
		{2, "30191004_0", "30200101_0", false}, // older client rejected under minimum-version lock
		{2, "30210101_0", "30200101_0", true},  // newer client accepted
		{2, "30200101_0", "30200101_0", true},  // exact match accepted under minimum lock
	}
	for _, c := range cases {
		if got := versionAllowed(c.lock, c.client, c.expected); got != c.want {
			t.Errorf("versionAllowed(%d, %q, %q) = %v, want %v", c.lock, c.client, c.expected, got, c.want)
		}
	}
}
