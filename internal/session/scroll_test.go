package session

import "testing"

func TestFollowScroll(t *testing.T) {
	cases := []struct {
		name     string
		first    bool
		distance float64
		want     bool
	}{
		{"first snapshot always follows", true, 5000, true},
		{"at bottom", false, 0, true},
		{"near bottom", false, 50, true},
		{"exactly at threshold", false, NearBottomThreshold, true},
		{"just past threshold", false, NearBottomThreshold + 1, false},
		{"scrolled into history", false, 2400, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := FollowScroll(c.first, c.distance); got != c.want {
				t.Errorf("FollowScroll(%v, %v) = %v, want %v", c.first, c.distance, got, c.want)
			}
		})
	}
}
