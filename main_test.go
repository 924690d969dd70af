package main

import "testing"

func TestFormatRanges(t *testing.T) {
	cases := []struct {
		in   []int
		want string
	}{
		{nil, ""},
		{[]int{4}, "4"},
		{[]int{0, 1, 2, 3, 7, 9, 10}, "0-3,7,9-10"},
	}
	for _, tc := range cases {
		if got := formatRanges(tc.in); got != tc.want {
			t.Errorf("formatRanges(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
