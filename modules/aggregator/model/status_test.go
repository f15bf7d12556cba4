package model

import "testing"

func TestCombine(t *testing.T) {
	cases := []struct {
		name     string
		children []Status
		want     Status
	}{
		{"empty is green", nil, StatusGreen},
		{"all green", []Status{StatusGreen, StatusGreen}, StatusGreen},
		{"yellow beats green", []Status{StatusGreen, StatusYellow}, StatusYellow},
		{"red beats yellow", []Status{StatusYellow, StatusRed, StatusGreen}, StatusRed},
		{"gray beats everything", []Status{StatusRed, StatusGray, StatusGreen}, StatusGray},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Combine(c.children); got != c.want {
				t.Errorf("Combine(%v) = %s, want %s", c.children, got, c.want)
			}
		})
	}
}
