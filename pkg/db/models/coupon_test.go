package models

import (
	"testing"
	"time"
)

func TestCouponDefaultsEndDateToOneWeek(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := Coupon{StartDate: start}
	c.ApplyDefaults(time.Now())

	if !c.EndDate.Equal(start.AddDate(0, 0, 7)) {
		t.Fatalf("expected end date %s, got %s", start.AddDate(0, 0, 7), c.EndDate)
	}
}

func TestCouponActiveOnIsDayInclusive(t *testing.T) {
	c := Coupon{
		StartDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC),
	}

	cases := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), false},
		{time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), true},
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		if got := c.ActiveOn(tc.at); got != tc.want {
			t.Fatalf("ActiveOn(%s) = %v, want %v", tc.at, got, tc.want)
		}
	}
}
