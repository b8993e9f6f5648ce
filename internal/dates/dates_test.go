package dates

import (
	"testing"
	"time"
)

func TestNormalizeShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"sbs byline", "작성2005.12.12 10:01조회조회수", "2005-12-12T10:01:00+09:00"},
		{"sbs single digit", "작성2007.1.3 9:05", "2007-01-03T09:05:00+09:00"},
		{"yonhap compact", "20191229154508", "2019-12-29T15:45:08+09:00"},
		{"korean calendar", "2025년 12월 18일(목)", "2025-12-18T00:00:00+09:00"},
		{"iso without zone", "2015-06-01T12:30:00", "2015-06-01T12:30:00+09:00"},
		{"already normalized", "2015-06-01T12:30:00+09:00", "2015-06-01T12:30:00+09:00"},
		{"utc passthrough", "2018-02-03T01:02:03Z", "2018-02-03T01:02:03Z"},
		{"unrecognized", "sometime in spring", "sometime in spring"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("%s: Normalize(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	once := Normalize("작성2005.12.12 10:01")
	if twice := Normalize(once); twice != once {
		t.Fatalf("Normalize not idempotent: %q then %q", once, twice)
	}
}

func TestNormalizeAtRelative(t *testing.T) {
	t.Parallel()

	ref := time.Date(2021, time.March, 10, 12, 0, 0, 0, time.UTC)

	got := NormalizeAt("2 days ago", ref)
	want := "2021-03-08T12:00:00Z (approx)"
	if got != want {
		t.Fatalf("NormalizeAt = %q, want %q", got, want)
	}

	got = NormalizeAt("1 year ago (edited)", ref)
	want = "2020-03-10T12:00:00Z (approx)"
	if got != want {
		t.Fatalf("NormalizeAt with edit marker = %q, want %q", got, want)
	}

	// non-relative input falls back to Normalize
	if got := NormalizeAt("20191229154508", ref); got != "2019-12-29T15:45:08+09:00" {
		t.Fatalf("NormalizeAt fallback = %q", got)
	}
}

func TestStripApprox(t *testing.T) {
	t.Parallel()

	if got := StripApprox("2020-03-10T12:00:00Z (approx)"); got != "2020-03-10T12:00:00Z" {
		t.Fatalf("StripApprox = %q", got)
	}
	if got := StripApprox("2020-03-10T12:00:00Z"); got != "2020-03-10T12:00:00Z" {
		t.Fatalf("StripApprox changed clean input: %q", got)
	}
}

func TestYear(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		year int
		ok   bool
	}{
		{"2015-06-01T12:30:00+09:00", 2015, true},
		{"2020-03-10T12:00:00Z (approx)", 2020, true},
		{"20191229154508", 2019, true},
		{"작성2005.12.12 10:01", 2005, true},
		{"2018년 3월", 2018, true},
		{"3 months ago", 0, false},
		{"", 0, false},
		{"bad-date", 0, false},
	}

	for _, tc := range cases {
		year, ok := Year(tc.in)
		if year != tc.year || ok != tc.ok {
			t.Errorf("Year(%q) = (%d, %v), want (%d, %v)", tc.in, year, ok, tc.year, tc.ok)
		}
	}
}
