package domain

import (
	"strconv"
	"time"
)

// digitRun is a maximal run of ASCII digits inside a name.
type digitRun struct {
	text  string
	start int
	end   int
}

// fuzzyDate scans s for the first digit group (or run of separated groups)
// that forms a valid year-first date:
//
//	YYYYMMDD        "nic20040301x"     -> 2004-03-01
//	YYMMDD          "arctic060803"     -> 2006-08-03
//	Y, M, D groups  "arctic_2006_8_3"  -> 2006-08-03
//
// Groups are read left to right and the first one that yields a real calendar
// date wins.
func fuzzyDate(s string) (time.Time, error) {
	runs := digitRuns(s)
	for i, r := range runs {
		switch len(r.text) {
		case 8:
			if t, ok := ymd(r.text[:4], r.text[4:6], r.text[6:]); ok {
				return t, nil
			}
		case 6:
			if t, ok := ymd(r.text[:2], r.text[2:4], r.text[4:]); ok {
				return t, nil
			}
		}
		if i+2 < len(runs) && adjacent(s, runs[i], runs[i+1]) && adjacent(s, runs[i+1], runs[i+2]) {
			y, m, d := runs[i].text, runs[i+1].text, runs[i+2].text
			if (len(y) == 4 || len(y) == 2) && len(m) <= 2 && len(d) <= 2 {
				if t, ok := ymd(y, m, d); ok {
					return t, nil
				}
			}
		}
	}
	return time.Time{}, &DateParseError{Value: s, Reason: "no year-first date found"}
}

func digitRuns(s string) []digitRun {
	var runs []digitRun
	for i := 0; i < len(s); {
		if s[i] < '0' || s[i] > '9' {
			i++
			continue
		}
		j := i
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		runs = append(runs, digitRun{text: s[i:j], start: i, end: j})
		i = j
	}
	return runs
}

// adjacent reports whether two digit runs are separated by a single
// punctuation character, as in 2006-08-03 or 2006_08_03.
func adjacent(s string, a, b digitRun) bool {
	if b.start-a.end != 1 {
		return false
	}
	switch s[a.end] {
	case '-', '_', '.', '/', ' ':
		return true
	default:
		return false
	}
}

// ymd builds a UTC date from year, month and day tokens, rejecting dates that
// time.Date would normalize (e.g. February 30).
func ymd(ys, ms, ds string) (time.Time, bool) {
	y, err := strconv.Atoi(ys)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 1 || m > 12 {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(ds)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, false
	}
	if len(ys) == 2 {
		y = expandYear(y)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != time.Month(m) {
		return time.Time{}, false
	}
	return t, true
}

// expandYear resolves a two-digit year to the latest year ending in those
// digits that is not after the current clock year.
func expandYear(yy int) int {
	now := clock.Now().Year()
	y := now - now%100 + yy
	if y > now {
		y -= 100
	}
	return y
}
