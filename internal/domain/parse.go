package domain

import (
	"strings"
	"time"
)

// rule is one row of a naming decision table. Rules are evaluated in order and
// the first whose predicate matches is applied.
type rule struct {
	name    string
	matches func(stem string) bool
	apply   func(stem string, rec *ChartRecord) error
}

// sourceRules dispatch on the file name prefix. New services get a new row
// ahead of the NIC fallback.
var sourceRules = []rule{
	{name: "cis", matches: hasAnyPrefix("rgc", "cis"), apply: applyCIS},
	{name: "nic", matches: always, apply: applyNIC},
}

// cisRules resolve region and epoch for CIS names.
var cisRules = []rule{
	{name: "cis-regional", matches: underscored, apply: cisRegional},
	{name: "cis-combined", matches: always, apply: cisCombined},
}

// nicRegionRules resolve the NIC hemisphere.
var nicRegionRules = []rule{
	{name: "nic-antarctic", matches: containsAny("antarc"), apply: setRegion(RegionAntarctic)},
	{name: "nic-arctic", matches: always, apply: setRegion(RegionArctic)},
}

// nicEpochRules resolve the NIC observation date. The fuzzy row catches the
// historical names that interleave digits and words.
var nicEpochRules = []rule{
	{name: "nic-five-segment", matches: segmentCount(5), apply: nicSegmentDate},
	{name: "nic-fuzzy", matches: always, apply: nicFuzzyDate},
}

// ParseFilename recovers source, region, epoch and format for a chart from its
// listed name and download link. Failures wrap ErrUnparseable.
func ParseFilename(name, href string) (ChartRecord, error) {
	stem, format, err := normalize(href)
	if err != nil {
		return ChartRecord{}, err
	}

	rec := ChartRecord{Name: name, Href: href, Format: format}
	if err := evaluate(sourceRules, stem, &rec); err != nil {
		return ChartRecord{}, err
	}
	return rec, nil
}

// normalize extracts the lower-cased file stem and the format from a link.
// Links that pass the file name as a query parameter keep only the text after
// the last '='.
func normalize(href string) (string, Format, error) {
	base := strings.ToLower(href)
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if base == "" {
		return "", FormatUnknown, &UnrecognizedFilenameError{Href: href, Reason: "empty file name"}
	}

	stem, ext := base, ""
	if i := strings.LastIndex(base, "."); i > 0 {
		stem, ext = base[:i], base[i:]
	}
	if i := strings.LastIndex(stem, "="); i >= 0 {
		stem = stem[i+1:]
	}
	if stem == "" {
		return "", FormatUnknown, &UnrecognizedFilenameError{Href: href, Reason: "empty file stem"}
	}

	switch ext {
	case ".e00":
		return stem, FormatE00, nil
	case ".zip":
		return stem, FormatShapefile, nil
	default:
		return stem, FormatUnknown, nil
	}
}

func evaluate(rules []rule, stem string, rec *ChartRecord) error {
	for _, r := range rules {
		if r.matches(stem) {
			return r.apply(stem, rec)
		}
	}
	return &UnrecognizedFilenameError{Href: rec.Href, Reason: "no naming rule matched " + stem}
}

func applyCIS(stem string, rec *ChartRecord) error {
	rec.Source = SourceCIS
	return evaluate(cisRules, stem, rec)
}

func applyNIC(stem string, rec *ChartRecord) error {
	rec.Source = SourceNIC
	if err := evaluate(nicRegionRules, stem, rec); err != nil {
		return err
	}
	return evaluate(nicEpochRules, stem, rec)
}

// cisRegional handles rgc_<aoi>_<YYYYMMDD>_<code>.
func cisRegional(stem string, rec *ChartRecord) error {
	parts := strings.Split(stem, "_")
	if len(parts) < 3 {
		return &UnrecognizedFilenameError{Href: rec.Href, Reason: "expected source_region_date segments"}
	}
	region, ok := CISRegion(parts[1])
	if !ok {
		return &UnknownRegionCodeError{Code: parts[1]}
	}
	epoch, err := compactDate(parts[2])
	if err != nil {
		return err
	}
	rec.Region = region
	rec.Epoch = epoch
	return nil
}

// cisCombined handles cisarctic<YYYYMMDD>.
func cisCombined(stem string, rec *ChartRecord) error {
	if len(stem) < 8 {
		return &DateParseError{Value: stem, Reason: "shorter than YYYYMMDD"}
	}
	epoch, err := compactDate(stem[len(stem)-8:])
	if err != nil {
		return err
	}
	rec.Region = RegionArctic
	rec.Epoch = epoch
	return nil
}

func nicSegmentDate(stem string, rec *ChartRecord) error {
	epoch, err := compactDate(strings.Split(stem, "_")[2])
	if err != nil {
		return err
	}
	rec.Epoch = epoch
	return nil
}

func nicFuzzyDate(stem string, rec *ChartRecord) error {
	epoch, err := fuzzyDate(stem)
	if err != nil {
		return err
	}
	rec.Epoch = epoch
	return nil
}

func setRegion(region string) func(string, *ChartRecord) error {
	return func(_ string, rec *ChartRecord) error {
		rec.Region = region
		return nil
	}
}

// compactDate parses a strict YYYYMMDD token.
func compactDate(s string) (time.Time, error) {
	if len(s) != 8 || !allDigits(s) {
		return time.Time{}, &DateParseError{Value: s, Reason: "want YYYYMMDD"}
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return time.Time{}, &DateParseError{Value: s, Reason: err.Error()}
	}
	return t, nil
}

func always(string) bool { return true }

func underscored(stem string) bool { return strings.Contains(stem, "_") }

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(stem string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(stem, p) {
				return true
			}
		}
		return false
	}
}

func containsAny(markers ...string) func(string) bool {
	return func(stem string) bool {
		for _, m := range markers {
			if strings.Contains(stem, m) {
				return true
			}
		}
		return false
	}
}

func segmentCount(n int) func(string) bool {
	return func(stem string) bool {
		return strings.Count(stem, "_") == n-1
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
