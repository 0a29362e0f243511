// Package timeutil translates SRQL time tokens into UTC ranges.
package timeutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/carverauto/srql/internal/srqlerrors"
)

// Range is a resolved [Start, End] window, always Start <= End.
type Range struct {
	Start time.Time
	End   time.Time
}

// SpecKind discriminates the parsed time filter forms.
type SpecKind int

const (
	RelativeHours SpecKind = iota
	RelativeDays
	Today
	Yesterday
	Absolute
	AbsoluteOpenEnd
	AbsoluteOpenStart
)

// Spec is a parsed but unresolved time filter. Resolution happens against
// an explicit reference time so repeated calls within one request cannot
// drift.
type Spec struct {
	Kind   SpecKind
	Amount int64
	Start  time.Time
	End    time.Time
}

// minTimestamp is the open-start lower bound: 0001-01-01 00:00:00 UTC,
// the zero instant of time.Time, which Postgres timestamptz can hold.
var minTimestamp = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)

// Resolve turns the spec into a concrete range using now as the reference.
func (s Spec) Resolve(now time.Time) (Range, error) {
	now = now.UTC()
	var r Range
	switch s.Kind {
	case RelativeHours:
		r = Range{Start: now.Add(-time.Duration(s.Amount) * time.Hour), End: now}
	case RelativeDays:
		r = Range{Start: now.AddDate(0, 0, -int(s.Amount)), End: now}
	case Today:
		r = Range{Start: startOfDay(now), End: now}
	case Yesterday:
		midnight := startOfDay(now)
		r = Range{Start: midnight.AddDate(0, 0, -1), End: midnight}
	case Absolute:
		r = Range{Start: s.Start, End: s.End}
	case AbsoluteOpenEnd:
		r = Range{Start: s.Start, End: now}
	case AbsoluteOpenStart:
		r = Range{Start: minTimestamp, End: s.End}
	default:
		return Range{}, srqlerrors.NewInvalidRequest("unsupported time filter")
	}

	if r.Start.After(r.End) {
		return Range{}, srqlerrors.NewInvalidRequest("time range start must be before end")
	}
	return r, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Parse accepts the SRQL time token forms:
//
//   - last_24h, last7d, 7d, 24h, "last 7 days", "3 hours"
//   - today, yesterday
//   - [2025-01-01 00:00:00, 2025-01-02 00:00:00]
//   - [2025-11-16T09:06:34.543Z,]  (open end)
//   - [,2025-11-16T09:06:34.543Z]  (open start)
func Parse(raw string) (Spec, error) {
	value := strings.TrimSpace(raw)
	value = strings.Trim(value, `"'`)

	// Absolute ranges keep their case: RFC3339 literals are case-sensitive.
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return parseAbsoluteRange(value)
	}
	value = strings.ToLower(value)

	if spec, ok := parseRelativeKeyword(value); ok {
		return spec, nil
	}

	if strings.Contains(value, "day") || strings.Contains(value, "hour") {
		if spec, ok := parseNumericSuffix(stripSpaces(value)); ok {
			return spec, nil
		}
	}

	return Spec{}, srqlerrors.NewInvalidRequest("unsupported time token '%s'", raw)
}

func parseRelativeKeyword(value string) (Spec, bool) {
	switch value {
	case "today":
		return Spec{Kind: Today}, true
	case "yesterday":
		return Spec{Kind: Yesterday}, true
	}

	normalized := strings.NewReplacer("_", "", "-", "").Replace(value)
	if stripped, ok := strings.CutPrefix(normalized, "last"); ok {
		if spec, ok := parseNumericSuffix(stripped); ok {
			return spec, true
		}
	}
	if spec, ok := parseNumericSuffix(normalized); ok {
		return spec, true
	}
	return Spec{}, false
}

func stripSpaces(value string) string {
	var b strings.Builder
	for _, ch := range value {
		if ch != ' ' && ch != '\t' && ch != '"' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// parseNumericSuffix splits "<digits><unit>" and maps the unit onto hours
// or days. Any other unit is rejected.
func parseNumericSuffix(value string) (Spec, bool) {
	value = strings.TrimSpace(value)
	split := 0
	for split < len(value) && value[split] >= '0' && value[split] <= '9' {
		split++
	}

	if split == 0 {
		return Spec{}, false
	}
	var amount int64
	if _, err := fmt.Sscanf(value[:split], "%d", &amount); err != nil {
		return Spec{}, false
	}

	switch strings.TrimSpace(value[split:]) {
	case "h", "hour", "hours":
		return Spec{Kind: RelativeHours, Amount: amount}, true
	case "d", "day", "days":
		return Spec{Kind: RelativeDays, Amount: amount}, true
	}
	return Spec{}, false
}

func parseAbsoluteRange(value string) (Spec, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
	startRaw, endRaw, found := strings.Cut(inner, ",")
	if !found {
		return Spec{}, srqlerrors.NewInvalidRequest("invalid time range")
	}
	startRaw = strings.TrimSpace(startRaw)
	endRaw = strings.TrimSpace(endRaw)

	switch {
	case startRaw != "" && endRaw != "":
		start, err := parseDatetime(startRaw)
		if err != nil {
			return Spec{}, err
		}
		end, err := parseDatetime(endRaw)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: Absolute, Start: start, End: end}, nil
	case startRaw != "":
		start, err := parseDatetime(startRaw)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: AbsoluteOpenEnd, Start: start}, nil
	case endRaw != "":
		end, err := parseDatetime(endRaw)
		if err != nil {
			return Spec{}, err
		}
		return Spec{Kind: AbsoluteOpenStart, End: end}, nil
	}
	return Spec{}, srqlerrors.NewInvalidRequest("time range requires at least one bound")
}

func parseDatetime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, srqlerrors.NewInvalidRequest("invalid time literal '%s'", value)
}
