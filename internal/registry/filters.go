package registry

import (
	"strconv"
	"strings"
	"time"
)

// FilterType distinguishes how a raw filter value is parsed.
type FilterType string

const (
	FilterDateRange FilterType = "date_range"
	FilterBoolean   FilterType = "boolean"
	FilterEnum      FilterType = "enum"
	FilterText      FilterType = "text"
)

// FilterDescriptor declares one filter a collection understands. Enum
// filters list their accepted values in Options.
type FilterDescriptor struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Type    FilterType `json:"type"`
	Options []string   `json:"options,omitempty"`
}

// FilterValue is one parsed, typed filter value. Only the member matching
// the descriptor's type is meaningful.
type FilterValue struct {
	Text string
	Bool bool
	Enum string
	From time.Time
	To   time.Time
}

// FilterValues maps filter keys to their parsed values. Absent keys mean
// the filter is not applied.
type FilterValues map[string]FilterValue

// Has reports whether a filter value was supplied and parsed for key.
func (fv FilterValues) Has(key string) bool {
	_, ok := fv[key]
	return ok
}

// dateLayouts are the accepted date formats for range bounds, most
// specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseFilters converts raw string filter values into typed ones according
// to the collection's filter descriptors. Unparseable values are treated
// as absent, never as an error: a bad filter degrades the query, it does
// not fail the execution. Keys with no matching descriptor are ignored.
func ParseFilters(descs []FilterDescriptor, raw map[string]string) FilterValues {
	parsed := make(FilterValues)
	if len(raw) == 0 {
		return parsed
	}

	for _, desc := range descs {
		value, ok := raw[desc.Key]
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch desc.Type {
		case FilterBoolean:
			b, err := strconv.ParseBool(value)
			if err != nil {
				continue
			}
			parsed[desc.Key] = FilterValue{Bool: b}

		case FilterEnum:
			for _, opt := range desc.Options {
				if strings.EqualFold(opt, value) {
					parsed[desc.Key] = FilterValue{Enum: opt}
					break
				}
			}

		case FilterDateRange:
			// Accepted shapes: "from..to", "from..", "..to", or a single
			// date meaning that day onward.
			fromRaw, toRaw := value, ""
			if idx := strings.Index(value, ".."); idx >= 0 {
				fromRaw, toRaw = value[:idx], value[idx+2:]
			}
			var fv FilterValue
			matched := false
			if fromRaw != "" {
				if t, ok := parseDate(fromRaw); ok {
					fv.From = t
					matched = true
				} else {
					continue
				}
			}
			if toRaw != "" {
				if t, ok := parseDate(toRaw); ok {
					fv.To = t
					matched = true
				} else {
					continue
				}
			}
			if matched {
				parsed[desc.Key] = fv
			}

		case FilterText:
			parsed[desc.Key] = FilterValue{Text: value}
		}
	}
	return parsed
}
