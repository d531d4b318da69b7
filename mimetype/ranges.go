package mimetype

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// DefaultQuality is the weight of a range that declares no "q" parameter.
const DefaultQuality = 1.0

// qvalue grammar of RFC 7231: 0 to 1 with at most three decimals.
var qualityPattern = regexp.MustCompile(`^(?:0(?:\.[0-9]{0,3})?|1(?:\.0{0,3})?)$`)

/*
Range is one entry of an Accept-style header: a media type plus its quality weight
and its ordinal position among the valid entries of the header it was parsed from.

Parameters listed after "q" are accept-extensions and are dropped when parsing.
*/
type Range struct {
	MediaType

	// Quality weight in [0.0, 1.0]. Ranges of quality 0 are never matched.
	Quality float64

	// Position of this range among the valid ranges of its header.
	Position int
}

// NewRange wraps mediaType with the given quality, clamped to [0, 1]. NaN counts as 0.
func NewRange(mediaType MediaType, quality float64) Range {
	switch {
	case math.IsNaN(quality) || quality < 0:
		quality = 0
	case quality > 1:
		quality = 1
	}
	return Range{MediaType: mediaType, Quality: quality}
}

func parseQuality(value string) (float64, error) {
	if !qualityPattern.MatchString(value) {
		return 0, xerrors.Errorf("invalid quality %q: %w", value, ErrMalformed)
	}
	return strconv.ParseFloat(value, 64)
}

// ParseRange parses a single header entry such as "text/html;level=1;q=0.7".
func ParseRange(token string) (Range, error) {
	mainType, subType, params, err := scanMediaType(token)
	if err != nil {
		return Range{}, err
	}

	quality := DefaultQuality
	for i, param := range params {
		if param.Name != "q" {
			continue
		}

		quality, err = parseQuality(param.Value)
		if err != nil {
			return Range{}, err
		}
		params = params[:i]
		break
	}

	if len(params) == 0 {
		params = nil
	}

	return Range{
		MediaType: MediaType{mainType: mainType, subType: subType, params: params},
		Quality:   quality,
	}, nil
}

/*
ParseRanges parses a comma separated header value into ranges in header order.
Malformed entries are skipped and parsing continues with the remaining entries, so a
single bad token never discards the whole header. Positions are assigned to the
valid entries in order, starting at 0.
*/
func ParseRanges(header string) []Range {
	var ranges []Range

	for _, token := range splitQuoted(header, ',') {
		if strings.TrimSpace(token) == "" {
			continue
		}

		parsed, err := ParseRange(token)
		if err != nil {
			continue
		}

		parsed.Position = len(ranges)
		ranges = append(ranges, parsed)
	}

	return ranges
}

// String formats the range. The quality is only written when it differs from
// DefaultQuality.
func (mediaRange Range) String() string {
	formatted := mediaRange.MediaType.String()
	if mediaRange.Quality != DefaultQuality {
		formatted += ";q=" + strconv.FormatFloat(mediaRange.Quality, 'f', -1, 64)
	}
	return formatted
}

// Acceptable reports whether the range can take part in matching.
func (mediaRange Range) Acceptable() bool {
	return mediaRange.Quality > 0
}

// FormatRanges formats ranges in the given order as a header value.
func FormatRanges(ranges []Range) string {
	formatted := make([]string, len(ranges))
	for i, mediaRange := range ranges {
		formatted[i] = mediaRange.String()
	}
	return strings.Join(formatted, ", ")
}

// SortRanges returns a copy of ranges ordered by descending quality. Ranges of equal
// quality keep the order the client listed them in.
func SortRanges(ranges []Range) []Range {
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Quality != sorted[j].Quality {
			return sorted[i].Quality > sorted[j].Quality
		}
		return sorted[i].Position < sorted[j].Position
	})
	return sorted
}
