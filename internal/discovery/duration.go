package discovery

import (
	"fmt"
	"regexp"
	"strconv"
)

// isoDurationPattern matches the subset of ISO 8601 durations the Data API
// emits for contentDetails.duration, e.g. PT4M13S, PT1H2S, P1DT2H, P0D.
var isoDurationPattern = regexp.MustCompile(
	`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseISODuration converts an ISO 8601 duration to seconds.
func ParseISODuration(s string) (float64, error) {
	m := isoDurationPattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s[len(s)-1] == 'T' {
		return 0, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}

	units := []float64{7 * 24 * 3600, 24 * 3600, 3600, 60, 1}
	var total float64
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
		}
		total += v * unit
	}
	return total, nil
}
