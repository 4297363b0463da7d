package insights

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/justestif/moodtunes/internal/music"
)

// secondaryRatio is how close the runner-up mood must be to the top mood
// to be named alongside it.
const secondaryRatio = 0.75

// dominantMoods returns the top mood and, if close enough, the runner-up.
// Ties keep the music.Moods order.
func dominantMoods(centroid map[string]float64) []string {
	ranked := slices.Clone(music.Moods)
	slices.SortStableFunc(ranked, func(a, b string) int {
		switch {
		case centroid[a] > centroid[b]:
			return -1
		case centroid[a] < centroid[b]:
			return 1
		}
		return 0
	})

	top := ranked[0]
	if centroid[top] <= 0 {
		return []string{music.MoodNeutral}
	}
	out := []string{top}
	if second := ranked[1]; centroid[second] >= centroid[top]*secondaryRatio {
		out = append(out, second)
	}
	return out
}

// clusterLabel title-cases and joins the moods: "Happy & Energetic".
func clusterLabel(moods []string) string {
	parts := make([]string, len(moods))
	for i, m := range moods {
		parts[i] = strings.ToUpper(m[:1]) + m[1:]
	}
	return strings.Join(parts, " & ")
}

// formatClusterName combines a label with a date range.
func formatClusterName(label string, start, end time.Time) string {
	const dateFormat = "Jan 2, 2006"
	startStr := start.Format(dateFormat)
	endStr := end.Format(dateFormat)

	if startStr == endStr {
		return fmt.Sprintf("%s: %s", label, startStr)
	}
	return fmt.Sprintf("%s: %s - %s", label, startStr, endStr)
}
