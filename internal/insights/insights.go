// Package insights groups a user's recommendation history into recurring
// moods using k-means over mood score vectors.
package insights

import (
	"slices"
	"time"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/moodtunes/internal/db"
	"github.com/justestif/moodtunes/internal/logging"
	"github.com/justestif/moodtunes/internal/music"
)

// Config holds clustering parameters.
type Config struct {
	NumClusters    int // Number of clusters to create (default: 3)
	MinClusterSize int // Minimum entries per cluster (smaller clusters become outliers)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		NumClusters:    3,
		MinClusterSize: 2,
	}
}

// MoodCluster is a group of history entries with similar mood profiles.
type MoodCluster struct {
	Name          string             `json:"name"`          // e.g. "Happy & Energetic: Jan 15, 2024 - Feb 3, 2024"
	DominantMoods []string           `json:"dominantMoods"` // strongest first
	Centroid      map[string]float64 `json:"centroid"`
	Entries       int                `json:"entries"`
	StartDate     time.Time          `json:"startDate"`
	EndDate       time.Time          `json:"endDate"`
}

// Result is the outcome of Cluster.
type Result struct {
	Clusters []MoodCluster `json:"clusters"`
	Outliers int           `json:"outliers"`
	Total    int           `json:"total"`
}

// entryObservation wraps a history entry to implement clusters.Observation.
type entryObservation struct {
	entry  *db.HistoryEntry
	coords clusters.Coordinates
}

func (o entryObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o entryObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

// Cluster groups entries by mood similarity. Clusters are ordered by most
// recent activity first. With fewer entries than clusters every entry is
// an outlier.
func Cluster(entries []db.HistoryEntry, cfg Config) Result {
	result := Result{Clusters: []MoodCluster{}, Total: len(entries)}
	if len(entries) == 0 {
		return result
	}

	if cfg.NumClusters <= 0 {
		cfg.NumClusters = DefaultConfig().NumClusters
	}
	if len(entries) < cfg.NumClusters {
		result.Outliers = len(entries)
		return result
	}

	var obs clusters.Observations
	for i := range entries {
		obs = append(obs, entryObservation{entry: &entries[i], coords: moodVector(entries[i].Mood)})
	}

	partition, err := kmeans.New().Partition(obs, cfg.NumClusters)
	if err != nil {
		logging.Warn().Err(err).Msg("k-means clustering failed")
		result.Outliers = len(entries)
		return result
	}

	seen := make(map[*db.HistoryEntry]bool, len(entries))
	for _, c := range partition {
		members := make([]*db.HistoryEntry, 0, len(c.Observations))
		for _, o := range c.Observations {
			eo, ok := o.(entryObservation)
			if !ok || seen[eo.entry] {
				continue
			}
			seen[eo.entry] = true
			members = append(members, eo.entry)
		}
		if len(members) == 0 {
			continue
		}
		if len(members) < cfg.MinClusterSize {
			result.Outliers += len(members)
			continue
		}
		result.Clusters = append(result.Clusters, buildCluster(members, c.Center))
	}

	slices.SortFunc(result.Clusters, func(a, b MoodCluster) int {
		return b.EndDate.Compare(a.EndDate) // Descending
	})
	return result
}

func buildCluster(members []*db.HistoryEntry, center clusters.Coordinates) MoodCluster {
	start, end := members[0].Timestamp, members[0].Timestamp
	for _, m := range members[1:] {
		if m.Timestamp.Before(start) {
			start = m.Timestamp
		}
		if m.Timestamp.After(end) {
			end = m.Timestamp
		}
	}

	centroid := make(map[string]float64, len(music.Moods))
	for i, name := range music.Moods {
		centroid[name] = center[i]
	}

	dominant := dominantMoods(centroid)
	return MoodCluster{
		Name:          formatClusterName(clusterLabel(dominant), start, end),
		DominantMoods: dominant,
		Centroid:      centroid,
		Entries:       len(members),
		StartDate:     start,
		EndDate:       end,
	}
}

// moodVector returns the entry's scores over music.Moods scaled so the
// strongest mood is 1. Keyword analyses carry raw hit counts, so scaling
// puts them on the same footing as model scores. An entry with no scores
// is placed on its primary mood.
func moodVector(m music.MoodAnalysis) clusters.Coordinates {
	v := m.Vector()
	peak := slices.Max(v)
	if peak <= 0 {
		v = make([]float64, len(music.Moods))
		i := slices.Index(music.Moods, m.PrimaryMood)
		if i < 0 {
			i = slices.Index(music.Moods, music.MoodNeutral)
		}
		v[i] = 1
		return v
	}
	for i := range v {
		v[i] /= peak
	}
	return v
}
