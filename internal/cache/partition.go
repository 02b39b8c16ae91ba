package cache

import "strings"

const (
	// DefaultKey maps to the base ratings partition
	DefaultKey = "default"
	// EpisodesPrefix marks keys whose suffix is a sub-key of the shared episodes partition
	EpisodesPrefix = "episodes_"
	// FailedLookupsKey maps to the append-only failed lookups partition
	FailedLookupsKey = "failed_lookups"
)

// PartitionDescriptor describes where a logical key lives physically
type PartitionDescriptor struct {
	Name    string // physical partition name
	SubKey  string // entry inside a merged partition's items map
	Merged  bool   // partition holds a map of sub-keys sharing one timestamp
	Expires bool   // TTL applies
}

// PartitionFor maps a logical cache key to its partition under the given base name
func PartitionFor(base, key string) PartitionDescriptor {
	switch {
	case key == "" || key == DefaultKey:
		return PartitionDescriptor{Name: base, Expires: true}
	case key == FailedLookupsKey:
		return PartitionDescriptor{Name: base + "_" + FailedLookupsKey}
	case strings.HasPrefix(key, EpisodesPrefix):
		return PartitionDescriptor{
			Name:    base + "_episodes",
			SubKey:  strings.TrimPrefix(key, EpisodesPrefix),
			Merged:  true,
			Expires: true,
		}
	default:
		return PartitionDescriptor{Name: base + "_" + key, Expires: true}
	}
}

// EpisodesKey returns the cache key for a show's episode listing
func EpisodesKey(slug string) string {
	return EpisodesPrefix + slug
}
