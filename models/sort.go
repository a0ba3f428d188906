package models

import (
	"sort"

	"golang.org/x/text/cases"
)

type SortKey string
type SortDir string

const (
	SortByDateAdded   SortKey = "dateAdded"
	SortByDisplayName SortKey = "displayName"
	SortBySize        SortKey = "size"

	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSort maps query values to a sort, falling back to newest first
func ParseSort(key, dir string) (SortKey, SortDir) {
	k := SortKey(key)
	if k != SortByDisplayName && k != SortBySize {
		k = SortByDateAdded
	}
	d := SortDir(dir)
	if d != SortAsc {
		d = SortDesc
	}
	return k, d
}

// foldName is the case-insensitive form of a name, used for sorting,
// searching and the unique name keys.
func foldName(s string) string {
	return cases.Fold().String(s)
}

func sortPhotos(photos []Photo, key SortKey, dir SortDir) {
	var less func(a, b *Photo) bool
	switch key {
	case SortByDisplayName:
		folded := make(map[uint64]string, len(photos))
		for i := range photos {
			folded[photos[i].ID] = foldName(photos[i].DisplayName)
		}
		less = func(a, b *Photo) bool {
			return folded[a.ID] < folded[b.ID]
		}
	case SortBySize:
		less = func(a, b *Photo) bool {
			return a.Size < b.Size
		}
	default:
		less = func(a, b *Photo) bool {
			return a.DateAdded < b.DateAdded
		}
	}
	sort.SliceStable(photos, func(i, j int) bool {
		if dir == SortAsc {
			return less(&photos[i], &photos[j])
		}
		return less(&photos[j], &photos[i])
	})
}
