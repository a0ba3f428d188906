package models

import (
	"context"
	"strings"
)

type SearchMode string

const (
	SearchAll    SearchMode = "ALL"
	SearchByName SearchMode = "BY_NAME"
	SearchByDate SearchMode = "BY_DATE"
	// SearchByTag returns every photo; the caller intersects the result with
	// PhotoTagRepository.GetPhotosForTag.
	SearchByTag SearchMode = "BY_TAG"
)

// SearchOptions bound a BY_DATE search on DateAdded, both ends inclusive.
// A nil bound leaves that side open.
type SearchOptions struct {
	DateFrom *int64
	DateTo   *int64
}

func (r *PhotoRepository) Search(ctx context.Context, query string, mode SearchMode, opts SearchOptions) ([]Photo, error) {
	tx := r.db.WithContext(ctx).Select(listColumns)
	if mode == SearchByDate {
		if opts.DateFrom != nil {
			tx = tx.Where("date_added >= ?", *opts.DateFrom)
		}
		if opts.DateTo != nil {
			tx = tx.Where("date_added <= ?", *opts.DateTo)
		}
	}
	photos := []Photo{}
	if err := tx.Find(&photos).Error; err != nil {
		return nil, err
	}
	sortPhotos(photos, SortByDateAdded, SortDesc)

	q := foldName(strings.TrimSpace(query))
	if (mode != SearchAll && mode != SearchByName) || q == "" {
		return photos, nil
	}
	result := []Photo{}
	for _, p := range photos {
		if matchesName(&p, q) {
			result = append(result, p)
		}
	}
	return result, nil
}

// matchesName expects q to be folded already
func matchesName(p *Photo, q string) bool {
	if strings.Contains(foldName(p.DisplayName), q) {
		return true
	}
	return p.CustomName != nil && strings.Contains(foldName(*p.CustomName), q)
}
