package models

import (
	"strings"

	"gorm.io/gorm"
)

// CollectionQuery filters a listing. "" or "all" disables a filter.
type CollectionQuery struct {
	Search   string `form:"q"`
	Category string `form:"category"`
	Series   string `form:"series"`
	Sort     string `form:"sort"` // created_at|title|category|series
}

var sortOrders = map[string]string{
	"title":    "title ASC",
	"category": "category ASC",
	"series":   "COALESCE(book_series, '') ASC",
}

func ListCollections(db *gorm.DB, owner uint, q CollectionQuery) ([]VoiceCollection, error) {
	tx := db.Model(&VoiceCollection{}).Where("user_id = ?", owner)

	if term := strings.ToLower(strings.TrimSpace(q.Search)); term != "" {
		like := "%" + term + "%"
		tx = tx.Where(
			"(LOWER(title) LIKE ? OR LOWER(original_text) LIKE ? OR LOWER(category) LIKE ? OR LOWER(COALESCE(book_series, '')) LIKE ?)",
			like, like, like, like,
		)
	}
	if c := strings.TrimSpace(q.Category); c != "" && c != "all" {
		tx = tx.Where("category = ?", c)
	}
	if s := strings.TrimSpace(q.Series); s != "" && s != "all" {
		tx = tx.Where("book_series = ?", s)
	}

	if order, ok := sortOrders[q.Sort]; ok {
		tx = tx.Order(order)
	}
	tx = tx.Order("created_at DESC")

	var rows []VoiceCollection
	if err := tx.Find(&rows).Error; err != nil {
		return nil, persistErr("list collections", err)
	}
	return rows, nil
}

type SeriesGroup struct {
	Series      string            `json:"series"`
	Collections []VoiceCollection `json:"collections"`
}

// GroupBySeries buckets records by series in first-seen order; records
// without a series go to NoSeries.
func GroupBySeries(rows []VoiceCollection) []SeriesGroup {
	idx := map[string]int{}
	var groups []SeriesGroup
	for _, r := range rows {
		name := NoSeries
		if r.BookSeries != nil && *r.BookSeries != "" {
			name = *r.BookSeries
		}
		i, ok := idx[name]
		if !ok {
			i = len(groups)
			idx[name] = i
			groups = append(groups, SeriesGroup{Series: name})
		}
		groups[i].Collections = append(groups[i].Collections, r)
	}
	return groups
}

// SeriesNames lists the distinct series of rows.
func SeriesNames(rows []VoiceCollection) []string {
	seen := map[string]bool{}
	var names []string
	for _, r := range rows {
		if r.BookSeries != nil && *r.BookSeries != "" && !seen[*r.BookSeries] {
			seen[*r.BookSeries] = true
			names = append(names, *r.BookSeries)
		}
	}
	return names
}
