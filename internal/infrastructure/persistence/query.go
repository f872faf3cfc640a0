package persistence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pathway/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// notFound maps GORM's record-not-found to the domain sentinel
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// paginate applies sort and page window from the filter
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	offset := (filter.Page - 1) * filter.PageSize
	return query.Order(fmt.Sprintf("%s %s", field, dir)).Offset(offset).Limit(filter.PageSize)
}

// likePattern escapes LIKE wildcards in s and wraps it for a contains match
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(s))) + "%"
}

func filterString(filters map[string]any, key string) (string, bool) {
	v, ok := filters[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case fmt.Stringer:
		str := s.String()
		return str, str != ""
	}
	return "", false
}

func filterUUID(filters map[string]any, key string) (uuid.UUID, bool) {
	switch v := filters[key].(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case *uuid.UUID:
		if v != nil {
			return *v, *v != uuid.Nil
		}
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil
	}
	return uuid.Nil, false
}

func filterBool(filters map[string]any, key string) (bool, bool) {
	switch v := filters[key].(type) {
	case bool:
		return v, true
	case *bool:
		if v != nil {
			return *v, true
		}
	case string:
		switch strings.ToLower(v) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
	}
	return false, false
}

func filterTime(filters map[string]any, key string) (time.Time, bool) {
	switch v := filters[key].(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v != nil {
			return *v, !v.IsZero()
		}
	}
	return time.Time{}, false
}

func filterStrings(filters map[string]any, key string) ([]string, bool) {
	switch v := filters[key].(type) {
	case []string:
		return v, len(v) > 0
	}
	return nil, false
}

// applyDateRange filters column by start_date/end_date (inclusive of the end day)
func applyDateRange(query *gorm.DB, filters map[string]any, column string) *gorm.DB {
	if start, ok := filterTime(filters, "start_date"); ok {
		query = query.Where(column+" >= ?", start)
	}
	if end, ok := filterTime(filters, "end_date"); ok {
		query = query.Where(column+" < ?", end.AddDate(0, 0, 1))
	}
	return query
}
