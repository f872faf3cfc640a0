package export

import (
	"context"

	"github.com/pathway/backend/internal/domain/shared"
)

// MaxRows bounds a single export
const MaxRows = 50000

// pageSize is the largest page repositories hand out
const pageSize = 100

// Fetch loads one page of records
type Fetch[T any] func(ctx context.Context, filter shared.Filter) ([]T, error)

// Stream pages through fetch and writes every record to w. It stops at a
// short page or after MaxRows and returns the number of rows written.
func Stream[T any](ctx context.Context, w *Writer[*T], filter shared.Filter, fetch Fetch[T]) (int, error) {
	filter.PageSize = pageSize
	filter.Page = 1
	for w.Rows() < MaxRows {
		if err := ctx.Err(); err != nil {
			return w.Rows(), err
		}
		page, err := fetch(ctx, filter)
		if err != nil {
			return w.Rows(), err
		}
		for i := range page {
			if w.Rows() >= MaxRows {
				break
			}
			if err := w.Write(&page[i]); err != nil {
				return w.Rows(), err
			}
		}
		if len(page) < pageSize {
			break
		}
		filter.Page++
	}
	return w.Rows(), w.Flush()
}
