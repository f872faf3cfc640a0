package export

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/pathway/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ptrColumns = []Column[*row]{
	{"name", func(r *row) string { return r.name }},
}

func pagesOf(total int) (Fetch[row], *[]int) {
	var pages []int
	return func(_ context.Context, filter shared.Filter) ([]row, error) {
		pages = append(pages, filter.Page)
		start := (filter.Page - 1) * filter.PageSize
		var out []row
		for i := start; i < total && i < start+filter.PageSize; i++ {
			out = append(out, row{name: "r" + strconv.Itoa(i)})
		}
		return out, nil
	}, &pages
}

func TestStream_PagesUntilShortPage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ptrColumns)
	fetch, pages := pagesOf(250)

	n, err := Stream(context.Background(), w, shared.DefaultFilter(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	assert.Equal(t, []int{1, 2, 3}, *pages)

	records := parse(t, buf.String())
	require.Len(t, records, 251)
	assert.Equal(t, "r249", records[250][0])
}

func TestStream_ExactPageBoundary(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ptrColumns)
	fetch, pages := pagesOf(200)

	n, err := Stream(context.Background(), w, shared.DefaultFilter(), fetch)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	// Third page comes back empty and ends the stream
	assert.Equal(t, []int{1, 2, 3}, *pages)
}

func TestStream_Empty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ptrColumns)
	fetch, _ := pagesOf(0)

	n, err := Stream(context.Background(), w, shared.DefaultFilter(), fetch)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, [][]string{{"name"}}, parse(t, buf.String()))
}

func TestStream_FetchError(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ptrColumns)
	boom := errors.New("db gone")

	_, err := Stream(context.Background(), w, shared.DefaultFilter(), func(context.Context, shared.Filter) ([]row, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestStream_CancelledContext(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, ptrColumns)
	fetch, pages := pagesOf(50)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Stream(ctx, w, shared.DefaultFilter(), fetch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *pages)
}
