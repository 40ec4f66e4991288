package handlers

import (
	fiber "github.com/gofiber/fiber/v2"

	"github.com/ceronops/jobcal/internal/db/models"
	"github.com/ceronops/jobcal/internal/types"
)

const (
	// DefaultPageSize is the default number of items per page
	DefaultPageSize = models.DefaultLimit
	// MaxPageSize is the maximum allowed page size
	MaxPageSize = 1000
)

// pageParams reads limit and offset, clamping the limit to MaxPageSize
func pageParams(c *fiber.Ctx) (limit, offset int, ok bool) {
	limit = c.QueryInt("limit", DefaultPageSize)
	offset = c.QueryInt("offset", 0)
	if limit < 0 || offset < 0 {
		return 0, 0, false
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit, offset, true
}

// listResponse wraps rows with their pagination
func listResponse[T any](rows []T, limit, offset int) types.ListResponse[T] {
	if rows == nil {
		rows = []T{}
	}
	return types.ListResponse[T]{
		Rows: rows,
		Pagination: types.PaginationResponse{
			Total:  len(rows),
			Limit:  limit,
			Offset: offset,
		},
	}
}
