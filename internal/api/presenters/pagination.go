package presenters

import (
	"strconv"

	"foodgram/domain"
	"foodgram/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const maxPageSize = 100

// ParsePagination reads ?page and ?limit. Missing or broken values fall back
// to the first page and PAGE_SIZE.
func ParsePagination(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	limit := c.QueryInt("limit", utils.GetConfigInt("PAGE_SIZE", 6))
	if limit < 1 {
		limit = utils.GetConfigInt("PAGE_SIZE", 6)
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

// Paginate wraps one page of results with absolute links to its neighbours.
func Paginate[T any](c *fiber.Ctx, results []T, count int64, page, limit int) domain.Pagination[T] {
	if results == nil {
		results = []T{}
	}

	res := domain.Pagination[T]{
		Count:   count,
		Results: results,
	}
	if int64(page*limit) < count {
		next := pageURL(c, page+1)
		res.Next = &next
	}
	if page > 1 {
		previous := pageURL(c, page-1)
		res.Previous = &previous
	}
	return res
}

func pageURL(c *fiber.Ctx, page int) string {
	var args fasthttp.Args
	c.Request().URI().QueryArgs().CopyTo(&args)
	if page <= 1 {
		args.Del("page")
	} else {
		args.Set("page", strconv.Itoa(page))
	}

	url := c.BaseURL() + c.Path()
	if query := args.QueryString(); len(query) > 0 {
		url += "?" + string(query)
	}
	return url
}
