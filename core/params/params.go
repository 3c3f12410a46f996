package params

import (
	"github.com/labstack/echo/v4"

	"schedulesync/core/utils"
)

type QueryParams struct {
	PageNumber int
	PageSize   int
}

// FromContext reads page/page_size query params with sane bounds.
func FromContext(c echo.Context) QueryParams {
	p := QueryParams{
		PageNumber: utils.ToNumberWithDefault(c.QueryParam("page"), 1),
		PageSize:   utils.ToNumberWithDefault(c.QueryParam("page_size"), 20),
	}
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	return p
}
