package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
)

// regionsDefaultLimit is the default page size of region listings.
const regionsDefaultLimit = 100

func bindBody(ctx echo.Context, v interface{}, name string) error {
	if err := ctx.Bind(v); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}

// bindPage reads `page` and `limit`, falling back to defaultLimit and capping at conf.MaxLimit.
func bindPage(ctx echo.Context, conf core.PaginationConfig, defaultLimit int) (core.Page, error) {
	page := core.Page{Page: 1, Limit: defaultLimit}

	if p, err := queryInt(ctx, "page"); err != nil {
		return page, err
	} else if p != nil && *p > 0 {
		page.Page = *p
	}
	if l, err := queryInt(ctx, "limit"); err != nil {
		return page, err
	} else if l != nil && *l > 0 {
		page.Limit = *l
	}
	if conf.MaxLimit > 0 && page.Limit > conf.MaxLimit {
		page.Limit = conf.MaxLimit
	}
	return page, nil
}

func queryInt(ctx echo.Context, name string) (*int, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return nil, core.NewFieldError(name, "must be a number")
	}
	return &n, nil
}

func queryInt64(ctx echo.Context, name string) (int64, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, core.NewFieldError(name, "must be a number")
	}
	return n, nil
}

func queryBool(ctx echo.Context, name string) (*bool, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return nil, core.NewFieldError(name, "must be true or false")
	}
	return &b, nil
}

func queryDate(ctx echo.Context, name string) (*core.Date, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return nil, nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return nil, core.NewFieldError(name, "must be a date formatted as YYYY-MM-DD")
	}
	return &d, nil
}

// paramID reads a numeric path param. Malformed ids are reported as not found.
func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

func paginated(data interface{}, page core.Page, total int) core.Paginated {
	return core.Paginated{Data: data, Pagination: core.NewPageInfo(page, total)}
}
