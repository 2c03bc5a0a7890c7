package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
)

type regionApi struct {
	svc  *region.Service
	conf *core.Config
}

func registerRegionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := regionApi{svc: deps.RegionSvc, conf: deps.Conf}
	acl := aclMiddleware(regionAdminRoles...)

	dg := g.Group("/daerah", jwt, acl)
	dg.POST("", api.createDaerah)
	dg.GET("", api.queryDaerah)
	dg.GET("/:id", api.retrieveDaerah)
	dg.PUT("/:id", api.updateDaerah)
	dg.DELETE("/:id", api.destroyDaerah)

	sg := g.Group("/desa", jwt, acl)
	sg.POST("", api.createDesa)
	sg.GET("", api.queryDesa)
	sg.GET("/:id", api.retrieveDesa)
	sg.PUT("/:id", api.updateDesa)
	sg.DELETE("/:id", api.destroyDesa)

	kg := g.Group("/kelompok", jwt, acl)
	kg.POST("", api.createKelompok)
	kg.GET("", api.queryKelompok)
	kg.GET("/:id", api.retrieveKelompok)
	kg.PUT("/:id", api.updateKelompok)
	kg.DELETE("/:id", api.destroyKelompok)

	cg := g.Group("/count", jwt, aclMiddleware())
	cg.GET("/daerah", api.count(api.svc.CountDaerah))
	cg.GET("/desa", api.count(api.svc.CountDesa))
	cg.GET("/kelompok", api.count(api.svc.CountKelompok))
	cg.GET("/summary", api.summary)
}

func (api *regionApi) filter(ctx echo.Context) (region.QueryFilter, error) {
	page, err := bindPage(ctx, api.conf.Pagination, regionsDefaultLimit)
	if err != nil {
		return region.QueryFilter{}, err
	}
	return region.QueryFilter{
		Search:   ctx.QueryParam("search"),
		DaerahID: ctx.QueryParam("daerahId"),
		DesaID:   ctx.QueryParam("desaId"),
		Page:     page,
	}, nil
}

// Daerah

func (api *regionApi) createDaerah(ctx echo.Context) error {
	var data region.NewDaerah
	if err := bindBody(ctx, &data, "NewDaerah"); err != nil {
		return err
	}
	d, err := api.svc.CreateDaerah(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating daerah")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *regionApi) queryDaerah(ctx echo.Context) error {
	filter, err := api.filter(ctx)
	if err != nil {
		return err
	}
	daerah, total, err := api.svc.QueryDaerah(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying daerah")
	}
	return ctx.JSON(http.StatusOK, paginated(daerah, filter.Page, total))
}

func (api *regionApi) retrieveDaerah(ctx echo.Context) error {
	d, err := api.svc.GetDaerah(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding daerah")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *regionApi) updateDaerah(ctx echo.Context) error {
	var data region.NewDaerah
	if err := bindBody(ctx, &data, "NewDaerah"); err != nil {
		return err
	}
	d, err := api.svc.UpdateDaerah(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating daerah")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *regionApi) destroyDaerah(ctx echo.Context) error {
	if err := api.svc.DeleteDaerah(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting daerah")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Desa

func (api *regionApi) createDesa(ctx echo.Context) error {
	var data region.NewDesa
	if err := bindBody(ctx, &data, "NewDesa"); err != nil {
		return err
	}
	d, err := api.svc.CreateDesa(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating desa")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *regionApi) queryDesa(ctx echo.Context) error {
	filter, err := api.filter(ctx)
	if err != nil {
		return err
	}
	desa, total, err := api.svc.QueryDesa(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying desa")
	}
	return ctx.JSON(http.StatusOK, paginated(desa, filter.Page, total))
}

func (api *regionApi) retrieveDesa(ctx echo.Context) error {
	d, err := api.svc.GetDesa(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding desa")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *regionApi) updateDesa(ctx echo.Context) error {
	var data region.NewDesa
	if err := bindBody(ctx, &data, "NewDesa"); err != nil {
		return err
	}
	d, err := api.svc.UpdateDesa(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating desa")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *regionApi) destroyDesa(ctx echo.Context) error {
	if err := api.svc.DeleteDesa(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting desa")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Kelompok

func (api *regionApi) createKelompok(ctx echo.Context) error {
	var data region.NewKelompok
	if err := bindBody(ctx, &data, "NewKelompok"); err != nil {
		return err
	}
	k, err := api.svc.CreateKelompok(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating kelompok")
	}
	return ctx.JSON(http.StatusCreated, k)
}

func (api *regionApi) queryKelompok(ctx echo.Context) error {
	filter, err := api.filter(ctx)
	if err != nil {
		return err
	}
	kelompok, total, err := api.svc.QueryKelompok(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying kelompok")
	}
	return ctx.JSON(http.StatusOK, paginated(kelompok, filter.Page, total))
}

func (api *regionApi) retrieveKelompok(ctx echo.Context) error {
	k, err := api.svc.GetKelompok(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding kelompok")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *regionApi) updateKelompok(ctx echo.Context) error {
	var data region.NewKelompok
	if err := bindBody(ctx, &data, "NewKelompok"); err != nil {
		return err
	}
	k, err := api.svc.UpdateKelompok(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating kelompok")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *regionApi) destroyKelompok(ctx echo.Context) error {
	if err := api.svc.DeleteKelompok(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting kelompok")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Counts

type countResponse struct {
	Total int `json:"total"`
}

func (api *regionApi) count(countFn func(ctx context.Context) (int, error)) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		n, err := countFn(ctx.Request().Context())
		if err != nil {
			return errors.Wrap(err, "counting regions")
		}
		return ctx.JSON(http.StatusOK, countResponse{Total: n})
	}
}

func (api *regionApi) summary(ctx echo.Context) error {
	sum, err := api.svc.Summary(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "summarizing regions")
	}
	return ctx.JSON(http.StatusOK, sum)
}
