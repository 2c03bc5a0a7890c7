package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/report"
)

type reportApi struct {
	svc *report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{svc: deps.ReportSvc}
	acl := aclMiddleware()

	rg := g.Group("/rapor", jwt, acl)
	rg.POST("", api.create)
	rg.GET("", api.query)
	rg.GET("/caberawit/:caberawitId", api.lengkap)
	rg.PATCH("/:id", api.update)
	rg.DELETE("/:id", api.destroy)

	g.GET("/rapor-indikator", api.indikator, jwt, acl)

	cg := g.Group("/catatan-wali", jwt, acl)
	cg.PUT("", api.upsertCatatan)
	cg.GET("/:caberawitId", api.retrieveCatatan)
	cg.DELETE("/:caberawitId", api.destroyCatatan)
}

func (api *reportApi) create(ctx echo.Context) error {
	var data report.NewRaporBulk
	if err := bindBody(ctx, &data, "NewRaporBulk"); err != nil {
		return err
	}
	rapor, err := api.svc.CreateBulk(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating rapor")
	}
	return ctx.JSON(http.StatusCreated, rapor)
}

func (api *reportApi) filter(ctx echo.Context, caberawitID int64) report.RaporFilter {
	return report.RaporFilter{
		CaberawitID:   caberawitID,
		TahunAjaranID: ctx.QueryParam("tahunAjaranId"),
		Semester:      ctx.QueryParam("semester"),
	}
}

func (api *reportApi) query(ctx echo.Context) error {
	caberawitID, err := queryInt64(ctx, "caberawitId")
	if err != nil {
		return err
	}
	if caberawitID <= 0 {
		return core.NewFieldError("caberawitId", "this field is required")
	}
	rapor, err := api.svc.ListByCaberawit(ctx.Request().Context(), api.filter(ctx, caberawitID))
	if err != nil {
		return errors.Wrap(err, "listing rapor")
	}
	return ctx.JSON(http.StatusOK, rapor)
}

func (api *reportApi) lengkap(ctx echo.Context) error {
	caberawitID, err := paramID(ctx, "caberawitId")
	if err != nil {
		return err
	}
	lengkap, err := api.svc.Lengkap(ctx.Request().Context(), api.filter(ctx, caberawitID))
	if err != nil {
		return errors.Wrap(err, "building rapor lengkap")
	}
	return ctx.JSON(http.StatusOK, lengkap)
}

func (api *reportApi) update(ctx echo.Context) error {
	var data report.UpdateRapor
	if err := bindBody(ctx, &data, "UpdateRapor"); err != nil {
		return err
	}
	r, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating rapor")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reportApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting rapor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *reportApi) indikator(ctx echo.Context) error {
	indikator, err := api.svc.IndikatorByKelas(ctx.Request().Context(), ctx.QueryParam("kelasJenjangId"), ctx.QueryParam("semester"))
	if err != nil {
		return errors.Wrap(err, "listing rapor indikator")
	}
	return ctx.JSON(http.StatusOK, indikator)
}

// Catatan wali kelas

func (api *reportApi) upsertCatatan(ctx echo.Context) error {
	var data report.NewCatatan
	if err := bindBody(ctx, &data, "NewCatatan"); err != nil {
		return err
	}
	c, err := api.svc.UpsertCatatan(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving catatan")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *reportApi) catatanKey(ctx echo.Context) (report.CatatanKey, error) {
	caberawitID, err := paramID(ctx, "caberawitId")
	if err != nil {
		return report.CatatanKey{}, err
	}
	return report.CatatanKey{
		CaberawitID:   caberawitID,
		TahunAjaranID: ctx.QueryParam("tahunAjaranId"),
		Semester:      ctx.QueryParam("semester"),
	}, nil
}

func (api *reportApi) retrieveCatatan(ctx echo.Context) error {
	key, err := api.catatanKey(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetCatatan(ctx.Request().Context(), key)
	if err != nil {
		return errors.Wrap(err, "finding catatan")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *reportApi) destroyCatatan(ctx echo.Context) error {
	key, err := api.catatanKey(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCatatan(ctx.Request().Context(), key); err != nil {
		return errors.Wrap(err, "deleting catatan")
	}
	return ctx.NoContent(http.StatusNoContent)
}
