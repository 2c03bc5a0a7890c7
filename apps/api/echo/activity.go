package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core/activity"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := activityApi{svc: deps.ActivitySvc}
	acl := aclMiddleware(scopedAdminRoles...)

	kg := g.Group("/kegiatan", jwt, acl)
	kg.POST("", api.create)
	kg.GET("", api.query)
	kg.GET("/:id", api.retrieve)
	kg.PUT("/:id", api.update)
	kg.DELETE("/:id", api.destroy)

	ag := g.Group("/absen", jwt)
	ag.POST("", api.record, aclMiddleware())
	ag.GET("/kegiatan/:kegiatanId", api.absenByKegiatan, acl)
	ag.GET("/generus/:mumiId", api.absenByGenerus, acl)
	ag.DELETE("/:id", api.destroyAbsen, acl)

	mg := g.Group("/me", jwt, generusMiddleware)
	mg.GET("/kegiatan", api.forGenerus)
}

func (api *activityApi) create(ctx echo.Context) error {
	var data activity.NewKegiatan
	if err := bindBody(ctx, &data, "NewKegiatan"); err != nil {
		return err
	}
	k, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating kegiatan")
	}
	return ctx.JSON(http.StatusCreated, k)
}

func (api *activityApi) query(ctx echo.Context) error {
	filter := activity.QueryFilter{
		DaerahID:   ctx.QueryParam("daerahId"),
		DesaID:     ctx.QueryParam("desaId"),
		KelompokID: ctx.QueryParam("kelompokId"),
		Tingkat:    ctx.QueryParam("tingkat"),
		JenjangID:  ctx.QueryParam("jenjangId"),
	}
	kegiatan, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying kegiatan")
	}
	return ctx.JSON(http.StatusOK, kegiatan)
}

func (api *activityApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.Detail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding kegiatan")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *activityApi) update(ctx echo.Context) error {
	var data activity.NewKegiatan
	if err := bindBody(ctx, &data, "NewKegiatan"); err != nil {
		return err
	}
	k, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating kegiatan")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *activityApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting kegiatan")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Absen

func (api *activityApi) record(ctx echo.Context) error {
	var data activity.NewAbsen
	if err := bindBody(ctx, &data, "NewAbsen"); err != nil {
		return err
	}
	a, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording absen")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *activityApi) absenByKegiatan(ctx echo.Context) error {
	absens, err := api.svc.AbsenByKegiatan(ctx.Request().Context(), ctx.Param("kegiatanId"))
	if err != nil {
		return errors.Wrap(err, "listing absen by kegiatan")
	}
	return ctx.JSON(http.StatusOK, absens)
}

func (api *activityApi) absenByGenerus(ctx echo.Context) error {
	mumiID, err := paramID(ctx, "mumiId")
	if err != nil {
		return err
	}
	absens, err := api.svc.AbsenByGenerus(ctx.Request().Context(), mumiID)
	if err != nil {
		return errors.Wrap(err, "listing absen by generus")
	}
	return ctx.JSON(http.StatusOK, absens)
}

func (api *activityApi) destroyAbsen(ctx echo.Context) error {
	if err := api.svc.DeleteAbsen(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting absen")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// forGenerus lists the kegiatan targeting the authenticated generus.
func (api *activityApi) forGenerus(ctx echo.Context) error {
	mumiID, err := getContextGenerusID(ctx)
	if err != nil {
		return err
	}
	tanggal, err := queryDate(ctx, "tanggal")
	if err != nil {
		return err
	}
	kegiatan, err := api.svc.ForGenerus(ctx.Request().Context(), mumiID, ctx.QueryParam("tingkat"), tanggal)
	if err != nil {
		return errors.Wrap(err, "listing kegiatan of generus")
	}
	return ctx.JSON(http.StatusOK, kegiatan)
}
