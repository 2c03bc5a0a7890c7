package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core/curriculum"
)

type curriculumApi struct {
	svc *curriculum.Service
}

func registerCurriculumAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := curriculumApi{svc: deps.CurriculumSvc}
	read := aclMiddleware()
	write := aclMiddleware(curriculumRoles...)

	jg := g.Group("/jenjang", jwt)
	jg.POST("", api.createJenjang, write)
	jg.GET("", api.listJenjang, read)
	jg.GET("/:id", api.retrieveJenjang, read)
	jg.PUT("/:id", api.updateJenjang, write)
	jg.DELETE("/:id", api.destroyJenjang, write)

	kg := g.Group("/kelasjenjang", jwt)
	kg.POST("", api.createKelas, write)
	kg.GET("", api.listKelas, read)
	kg.GET("/:id", api.retrieveKelas, read)
	kg.PUT("/:id", api.updateKelas, write)
	kg.DELETE("/:id", api.destroyKelas, write)

	tg := g.Group("/tahunajaran", jwt)
	tg.POST("", api.createTahun, write)
	tg.GET("", api.listTahun, read)
	tg.GET("/:id", api.retrieveTahun, read)
	tg.PUT("/:id", api.updateTahun, write)
	tg.DELETE("/:id", api.destroyTahun, write)

	mg := g.Group("/mapel", jwt)
	mg.POST("", api.createMapel, write)
	mg.GET("", api.listMapel, read)
	mg.GET("/:id", api.retrieveMapel, read)
	mg.PUT("/:id", api.updateMapel, write)
	mg.DELETE("/:id", api.destroyMapel, write)

	cg := g.Group("/kategori-indikator", jwt)
	cg.POST("", api.createKategori, write)
	cg.GET("", api.listKategori, read)
	cg.GET("/:id", api.retrieveKategori, read)
	cg.PUT("/:id", api.updateKategori, write)
	cg.DELETE("/:id", api.destroyKategori, write)

	ig := g.Group("/indikator", jwt)
	ig.POST("", api.createIndikator, write)
	ig.GET("", api.listIndikator, read)
	ig.GET("/:id", api.retrieveIndikator, read)
	ig.PUT("/:id", api.updateIndikator, write)
	ig.DELETE("/:id", api.destroyIndikator, write)
}

func (api *curriculumApi) deleted(ctx echo.Context, err error, what string) error {
	if err != nil {
		return errors.Wrap(err, "deleting "+what)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Jenjang

func (api *curriculumApi) createJenjang(ctx echo.Context) error {
	var data curriculum.NewJenjang
	if err := bindBody(ctx, &data, "NewJenjang"); err != nil {
		return err
	}
	j, err := api.svc.CreateJenjang(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating jenjang")
	}
	return ctx.JSON(http.StatusCreated, j)
}

func (api *curriculumApi) listJenjang(ctx echo.Context) error {
	jenjang, err := api.svc.ListJenjang(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing jenjang")
	}
	return ctx.JSON(http.StatusOK, jenjang)
}

func (api *curriculumApi) retrieveJenjang(ctx echo.Context) error {
	j, err := api.svc.GetJenjang(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding jenjang")
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *curriculumApi) updateJenjang(ctx echo.Context) error {
	var data curriculum.NewJenjang
	if err := bindBody(ctx, &data, "NewJenjang"); err != nil {
		return err
	}
	j, err := api.svc.UpdateJenjang(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating jenjang")
	}
	return ctx.JSON(http.StatusOK, j)
}

func (api *curriculumApi) destroyJenjang(ctx echo.Context) error {
	return api.deleted(ctx, api.svc.DeleteJenjang(ctx.Request().Context(), ctx.Param("id")), "jenjang")
}

// KelasJenjang

func (api *curriculumApi) createKelas(ctx echo.Context) error {
	var data curriculum.NewKelasJenjang
	if err := bindBody(ctx, &data, "NewKelasJenjang"); err != nil {
		return err
	}
	k, err := api.svc.CreateKelasJenjang(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating kelas jenjang")
	}
	return ctx.JSON(http.StatusCreated, k)
}

func (api *curriculumApi) listKelas(ctx echo.Context) error {
	kelas, err := api.svc.ListKelasJenjang(ctx.Request().Context(), ctx.QueryParam("jenjangId"))
	if err != nil {
		return errors.Wrap(err, "listing kelas jenjang")
	}
	return ctx.JSON(http.StatusOK, kelas)
}

func (api *curriculumApi) retrieveKelas(ctx echo.Context) error {
	k, err := api.svc.GetKelasJenjang(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding kelas jenjang")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *curriculumApi) updateKelas(ctx echo.Context) error {
	var data curriculum.NewKelasJenjang
	if err := bindBody(ctx, &data, "NewKelasJenjang"); err != nil {
		return err
	}
	k, err := api.svc.UpdateKelasJenjang(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating kelas jenjang")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *curriculumApi) destroyKelas(ctx echo.Context) error {
	return api.deleted(ctx, api.svc.DeleteKelasJenjang(ctx.Request().Context(), ctx.Param("id")), "kelas jenjang")
}

// TahunAjaran

func (api *curriculumApi) createTahun(ctx echo.Context) error {
	var data curriculum.NewTahunAjaran
	if err := bindBody(ctx, &data, "NewTahunAjaran"); err != nil {
		return err
	}
	t, err := api.svc.CreateTahunAjaran(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating tahun ajaran")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *curriculumApi) listTahun(ctx echo.Context) error {
	tahun, err := api.svc.ListTahunAjaran(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing tahun ajaran")
	}
	return ctx.JSON(http.StatusOK, tahun)
}

func (api *curriculumApi) retrieveTahun(ctx echo.Context) error {
	t, err := api.svc.GetTahunAjaran(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding tahun ajaran")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *curriculumApi) updateTahun(ctx echo.Context) error {
	var data curriculum.NewTahunAjaran
	if err := bindBody(ctx, &data, "NewTahunAjaran"); err != nil {
		return err
	}
	t, err := api.svc.UpdateTahunAjaran(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating tahun ajaran")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *curriculumApi) destroyTahun(ctx echo.Context) error {
	return api.deleted(ctx, api.svc.DeleteTahunAjaran(ctx.Request().Context(), ctx.Param("id")), "tahun ajaran")
}

// MataPelajaran

func (api *curriculumApi) createMapel(ctx echo.Context) error {
	var data curriculum.NewJenjang
	if err := bindBody(ctx, &data, "NewMataPelajaran"); err != nil {
		return err
	}
	m, err := api.svc.CreateMataPelajaran(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating mata pelajaran")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *curriculumApi) listMapel(ctx echo.Context) error {
	mapel, err := api.svc.ListMataPelajaran(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing mata pelajaran")
	}
	return ctx.JSON(http.StatusOK, mapel)
}

func (api *curriculumApi) retrieveMapel(ctx echo.Context) error {
	m, err := api.svc.GetMataPelajaran(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding mata pelajaran")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *curriculumApi) updateMapel(ctx echo.Context) error {
	var data curriculum.NewJenjang
	if err := bindBody(ctx, &data, "NewMataPelajaran"); err != nil {
		return err
	}
	m, err := api.svc.UpdateMataPelajaran(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating mata pelajaran")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *curriculumApi) destroyMapel(ctx echo.Context) error {
	return api.deleted(ctx, api.svc.DeleteMataPelajaran(ctx.Request().Context(), ctx.Param("id")), "mata pelajaran")
}

// KategoriIndikator

func (api *curriculumApi) createKategori(ctx echo.Context) error {
	var data curriculum.NewKategoriIndikator
	if err := bindBody(ctx, &data, "NewKategoriIndikator"); err != nil {
		return err
	}
	k, err := api.svc.CreateKategoriIndikator(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating kategori indikator")
	}
	return ctx.JSON(http.StatusCreated, k)
}

func (api *curriculumApi) listKategori(ctx echo.Context) error {
	kategori, err := api.svc.ListKategoriIndikator(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing kategori indikator")
	}
	return ctx.JSON(http.StatusOK, kategori)
}

func (api *curriculumApi) retrieveKategori(ctx echo.Context) error {
	k, err := api.svc.GetKategoriIndikator(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding kategori indikator")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *curriculumApi) updateKategori(ctx echo.Context) error {
	var data curriculum.NewKategoriIndikator
	if err := bindBody(ctx, &data, "NewKategoriIndikator"); err != nil {
		return err
	}
	k, err := api.svc.UpdateKategoriIndikator(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating kategori indikator")
	}
	return ctx.JSON(http.StatusOK, k)
}

func (api *curriculumApi) destroyKategori(ctx echo.Context) error {
	return api.deleted(ctx, api.svc.DeleteKategoriIndikator(ctx.Request().Context(), ctx.Param("id")), "kategori indikator")
}

// IndikatorKelas

func (api *curriculumApi) createIndikator(ctx echo.Context) error {
	var data curriculum.NewIndikatorKelas
	if err := bindBody(ctx, &data, "NewIndikatorKelas"); err != nil {
		return err
	}
	i, err := api.svc.CreateIndikator(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating indikator")
	}
	return ctx.JSON(http.StatusCreated, i)
}

func (api *curriculumApi) listIndikator(ctx echo.Context) error {
	filter := curriculum.IndikatorFilter{
		KelasJenjangID: ctx.QueryParam("kelasJenjangId"),
		Semester:       ctx.QueryParam("semester"),
	}
	indikator, err := api.svc.ListIndikator(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing indikator")
	}
	return ctx.JSON(http.StatusOK, indikator)
}

func (api *curriculumApi) retrieveIndikator(ctx echo.Context) error {
	i, err := api.svc.GetIndikator(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding indikator")
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *curriculumApi) updateIndikator(ctx echo.Context) error {
	var data curriculum.NewIndikatorKelas
	if err := bindBody(ctx, &data, "NewIndikatorKelas"); err != nil {
		return err
	}
	i, err := api.svc.UpdateIndikator(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating indikator")
	}
	return ctx.JSON(http.StatusOK, i)
}

func (api *curriculumApi) destroyIndikator(ctx echo.Context) error {
	return api.deleted(ctx, api.svc.DeleteIndikator(ctx.Request().Context(), ctx.Param("id")), "indikator")
}
