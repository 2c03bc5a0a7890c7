package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
)

// memberApi serves one kind of member record.
type memberApi struct {
	kind string
	svc  *member.Service
	conf *core.Config
}

func registerMemberAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	acl := aclMiddleware(scopedAdminRoles...)

	generus := memberApi{kind: member.KindGenerus, svc: deps.MemberSvc, conf: deps.Conf}
	gg := g.Group("/generus", jwt, acl)
	generus.register(gg)
	gg.GET("/mahasiswa/kelompok/:kelompokId", generus.byKelompok(true))
	gg.GET("/mahasiswa/desa/:desaId", generus.byDesa(true))
	gg.GET("/stats/jenjang", generus.countByJenjang)
	gg.GET("/stats/desa/:desaId", generus.countByJenjangKelompok)

	caberawit := memberApi{kind: member.KindCaberawit, svc: deps.MemberSvc, conf: deps.Conf}
	cg := g.Group("/caberawit", jwt, acl)
	caberawit.register(cg)
}

func (api *memberApi) register(g *echo.Group) {
	g.POST("", api.create)
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
	g.GET("/kelompok/:kelompokId", api.byKelompok(false))
	g.GET("/desa/:desaId", api.byDesa(false))
}

func (api *memberApi) create(ctx echo.Context) error {
	var data member.NewMember
	if err := bindBody(ctx, &data, "NewMember"); err != nil {
		return err
	}
	m, err := api.svc.Create(ctx.Request().Context(), api.kind, data)
	if err != nil {
		return errors.Wrap(err, "creating "+api.kind)
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *memberApi) filter(ctx echo.Context) (member.QueryFilter, error) {
	var filter member.QueryFilter
	page, err := bindPage(ctx, api.conf.Pagination, api.conf.Pagination.DefaultLimit)
	if err != nil {
		return filter, err
	}
	if filter.Mahasiswa, err = queryBool(ctx, "mahasiswa"); err != nil {
		return filter, err
	}
	if filter.MinUsia, err = queryInt(ctx, "minUsia"); err != nil {
		return filter, err
	}
	if filter.MaxUsia, err = queryInt(ctx, "maxUsia"); err != nil {
		return filter, err
	}

	filter.Search = ctx.QueryParam("search")
	filter.JenisKelamin = ctx.QueryParam("jenis_kelamin")
	filter.JenjangID = ctx.QueryParam("jenjang")
	filter.DaerahID = ctx.QueryParam("daerahId")
	filter.DesaID = ctx.QueryParam("desaId")
	filter.KelompokID = ctx.QueryParam("kelompokId")
	filter.Page = page
	return filter, nil
}

func (api *memberApi) query(ctx echo.Context) error {
	filter, err := api.filter(ctx)
	if err != nil {
		return err
	}
	members, total, err := api.svc.Query(ctx.Request().Context(), api.kind, filter)
	if err != nil {
		return errors.Wrap(err, "querying "+api.kind)
	}
	return ctx.JSON(http.StatusOK, paginated(members, filter.Page, total))
}

func (api *memberApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	m, err := api.svc.Get(ctx.Request().Context(), api.kind, id)
	if err != nil {
		return errors.Wrap(err, "finding "+api.kind)
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *memberApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data member.NewMember
	if err = bindBody(ctx, &data, "NewMember"); err != nil {
		return err
	}
	m, err := api.svc.Update(ctx.Request().Context(), api.kind, id, data)
	if err != nil {
		return errors.Wrap(err, "updating "+api.kind)
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *memberApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), api.kind, id); err != nil {
		return errors.Wrap(err, "deleting "+api.kind)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *memberApi) byKelompok(mahasiswaOnly bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		members, err := api.svc.ByKelompok(ctx.Request().Context(), api.kind, ctx.Param("kelompokId"), mahasiswaOnly)
		if err != nil {
			return errors.Wrap(err, "listing "+api.kind+" by kelompok")
		}
		return ctx.JSON(http.StatusOK, members)
	}
}

func (api *memberApi) byDesa(mahasiswaOnly bool) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		members, err := api.svc.ByDesa(ctx.Request().Context(), api.kind, ctx.Param("desaId"), mahasiswaOnly)
		if err != nil {
			return errors.Wrap(err, "listing "+api.kind+" by desa")
		}
		return ctx.JSON(http.StatusOK, members)
	}
}

func (api *memberApi) countByJenjang(ctx echo.Context) error {
	counts, err := api.svc.CountByJenjang(ctx.Request().Context(), api.kind)
	if err != nil {
		return errors.Wrap(err, "counting "+api.kind+" by jenjang")
	}
	return ctx.JSON(http.StatusOK, counts)
}

func (api *memberApi) countByJenjangKelompok(ctx echo.Context) error {
	counts, err := api.svc.CountByJenjangKelompok(ctx.Request().Context(), api.kind, ctx.Param("desaId"))
	if err != nil {
		return errors.Wrap(err, "counting "+api.kind+" by kelompok")
	}
	return ctx.JSON(http.StatusOK, counts)
}
