package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/user"
)

var errNoPermsToSetRole = "not enough rights to set this role"

type userApi struct {
	svc  *user.Service
	conf *core.Config
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{svc: deps.UserSvc, conf: deps.Conf}

	ag := g.Group("/auth", jwt)
	ag.GET("/me", api.me, aclMiddleware())
	ag.PUT("/update-password", api.updatePassword, aclMiddleware(passwordRoles...))

	ug := g.Group("/users", jwt, aclMiddleware(scopedAdminRoles...))
	ug.POST("", api.create)
	ug.GET("", api.query)
	ug.GET("/:id", api.retrieve)
	ug.PUT("/:id", api.update)
	ug.DELETE("/:id", api.destroy)
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updatePassword(ctx echo.Context) error {
	var data user.ChangePassword
	if err := bindBody(ctx, &data, "ChangePassword"); err != nil {
		return err
	}
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.ChangePassword(ctx.Request().Context(), usr.ID, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := bindBody(ctx, &data, "NewUser"); err != nil {
		return err
	}

	// ctxUser cannot set a role > their own
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if user.RolePriority(core.CleanString(data.Role)) > user.RolePriority(ctxUsr.Role) {
		return core.NewFieldError("role", errNoPermsToSetRole)
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	page, err := bindPage(ctx, api.conf.Pagination, api.conf.Pagination.DefaultLimit)
	if err != nil {
		return err
	}
	filter := user.QueryFilter{
		Search: ctx.QueryParam("search"),
		Role:   ctx.QueryParam("role"),
		Page:   page,
	}

	users, total, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, paginated(users, page, total))
}

func (api *userApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data user.UpdateUser
	if err = bindBody(ctx, &data, "UpdateUser"); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if role := core.CleanString(data.Role); role != "" && user.RolePriority(role) > user.RolePriority(ctxUsr.Role) {
		return core.NewFieldError("role", errNoPermsToSetRole)
	}

	usr, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctxUsr.ID == id {
		return errSelfDelete
	}

	if err = api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.NoContent(http.StatusNoContent)
}
