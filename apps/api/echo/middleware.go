package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core/user"
)

// Route access groups
var (
	scopedAdminRoles = []string{user.RoleDaerah, user.RoleDesa, user.RoleKelompok}
	regionAdminRoles = []string{user.RoleDaerah}
	curriculumRoles  = []string{user.RoleAdmin}
	passwordRoles    = []string{user.RoleAdmin}
)

// aclMiddleware lets through user principals holding one of roles, any user when roles is empty.
// SUPERADMIN always passes.
func aclMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Kind == KindUser && hasRole(claims.Role, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func hasRole(role string, roles []string) bool {
	if len(roles) == 0 || role == user.RoleSuperAdmin {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func generusMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if _, err := getContextGenerusID(ctx); err != nil {
			return err
		}
		return next(ctx)
	}
}

// queryTokenMiddleware moves the `token` query param to the Authorization header.
// Browsers cannot set headers on websocket handshakes.
func queryTokenMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := ctx.Request()
		if req.Header.Get(echo.HeaderAuthorization) == "" {
			if token := ctx.QueryParam("token"); token != "" {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			}
		}
		return next(ctx)
	}
}
