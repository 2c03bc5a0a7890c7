package echoapi_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/user"
	"github.com/sigenerus/sigenerus/tests"
)

func Test_home(t *testing.T) {
	f := setup(t)

	req, rec := newAuthRequest(http.MethodGet, "/", "")
	f.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Sigenerus API!", rec.Body.String())
}

func Test_userApi_me(t *testing.T) {
	f := setup(t)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	gone := f.createUser(t, "Gone", "gone", user.RoleAdmin)
	goneToken := userToken(t, gone)
	require.NoError(t, f.env.Users.Delete(context.Background(), gone.ID))

	generus := f.env.CreateGenerus(t, "Fulan", r, f.env.CreateJenjang(t, "Remaja").ID)

	f.run(t, []httpTest{
		{name: "Auth required", path: "/v1/auth/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Invalid token", path: "/v1/auth/me", token: "not.a.token", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "Generus not allowed", path: "/v1/auth/me", token: generusToken(t, generus), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Deleted user", path: "/v1/auth/me", token: goneToken,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{name: "Ok", path: "/v1/auth/me", token: userToken(t, admin), wantData: marchallObj(t, admin)},
	})
}

func Test_userApi_updatePassword(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	kelompok := f.createUser(t, "Kelompok", "kelompok", user.RoleKelompok)
	adminToken := userToken(t, admin)

	wrongOld := user.ChangePassword{OldPassword: "wrong-one", Password: "An0ther-Passw0rd", ConfirmPassword: "An0ther-Passw0rd"}
	mismatch := user.ChangePassword{OldPassword: testPwd, Password: "An0ther-Passw0rd", ConfirmPassword: "An0ther-Passw0rd?"}
	ok := user.ChangePassword{OldPassword: testPwd, Password: "An0ther-Passw0rd", ConfirmPassword: "An0ther-Passw0rd"}

	f.run(t, []httpTest{
		{
			name: "Role required", method: http.MethodPut, path: "/v1/auth/update-password", token: userToken(t, kelompok),
			body: marchallObj(t, ok), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Wrong old password", method: http.MethodPut, path: "/v1/auth/update-password", token: adminToken,
			body: marchallObj(t, wrongOld), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"oldPassword": "invalid old password"}),
		},
		{
			name: "Confirmation mismatch", method: http.MethodPut, path: "/v1/auth/update-password", token: adminToken,
			body: marchallObj(t, mismatch), wantCode: http.StatusBadRequest,
		},
		{
			name: "Ok", method: http.MethodPut, path: "/v1/auth/update-password", token: adminToken,
			body: marchallObj(t, ok), wantData: marchallObj(t, map[string]string{"message": "password updated"}),
		},
	})

	usr, err := f.env.Users.GetByID(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("An0ther-Passw0rd"))
}

func Test_userApi_query(t *testing.T) {
	f := setup(t)
	super := f.createUser(t, "Super Admin", "super", user.RoleSuperAdmin)
	desa := f.createUser(t, "Admin Desa", "desa", user.RoleDesa)
	kelompok := f.createUser(t, "Admin Kelompok", "kelompok", user.RoleKelompok)
	admin := f.createUser(t, "Admin Pusat", "pusat", user.RoleAdmin)
	token := userToken(t, super)

	page := func(total, pages int, users ...interface{}) []byte {
		if users == nil {
			users = []interface{}{}
		}
		return marchallObj(t, core.Paginated{
			Data:       users,
			Pagination: core.PageInfo{Current: 1, Total: total, TotalPages: pages},
		})
	}

	f.run(t, []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Role required", path: "/v1/users", token: userToken(t, admin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Get all", path: "/v1/users", token: token, wantData: page(4, 1, admin, kelompok, desa, super)},
		{name: "Scoped admin", path: "/v1/users", token: userToken(t, kelompok), wantData: page(4, 1, admin, kelompok, desa, super)},
		{name: "search=admin", path: "/v1/users?search=ADMIN", token: token, wantData: page(4, 1, admin, kelompok, desa, super)},
		{name: "search=desa", path: "/v1/users?search=desa", token: token, wantData: page(1, 1, desa)},
		{name: "search (unknown)", path: "/v1/users?search=lol", token: token, wantData: page(0, 0)},
		{name: "role=DESA", path: "/v1/users?role=DESA", token: token, wantData: page(1, 1, desa)},
		{
			name: "paginated", path: "/v1/users?page=2&limit=3", token: token,
			wantData: marchallObj(t, core.Paginated{
				Data:       []interface{}{super},
				Pagination: core.PageInfo{Current: 2, Total: 4, TotalPages: 2},
			}),
		},
		{name: "bad limit", path: "/v1/users?limit=ten", token: token, wantCode: http.StatusBadRequest},
	})
}

func Test_userApi_create(t *testing.T) {
	f := setup(t)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	desa := f.createUser(t, "Admin Desa", "desa", user.RoleDesa)
	kelompok := f.createUser(t, "Admin Kelompok", "kelompok", user.RoleKelompok)
	desaToken := userToken(t, desa)

	newUser := func(uname, role, kelompokID string) user.NewUser {
		return user.NewUser{
			FullName:        "New " + uname,
			Username:        uname,
			Password:        testPwd,
			ConfirmPassword: testPwd,
			Role:            role,
			KelompokID:      kelompokID,
		}
	}

	f.run(t, []httpTest{
		{
			name: "Cannot set a higher role", method: http.MethodPost, path: "/v1/users", token: userToken(t, kelompok),
			body: marchallObj(t, newUser("budi", user.RoleDesa, "")), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": "not enough rights to set this role"}),
		},
		{
			name: "Missing fields", method: http.MethodPost, path: "/v1/users", token: desaToken,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "Scope required", method: http.MethodPost, path: "/v1/users", token: desaToken,
			body: marchallObj(t, newUser("budi", user.RoleKelompok, "")), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"kelompokId": "this field is required"}),
		},
		{
			name: "Unknown kelompok", method: http.MethodPost, path: "/v1/users", token: desaToken,
			body: marchallObj(t, newUser("budi", user.RoleKelompok, "nope")), wantCode: http.StatusNotFound,
		},
		{
			name: "Username taken", method: http.MethodPost, path: "/v1/users", token: desaToken,
			body: marchallObj(t, newUser("kelompok", user.RoleKelompok, r.Kelompok.ID)), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a user with this username already exists"}),
		},
		{
			name: "Created", method: http.MethodPost, path: "/v1/users", token: desaToken,
			body: marchallObj(t, newUser("Budi", user.RoleKelompok, r.Kelompok.ID)), wantCode: http.StatusCreated,
		},
	})

	usr, err := f.env.Users.GetByUsername(context.Background(), "budi")
	require.NoError(t, err)
	assert.Equal(t, user.RoleKelompok, usr.Role)
	assert.Equal(t, r.Kelompok.ID, usr.KelompokID.String)
	assert.Equal(t, r.Kelompok.Name, usr.KelompokName.String)
	assert.False(t, usr.DaerahID.Valid)
}

func Test_userApi_updateDelete(t *testing.T) {
	f := setup(t)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	daerah := f.createUser(t, "Admin Daerah", "daerah", user.RoleDaerah)
	kelompok := f.createUser(t, "Admin Kelompok", "kelompok", user.RoleKelompok)
	token := userToken(t, daerah)
	path := "/v1/users/" + strconv.FormatInt(kelompok.ID, 10)

	f.run(t, []httpTest{
		{name: "Get", path: path, token: token, wantData: marchallObj(t, kelompok)},
		{name: "Bad id", path: "/v1/users/abc", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound)},
		{name: "Unknown id", path: "/v1/users/999", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "user not found"})},
		{
			name: "Cannot promote above self", method: http.MethodPut, path: path, token: token,
			body: marchallObj(t, user.UpdateUser{Role: user.RoleAdmin}), wantCode: http.StatusBadRequest,
		},
		{
			name: "Move to desa", method: http.MethodPut, path: path, token: token,
			body: marchallObj(t, user.UpdateUser{FullName: "Admin Pare", Role: user.RoleDesa, DesaID: r.Desa.ID}),
		},
		{
			name: "Self delete", method: http.MethodDelete, path: "/v1/users/" + strconv.FormatInt(daerah.ID, 10), token: token,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "you cannot delete your own account"}),
		},
		{name: "Delete", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNoContent},
		{name: "Deleted", path: path, token: token, wantCode: http.StatusNotFound},
	})
}

func Test_userApi_superAdminPassesEveryACL(t *testing.T) {
	f := setup(t)
	super := testutil.CreateUser(t, f.env.UserRepo, "Root", "root", "", user.RoleSuperAdmin)
	token := userToken(t, super)

	for _, path := range []string{"/v1/users", "/v1/daerah", "/v1/jenjang", "/v1/generus", "/v1/kegiatan", "/v1/count/summary"} {
		rec := f.do(t, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
