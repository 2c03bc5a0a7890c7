package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/core/user"
)

func Test_regionApi_daerah(t *testing.T) {
	f := setup(t)
	daerahAdmin := f.createUser(t, "Admin Daerah", "daerah", user.RoleDaerah)
	desaAdmin := f.createUser(t, "Admin Desa", "desa", user.RoleDesa)
	token := userToken(t, daerahAdmin)

	rec := f.do(t, http.MethodPost, "/v1/daerah", token, region.NewDaerah{Name: "  Kediri "})
	assert.Equal(t, http.StatusCreated, rec.Code)
	var kediri region.Daerah
	decode(t, rec, &kediri)
	assert.Equal(t, "Kediri", kediri.Name)
	assert.NotEmpty(t, kediri.ID)

	f.run(t, []httpTest{
		{name: "Auth required", path: "/v1/daerah", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Role required", path: "/v1/daerah", token: userToken(t, desaAdmin), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "Blank name", method: http.MethodPost, path: "/v1/daerah", token: token,
			body: marchallObj(t, region.NewDaerah{Name: "   "}), wantCode: http.StatusBadRequest,
		},
		{
			name: "Duplicate name", method: http.MethodPost, path: "/v1/daerah", token: token,
			body: marchallObj(t, region.NewDaerah{Name: "Kediri"}), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a daerah with this name already exists"}),
		},
		{name: "Get", path: "/v1/daerah/" + kediri.ID, token: token, wantData: marchallObj(t, kediri)},
		{
			name: "Unknown", path: "/v1/daerah/nope", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "daerah not found"}),
		},
		{
			name: "List", path: "/v1/daerah", token: token,
			wantData: marchallObj(t, core.Paginated{
				Data:       []interface{}{kediri},
				Pagination: core.PageInfo{Current: 1, Total: 1, TotalPages: 1},
			}),
		},
		{
			name: "Rename", method: http.MethodPut, path: "/v1/daerah/" + kediri.ID, token: token,
			body: marchallObj(t, region.NewDaerah{Name: "Kediri Raya"}),
		},
	})

	got, err := f.env.Regions.GetDaerah(context.Background(), kediri.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Kediri Raya", got.Name)
}

func Test_regionApi_hierarchy(t *testing.T) {
	f := setup(t)
	super := f.createUser(t, "Super", "super", user.RoleSuperAdmin)
	token := userToken(t, super)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	other := f.env.CreateRegion(t, "Blitar", "Wlingi", "Beru")

	f.run(t, []httpTest{
		{
			name: "Desa of unknown daerah", method: http.MethodPost, path: "/v1/desa", token: token,
			body: marchallObj(t, region.NewDesa{Name: "Gurah", DaerahID: "nope"}), wantCode: http.StatusNotFound,
		},
		{
			name: "Desa created", method: http.MethodPost, path: "/v1/desa", token: token,
			body: marchallObj(t, region.NewDesa{Name: "Gurah", DaerahID: r.Daerah.ID}), wantCode: http.StatusCreated,
		},
		{
			name: "Kelompok with desa outside daerah", method: http.MethodPost, path: "/v1/kelompok", token: token,
			body:     marchallObj(t, region.NewKelompok{Name: "Sidowarek", DaerahID: r.Daerah.ID, DesaID: other.Desa.ID}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Kelompok created", method: http.MethodPost, path: "/v1/kelompok", token: token,
			body:     marchallObj(t, region.NewKelompok{Name: "Sidowarek", DaerahID: r.Daerah.ID, DesaID: r.Desa.ID}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Delete daerah with children", method: http.MethodDelete, path: "/v1/daerah/" + r.Daerah.ID, token: token,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "region still has dependent records"}),
		},
		{name: "Delete kelompok", method: http.MethodDelete, path: "/v1/kelompok/" + other.Kelompok.ID, token: token, wantCode: http.StatusNoContent},
		{name: "Delete desa", method: http.MethodDelete, path: "/v1/desa/" + other.Desa.ID, token: token, wantCode: http.StatusNoContent},
		{name: "Delete daerah", method: http.MethodDelete, path: "/v1/daerah/" + other.Daerah.ID, token: token, wantCode: http.StatusNoContent},
	})

	rec := f.do(t, http.MethodGet, "/v1/kelompok?desaId="+r.Desa.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []region.Kelompok `json:"data"`
		Pagination core.PageInfo     `json:"pagination"`
	}
	decode(t, rec, &page)
	assert.Equal(t, 2, page.Pagination.Total)
	for _, k := range page.Data {
		assert.Equal(t, r.Desa.ID, k.DesaID)
		assert.Equal(t, "Pare", k.DesaName)
		assert.Equal(t, "Kediri", k.DaerahName)
	}

	rec = f.do(t, http.MethodGet, "/v1/desa?search=gur", token, nil)
	decode(t, rec, &page)
	assert.Equal(t, 1, page.Pagination.Total)
}

func Test_regionApi_counts(t *testing.T) {
	f := setup(t)
	kelompokAdmin := f.createUser(t, "Admin Kelompok", "kelompok", user.RoleKelompok)
	token := userToken(t, kelompokAdmin)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	f.env.CreateKelompok(t, r, "Sidowarek")
	f.env.CreateRegion(t, "Blitar", "Wlingi", "Beru")

	f.run(t, []httpTest{
		{name: "daerah", path: "/v1/count/daerah", token: token, wantData: marchallObj(t, map[string]int{"total": 2})},
		{name: "desa", path: "/v1/count/desa", token: token, wantData: marchallObj(t, map[string]int{"total": 2})},
		{name: "kelompok", path: "/v1/count/kelompok", token: token, wantData: marchallObj(t, map[string]int{"total": 3})},
		{name: "summary", path: "/v1/count/summary", token: token, wantData: marchallObj(t, region.Summary{Daerah: 2, Desa: 2, Kelompok: 3})},
	})
}
