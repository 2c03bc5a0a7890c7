package echoapi_test

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sigenerus/sigenerus/core/activity"
	"github.com/sigenerus/sigenerus/core/user"
)

func Test_activityApi(t *testing.T) {
	f := setup(t)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	remaja := f.env.CreateJenjang(t, "Remaja")
	pra := f.env.CreateJenjang(t, "Pra Remaja")
	admin := f.createUser(t, "Admin Daerah", "daerah", user.RoleDaerah)
	token := userToken(t, admin)

	budi := f.env.CreateGenerus(t, "Budi", r, remaja.ID)
	dewi := f.env.CreateGenerus(t, "Dewi", r, pra.ID)

	now := time.Now().UTC().Truncate(time.Second)
	input := activity.NewKegiatan{
		Name:       "Pengajian Remaja",
		StartDate:  now.Add(-time.Hour),
		EndDate:    now.Add(time.Hour),
		Tingkat:    activity.TingkatDaerah,
		DaerahID:   r.Daerah.ID,
		JenjangIDs: []string{remaja.ID},
	}

	rec := f.do(t, http.MethodPost, "/v1/kegiatan", token, input)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var kegiatan activity.Kegiatan
	decode(t, rec, &kegiatan)
	assert.Equal(t, activity.TargetJenjang, kegiatan.TargetType)
	assert.Equal(t, activity.GenderSemua, kegiatan.JenisKelamin)
	path := "/v1/kegiatan/" + kegiatan.ID

	noScope := input
	noScope.DaerahID = ""
	backwards := input
	backwards.EndDate = input.StartDate.Add(-time.Minute)

	f.run(t, []httpTest{
		{name: "Auth required", path: "/v1/kegiatan", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Scope required", method: http.MethodPost, path: "/v1/kegiatan", token: token, body: marchallObj(t, noScope),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"daerahId": "this field is required"}),
		},
		{
			name: "End before start", method: http.MethodPost, path: "/v1/kegiatan", token: token, body: marchallObj(t, backwards),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"endDate": "endDate cannot be before startDate"}),
		},
		{name: "List", path: "/v1/kegiatan?daerahId=" + r.Daerah.ID, token: token, wantData: marchallList(t, kegiatan)},
		{name: "List by jenjang", path: "/v1/kegiatan?jenjangId=" + pra.ID, token: token, wantData: marchallList(t)},
		{name: "Unknown", path: "/v1/kegiatan/nope", token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "kegiatan not found"})},
	})

	// attendance
	late := activity.NewAbsen{KegiatanID: kegiatan.ID, MumiID: budi.ID}
	rec = f.do(t, http.MethodPost, "/v1/absen", token, late)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var absen activity.Absen
	decode(t, rec, &absen)
	assert.Equal(t, activity.StatusTerlambat, absen.Status)

	rec = f.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var detail activity.KegiatanDetail
	decode(t, rec, &detail)
	if assert.Len(t, detail.Peserta, 1) {
		assert.Equal(t, budi.ID, detail.Peserta[0].ID)
		assert.Equal(t, activity.StatusTerlambat, detail.Peserta[0].Status)
		assert.True(t, detail.Peserta[0].WaktuAbsen.Valid)
	}

	f.run(t, []httpTest{
		{
			name: "Absen of unknown generus", method: http.MethodPost, path: "/v1/absen", token: token,
			body: marchallObj(t, activity.NewAbsen{KegiatanID: kegiatan.ID, MumiID: 9999}), wantCode: http.StatusNotFound,
		},
		{
			name: "Bad status", method: http.MethodPost, path: "/v1/absen", token: token,
			body: marchallObj(t, activity.NewAbsen{KegiatanID: kegiatan.ID, MumiID: dewi.ID, Status: "IZIN"}), wantCode: http.StatusBadRequest,
		},
		{
			name: "Absen by generus (unknown)", path: "/v1/absen/generus/9999", token: token, wantCode: http.StatusNotFound,
		},
		{
			name: "Absen by generus (bad id)", path: "/v1/absen/generus/abc", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
	})

	rec = f.do(t, http.MethodGet, "/v1/absen/kegiatan/"+kegiatan.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var absens []activity.Absen
	decode(t, rec, &absens)
	if assert.Len(t, absens, 1) {
		assert.Equal(t, "Budi", absens[0].MumiNama)
	}

	rec = f.do(t, http.MethodGet, "/v1/absen/generus/"+strconv.FormatInt(budi.ID, 10), token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &absens)
	if assert.Len(t, absens, 1) {
		assert.Equal(t, "Pengajian Remaja", absens[0].KegiatanName)
	}

	f.run(t, []httpTest{
		{name: "Delete absen", method: http.MethodDelete, path: "/v1/absen/" + absen.ID, token: token, wantCode: http.StatusNoContent},
		{name: "Delete absen again", method: http.MethodDelete, path: "/v1/absen/" + absen.ID, token: token, wantCode: http.StatusNotFound},
		{name: "Delete kegiatan", method: http.MethodDelete, path: path, token: token, wantCode: http.StatusNoContent},
		{name: "Deleted", path: path, token: token, wantCode: http.StatusNotFound},
	})
}

func Test_activityApi_forGenerus(t *testing.T) {
	f := setup(t)
	r := f.env.CreateRegion(t, "Kediri", "Pare", "Tulungrejo")
	remaja := f.env.CreateJenjang(t, "Remaja")
	pra := f.env.CreateJenjang(t, "Pra Remaja")
	admin := f.createUser(t, "Admin Desa", "desa", user.RoleDesa)
	budi := f.env.CreateGenerus(t, "Budi", r, remaja.ID)
	token := generusToken(t, budi)

	start := time.Date(2030, time.March, 1, 8, 0, 0, 0, time.UTC)
	create := func(name, tingkat string, jenjangIDs ...string) activity.Kegiatan {
		rec := f.do(t, http.MethodPost, "/v1/kegiatan", userToken(t, admin), activity.NewKegiatan{
			Name:       name,
			StartDate:  start,
			EndDate:    start.Add(2 * time.Hour),
			Tingkat:    tingkat,
			DaerahID:   r.Daerah.ID,
			DesaID:     r.Desa.ID,
			JenjangIDs: jenjangIDs,
		})
		assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var k activity.Kegiatan
		decode(t, rec, &k)
		return k
	}
	daerah := create("Musyawarah Daerah", activity.TingkatDaerah, remaja.ID)
	desa := create("Pengajian Desa", activity.TingkatDesa, remaja.ID, pra.ID)
	create("Pengajian Pra Remaja", activity.TingkatDesa, pra.ID)

	f.run(t, []httpTest{
		{name: "Auth required", path: "/v1/me/kegiatan?tingkat=daerah", wantCode: http.StatusUnauthorized},
		{name: "Users not allowed", path: "/v1/me/kegiatan?tingkat=daerah", token: userToken(t, admin), wantCode: http.StatusForbidden},
		{name: "Bad tingkat", path: "/v1/me/kegiatan?tingkat=pusat", token: token, wantCode: http.StatusBadRequest},
		{name: "Bad tanggal", path: "/v1/me/kegiatan?tingkat=daerah&tanggal=01-03-2030", token: token, wantCode: http.StatusBadRequest},
		{name: "Daerah", path: "/v1/me/kegiatan?tingkat=daerah", token: token, wantData: marchallList(t, daerah)},
		{name: "Desa", path: "/v1/me/kegiatan?tingkat=desa", token: token, wantData: marchallList(t, desa)},
		{name: "Desa on the day", path: "/v1/me/kegiatan?tingkat=desa&tanggal=2030-03-01", token: token, wantData: marchallList(t, desa)},
		{name: "Desa another day", path: "/v1/me/kegiatan?tingkat=desa&tanggal=2030-03-02", token: token, wantData: marchallList(t)},
	})
}
