package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/user"
)

// create posts body to path and decodes the 201 response into out.
func (f *fixture) create(t *testing.T, path, token string, body, out interface{}) {
	t.Helper()
	rec := f.do(t, http.MethodPost, path, token, body)
	if !assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String()) {
		t.FailNow()
	}
	decode(t, rec, out)
}

func Test_curriculumApi_access(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	kelompok := f.createUser(t, "Admin Kelompok", "kelompok", user.RoleKelompok)
	jenjang := f.env.CreateJenjang(t, "Remaja")

	f.run(t, []httpTest{
		{name: "Auth required", path: "/v1/jenjang", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Any user reads", path: "/v1/jenjang", token: userToken(t, kelompok), wantData: marchallList(t, jenjang)},
		{
			name: "Writes need ADMIN", method: http.MethodPost, path: "/v1/jenjang", token: userToken(t, kelompok),
			body: marchallObj(t, curriculum.NewJenjang{Name: "Dewasa"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Deletes need ADMIN", method: http.MethodDelete, path: "/v1/jenjang/" + jenjang.ID, token: userToken(t, kelompok),
			wantCode: http.StatusForbidden,
		},
		{
			name: "Admin writes", method: http.MethodPost, path: "/v1/jenjang", token: userToken(t, admin),
			body: marchallObj(t, curriculum.NewJenjang{Name: "Dewasa"}), wantCode: http.StatusCreated,
		},
		{
			name: "Duplicate", method: http.MethodPost, path: "/v1/jenjang", token: userToken(t, admin),
			body: marchallObj(t, curriculum.NewJenjang{Name: "Remaja"}), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "a jenjang with this name already exists"}),
		},
	})
}

func Test_curriculumApi_crud(t *testing.T) {
	f := setup(t)
	admin := f.createUser(t, "Admin", "admin", user.RoleAdmin)
	token := userToken(t, admin)

	var jenjang curriculum.Jenjang
	f.create(t, "/v1/jenjang", token, curriculum.NewJenjang{Name: "Caberawit"}, &jenjang)

	var kelas curriculum.KelasJenjang
	f.create(t, "/v1/kelasjenjang", token, curriculum.NewKelasJenjang{Name: "Kelas 1", JenjangID: jenjang.ID}, &kelas)
	assert.Equal(t, "Caberawit", kelas.JenjangName)

	var tahun, next curriculum.TahunAjaran
	f.create(t, "/v1/tahunajaran", token, curriculum.NewTahunAjaran{Name: "2024/2025", IsActive: true}, &tahun)
	f.create(t, "/v1/tahunajaran", token, curriculum.NewTahunAjaran{Name: "2025/2026", IsActive: true}, &next)

	var mapel curriculum.MataPelajaran
	f.create(t, "/v1/mapel", token, curriculum.NewJenjang{Name: "Al-Quran"}, &mapel)

	var kategori curriculum.KategoriIndikator
	f.create(t, "/v1/kategori-indikator", token, curriculum.NewKategoriIndikator{Name: "Tartil", MataPelajaranID: mapel.ID}, &kategori)
	assert.Equal(t, "Al-Quran", kategori.MataPelajaranName.String)

	var indikator curriculum.IndikatorKelas
	f.create(t, "/v1/indikator", token, curriculum.NewIndikatorKelas{
		Indikator:           "Membaca surat Al-Fatihah",
		KelasJenjangID:      kelas.ID,
		KategoriIndikatorID: kategori.ID,
		JenisPenilaian:      curriculum.PenilaianPengetahuan,
		Semester:            "GANJIL",
	}, &indikator)
	assert.Equal(t, "Tartil", indikator.KategoriIndikatorName)

	// only the latest active tahun ajaran stays active
	rec := f.do(t, http.MethodGet, "/v1/tahunajaran/"+tahun.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &tahun)
	assert.False(t, tahun.IsActive)

	f.run(t, []httpTest{
		{name: "Kelas by jenjang", path: "/v1/kelasjenjang?jenjangId=" + jenjang.ID, token: token, wantData: marchallList(t, kelas)},
		{name: "Kelas by other jenjang", path: "/v1/kelasjenjang?jenjangId=nope", token: token, wantData: marchallList(t)},
		{
			name: "Kelas of unknown jenjang", method: http.MethodPost, path: "/v1/kelasjenjang", token: token,
			body: marchallObj(t, curriculum.NewKelasJenjang{Name: "Kelas 2", JenjangID: "nope"}), wantCode: http.StatusNotFound,
		},
		{name: "Indikator by kelas", path: "/v1/indikator?kelasJenjangId=" + kelas.ID, token: token, wantData: marchallList(t, indikator)},
		{name: "Indikator by semester", path: "/v1/indikator?kelasJenjangId=" + kelas.ID + "&semester=GENAP", token: token, wantData: marchallList(t)},
		{
			name: "Bad semester", method: http.MethodPost, path: "/v1/indikator", token: token,
			body: marchallObj(t, curriculum.NewIndikatorKelas{
				Indikator:           "Menulis",
				KelasJenjangID:      kelas.ID,
				KategoriIndikatorID: kategori.ID,
				JenisPenilaian:      curriculum.PenilaianKeterampilan,
				Semester:            "KETIGA",
			}),
			wantCode: http.StatusBadRequest,
		},
		{name: "Get mapel", path: "/v1/mapel/" + mapel.ID, token: token, wantData: marchallObj(t, mapel)},
		{
			name: "Rename mapel", method: http.MethodPut, path: "/v1/mapel/" + mapel.ID, token: token,
			body: marchallObj(t, curriculum.NewJenjang{Name: "Al-Qur'an"}),
		},
		{
			name: "Jenjang in use", method: http.MethodDelete, path: "/v1/jenjang/" + jenjang.ID, token: token,
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "record is still referenced"}),
		},
		{name: "Delete indikator", method: http.MethodDelete, path: "/v1/indikator/" + indikator.ID, token: token, wantCode: http.StatusNoContent},
		{name: "Deleted indikator", path: "/v1/indikator/" + indikator.ID, token: token, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "indikator not found"})},
	})
}
