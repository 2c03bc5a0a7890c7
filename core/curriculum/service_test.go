package curriculum_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/tests"
)

func TestService_Jenjang(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	paud := env.CreateJenjang(t, "PAUD")
	env.CreateJenjang(t, "Caberawit")

	_, err := env.Curriculum.CreateJenjang(ctx, curriculum.NewJenjang{Name: " PAUD "})
	assert.Equal(t, curriculum.ErrJenjangExists, err)

	_, err = env.Curriculum.UpdateJenjang(ctx, paud.ID, curriculum.NewJenjang{Name: "Caberawit"})
	assert.Equal(t, curriculum.ErrJenjangExists, err)

	_, err = env.Curriculum.UpdateJenjang(ctx, "nope", curriculum.NewJenjang{Name: "Remaja"})
	assert.Equal(t, curriculum.ErrJenjangNotFound, err)

	paud, err = env.Curriculum.UpdateJenjang(ctx, paud.ID, curriculum.NewJenjang{Name: "Pra Nikah"})
	require.NoError(t, err)
	assert.Equal(t, "Pra Nikah", paud.Name)

	all, err := env.Curriculum.ListJenjang(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Pra Nikah", all[0].Name)

	kelas := env.CreateKelas(t, paud.ID, "Kelas 1")
	assert.Equal(t, "Pra Nikah", kelas.JenjangName)
	assert.Equal(t, curriculum.ErrInUse, env.Curriculum.DeleteJenjang(ctx, paud.ID))

	require.NoError(t, env.Curriculum.DeleteKelasJenjang(ctx, kelas.ID))
	require.NoError(t, env.Curriculum.DeleteJenjang(ctx, paud.ID))
	_, err = env.Curriculum.GetJenjang(ctx, paud.ID)
	assert.Equal(t, curriculum.ErrJenjangNotFound, err)
}

func TestService_KelasJenjang(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	cbr := env.CreateJenjang(t, "Caberawit")
	remaja := env.CreateJenjang(t, "Remaja")

	_, err := env.Curriculum.CreateKelasJenjang(ctx, curriculum.NewKelasJenjang{Name: "Kelas 1", JenjangID: "nope"})
	assert.Equal(t, curriculum.ErrJenjangNotFound, err)

	env.CreateKelas(t, cbr.ID, "Kelas 1")
	env.CreateKelas(t, cbr.ID, "Kelas 2")
	env.CreateKelas(t, remaja.ID, "Kelas 1")

	_, err = env.Curriculum.CreateKelasJenjang(ctx, curriculum.NewKelasJenjang{Name: "Kelas 2", JenjangID: cbr.ID})
	assert.Equal(t, curriculum.ErrKelasJenjangExists, err)

	all, err := env.Curriculum.ListKelasJenjang(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ofCbr, err := env.Curriculum.ListKelasJenjang(ctx, cbr.ID)
	require.NoError(t, err)
	require.Len(t, ofCbr, 2)
	assert.Equal(t, "Kelas 1", ofCbr[0].Name)
	assert.Equal(t, "Kelas 2", ofCbr[1].Name)
}

func TestService_TahunAjaran(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	activeOf := func(t *testing.T) []string {
		t.Helper()
		all, err := env.Curriculum.ListTahunAjaran(ctx)
		require.NoError(t, err)
		var names []string
		for _, ta := range all {
			if ta.IsActive {
				names = append(names, ta.Name)
			}
		}
		return names
	}

	ta1, err := env.Curriculum.CreateTahunAjaran(ctx, curriculum.NewTahunAjaran{Name: "2023/2024", IsActive: true})
	require.NoError(t, err)
	ta2, err := env.Curriculum.CreateTahunAjaran(ctx, curriculum.NewTahunAjaran{Name: "2024/2025"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2023/2024"}, activeOf(t))

	_, err = env.Curriculum.CreateTahunAjaran(ctx, curriculum.NewTahunAjaran{Name: "2024/2025"})
	assert.Equal(t, curriculum.ErrTahunAjaranExists, err)

	// activating one deactivates the others
	ta2, err = env.Curriculum.UpdateTahunAjaran(ctx, ta2.ID, curriculum.NewTahunAjaran{Name: ta2.Name, IsActive: true})
	require.NoError(t, err)
	assert.True(t, ta2.IsActive)
	assert.Equal(t, []string{"2024/2025"}, activeOf(t))

	_, err = env.Curriculum.CreateTahunAjaran(ctx, curriculum.NewTahunAjaran{Name: "2025/2026", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025/2026"}, activeOf(t))

	// renaming an inactive one leaves the active one alone
	_, err = env.Curriculum.UpdateTahunAjaran(ctx, ta1.ID, curriculum.NewTahunAjaran{Name: ta1.Name})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025/2026"}, activeOf(t))
}

func TestService_Indikator(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	cbr := env.CreateJenjang(t, "Caberawit")
	kelas := env.CreateKelas(t, cbr.ID, "Kelas 1")

	mapel, err := env.Curriculum.CreateMataPelajaran(ctx, curriculum.NewJenjang{Name: "Tilawati"})
	require.NoError(t, err)
	_, err = env.Curriculum.CreateKategoriIndikator(ctx, curriculum.NewKategoriIndikator{Name: "Bacaan", MataPelajaranID: "nope"})
	assert.Equal(t, curriculum.ErrMataPelajaranNotFound, err)

	bacaan, err := env.Curriculum.CreateKategoriIndikator(ctx, curriculum.NewKategoriIndikator{Name: "Bacaan", MataPelajaranID: mapel.ID})
	require.NoError(t, err)
	assert.Equal(t, "Tilawati", bacaan.MataPelajaranName.String)
	adab, err := env.Curriculum.CreateKategoriIndikator(ctx, curriculum.NewKategoriIndikator{Name: "Adab"})
	require.NoError(t, err)
	assert.False(t, adab.MataPelajaranID.Valid)

	newIndikator := func(text, kategoriID, semester string) curriculum.NewIndikatorKelas {
		return curriculum.NewIndikatorKelas{
			Indikator:           text,
			KelasJenjangID:      kelas.ID,
			KategoriIndikatorID: kategoriID,
			JenisPenilaian:      curriculum.PenilaianPengetahuan,
			Semester:            semester,
		}
	}

	// created out of kategori order
	for _, ni := range []curriculum.NewIndikatorKelas{
		newIndikator("Adab makan", adab.ID, core.SemesterGanjil),
		newIndikator("Jilid 1", bacaan.ID, core.SemesterGanjil),
		newIndikator("Jilid 2", bacaan.ID, core.SemesterGenap),
		newIndikator("Adab tidur", adab.ID, core.SemesterGanjil),
	} {
		_, err = env.Curriculum.CreateIndikator(ctx, ni)
		require.NoError(t, err)
	}

	_, err = env.Curriculum.CreateIndikator(ctx, newIndikator("Jilid 1", bacaan.ID, core.SemesterGanjil))
	assert.Equal(t, curriculum.ErrIndikatorExists, err)
	_, err = env.Curriculum.CreateIndikator(ctx, newIndikator("Jilid 3", bacaan.ID, "TENGAH"))
	assert.Error(t, err)
	_, err = env.Curriculum.CreateIndikator(ctx, newIndikator("Jilid 3", "nope", core.SemesterGanjil))
	assert.Equal(t, curriculum.ErrKategoriIndikatorNotFound, err)

	names := func(items []curriculum.IndikatorKelas) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Indikator
		}
		return out
	}

	tests := []struct {
		name   string
		filter curriculum.IndikatorFilter
		want   []string
	}{
		{
			name:   "by kategori then creation",
			filter: curriculum.IndikatorFilter{KelasJenjangID: kelas.ID},
			want:   []string{"Jilid 1", "Jilid 2", "Adab makan", "Adab tidur"},
		},
		{
			name:   "by semester",
			filter: curriculum.IndikatorFilter{KelasJenjangID: kelas.ID, Semester: core.SemesterGenap},
			want:   []string{"Jilid 2"},
		},
		{
			name:   "unknown kelas",
			filter: curriculum.IndikatorFilter{KelasJenjangID: "nope"},
			want:   []string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := env.Curriculum.ListIndikator(ctx, tc.filter)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(got))
		})
	}

	assert.Equal(t, curriculum.ErrInUse, env.Curriculum.DeleteMataPelajaran(ctx, mapel.ID))
	assert.Equal(t, curriculum.ErrInUse, env.Curriculum.DeleteKategoriIndikator(ctx, bacaan.ID))
}
