package pgrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/curriculum"
)

type curriculumRepository struct {
	repository
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(exec core.DBExecutor) *curriculumRepository {
	return &curriculumRepository{repository{exec: exec}}
}

var (
	jenjangSelect = psql.Select("j.id", "j.name", "j.created_at").From("jenjang j")

	kelasJenjangSelect = psql.Select("kj.id", "kj.name", "kj.jenjang_id", "j.name AS jenjang_name", "kj.created_at").
		From("kelas_jenjang kj").
		Join("jenjang j ON j.id = kj.jenjang_id")

	tahunAjaranSelect = psql.Select("t.id", "t.name", "t.is_active", "t.created_at").From("tahun_ajaran t")

	mapelSelect = psql.Select("m.id", "m.name", "m.created_at").From("mata_pelajaran m")

	kategoriSelect = psql.Select("ki.id", "ki.name", "ki.mata_pelajaran_id", "m.name AS mata_pelajaran_name", "ki.created_at").
		From("kategori_indikator ki").
		LeftJoin("mata_pelajaran m ON m.id = ki.mata_pelajaran_id")

	indikatorSelect = psql.Select(
		"ik.id", "ik.indikator", "ik.kelas_jenjang_id", "ik.kategori_indikator_id", "ik.jenis_penilaian", "ik.semester",
		"ki.name AS kategori_indikator_name", "ki.mata_pelajaran_id", "m.name AS mata_pelajaran_name", "ik.created_at").
		From("indikator_kelas ik").
		Join("kategori_indikator ki ON ki.id = ik.kategori_indikator_id").
		LeftJoin("mata_pelajaran m ON m.id = ki.mata_pelajaran_id")
)

// updateOne runs q, reporting notFound when it matched no row.
func updateOne(ctx context.Context, exec core.DBExecutor, q sq.UpdateBuilder, notFound, conflict, inUse error, msg string) error {
	n, err := execAffected(ctx, exec, q)
	if err != nil {
		return trapConstraintErr(err, conflict, inUse, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func insert(ctx context.Context, exec core.DBExecutor, q sq.InsertBuilder, conflict, inUse error, msg string) error {
	if _, err := execAffected(ctx, exec, q); err != nil {
		return trapConstraintErr(err, conflict, inUse, msg)
	}
	return nil
}

// Jenjang

func (repo curriculumRepository) CreateJenjang(ctx context.Context, j curriculum.Jenjang, exec ...core.DBExecutor) (curriculum.Jenjang, error) {
	q := psql.Insert("jenjang").Columns("id", "name", "created_at").Values(j.ID, j.Name, j.CreatedAt)
	if err := insert(ctx, repo.getExec(exec), q, curriculum.ErrJenjangExists, nil, "inserting jenjang"); err != nil {
		return curriculum.Jenjang{}, err
	}
	return j, nil
}

func (repo curriculumRepository) GetJenjang(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.Jenjang, error) {
	var j curriculum.Jenjang
	if err := get(ctx, repo.getExec(exec), &j, jenjangSelect.Where(sq.Eq{"j.id": id})); err != nil {
		return curriculum.Jenjang{}, trapNoRowsErr(err, curriculum.ErrJenjangNotFound, "selecting jenjang")
	}
	return j, nil
}

func (repo curriculumRepository) ListJenjang(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.Jenjang, error) {
	jenjang := make([]curriculum.Jenjang, 0)
	if err := selectAll(ctx, repo.getExec(exec), &jenjang, jenjangSelect.OrderBy("j.created_at")); err != nil {
		return nil, errors.Wrap(err, "listing jenjang")
	}
	return jenjang, nil
}

func (repo curriculumRepository) UpdateJenjang(ctx context.Context, j curriculum.Jenjang, exec ...core.DBExecutor) (curriculum.Jenjang, error) {
	q := psql.Update("jenjang").Set("name", j.Name).Where(sq.Eq{"id": j.ID})
	if err := updateOne(ctx, repo.getExec(exec), q, curriculum.ErrJenjangNotFound, curriculum.ErrJenjangExists, nil, "updating jenjang"); err != nil {
		return curriculum.Jenjang{}, err
	}
	return j, nil
}

func (repo curriculumRepository) DeleteJenjang(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("jenjang").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, curriculum.ErrJenjangNotFound, curriculum.ErrInUse, "deleting jenjang")
}

// KelasJenjang

func (repo curriculumRepository) CreateKelasJenjang(ctx context.Context, k curriculum.KelasJenjang, exec ...core.DBExecutor) (curriculum.KelasJenjang, error) {
	q := psql.Insert("kelas_jenjang").
		Columns("id", "name", "jenjang_id", "created_at").
		Values(k.ID, k.Name, k.JenjangID, k.CreatedAt)
	if err := insert(ctx, repo.getExec(exec), q, curriculum.ErrKelasJenjangExists, curriculum.ErrJenjangNotFound, "inserting kelas jenjang"); err != nil {
		return curriculum.KelasJenjang{}, err
	}
	return repo.GetKelasJenjang(ctx, k.ID, exec...)
}

func (repo curriculumRepository) GetKelasJenjang(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.KelasJenjang, error) {
	var k curriculum.KelasJenjang
	if err := get(ctx, repo.getExec(exec), &k, kelasJenjangSelect.Where(sq.Eq{"kj.id": id})); err != nil {
		return curriculum.KelasJenjang{}, trapNoRowsErr(err, curriculum.ErrKelasJenjangNotFound, "selecting kelas jenjang")
	}
	return k, nil
}

func (repo curriculumRepository) ListKelasJenjang(ctx context.Context, jenjangID string, exec ...core.DBExecutor) ([]curriculum.KelasJenjang, error) {
	q := kelasJenjangSelect.OrderBy("kj.created_at")
	if jenjangID != "" {
		q = q.Where(sq.Eq{"kj.jenjang_id": jenjangID})
	}
	kelas := make([]curriculum.KelasJenjang, 0)
	if err := selectAll(ctx, repo.getExec(exec), &kelas, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return kelas, nil
		}
		return nil, errors.Wrap(err, "listing kelas jenjang")
	}
	return kelas, nil
}

func (repo curriculumRepository) UpdateKelasJenjang(ctx context.Context, k curriculum.KelasJenjang, exec ...core.DBExecutor) (curriculum.KelasJenjang, error) {
	q := psql.Update("kelas_jenjang").
		Set("name", k.Name).
		Set("jenjang_id", k.JenjangID).
		Where(sq.Eq{"id": k.ID})
	err := updateOne(ctx, repo.getExec(exec), q,
		curriculum.ErrKelasJenjangNotFound, curriculum.ErrKelasJenjangExists, curriculum.ErrJenjangNotFound, "updating kelas jenjang")
	if err != nil {
		return curriculum.KelasJenjang{}, err
	}
	return repo.GetKelasJenjang(ctx, k.ID, exec...)
}

func (repo curriculumRepository) DeleteKelasJenjang(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("kelas_jenjang").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, curriculum.ErrKelasJenjangNotFound, curriculum.ErrInUse, "deleting kelas jenjang")
}

// TahunAjaran

func (repo curriculumRepository) CreateTahunAjaran(ctx context.Context, t curriculum.TahunAjaran, exec ...core.DBExecutor) (curriculum.TahunAjaran, error) {
	q := psql.Insert("tahun_ajaran").
		Columns("id", "name", "is_active", "created_at").
		Values(t.ID, t.Name, t.IsActive, t.CreatedAt)
	if err := insert(ctx, repo.getExec(exec), q, curriculum.ErrTahunAjaranExists, nil, "inserting tahun ajaran"); err != nil {
		return curriculum.TahunAjaran{}, err
	}
	return t, nil
}

func (repo curriculumRepository) GetTahunAjaran(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.TahunAjaran, error) {
	var t curriculum.TahunAjaran
	if err := get(ctx, repo.getExec(exec), &t, tahunAjaranSelect.Where(sq.Eq{"t.id": id})); err != nil {
		return curriculum.TahunAjaran{}, trapNoRowsErr(err, curriculum.ErrTahunAjaranNotFound, "selecting tahun ajaran")
	}
	return t, nil
}

func (repo curriculumRepository) ListTahunAjaran(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.TahunAjaran, error) {
	tahun := make([]curriculum.TahunAjaran, 0)
	if err := selectAll(ctx, repo.getExec(exec), &tahun, tahunAjaranSelect.OrderBy("t.created_at")); err != nil {
		return nil, errors.Wrap(err, "listing tahun ajaran")
	}
	return tahun, nil
}

func (repo curriculumRepository) UpdateTahunAjaran(ctx context.Context, t curriculum.TahunAjaran, exec ...core.DBExecutor) (curriculum.TahunAjaran, error) {
	q := psql.Update("tahun_ajaran").
		Set("name", t.Name).
		Set("is_active", t.IsActive).
		Where(sq.Eq{"id": t.ID})
	err := updateOne(ctx, repo.getExec(exec), q,
		curriculum.ErrTahunAjaranNotFound, curriculum.ErrTahunAjaranExists, nil, "updating tahun ajaran")
	if err != nil {
		return curriculum.TahunAjaran{}, err
	}
	return t, nil
}

func (repo curriculumRepository) DeactivateTahunAjaran(ctx context.Context, exceptID string, exec ...core.DBExecutor) error {
	q := psql.Update("tahun_ajaran").
		Set("is_active", false).
		Where(sq.And{sq.Eq{"is_active": true}, sq.NotEq{"id": exceptID}})
	if _, err := execAffected(ctx, repo.getExec(exec), q); err != nil {
		return errors.Wrap(err, "deactivating tahun ajaran")
	}
	return nil
}

func (repo curriculumRepository) DeleteTahunAjaran(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("tahun_ajaran").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, curriculum.ErrTahunAjaranNotFound, curriculum.ErrInUse, "deleting tahun ajaran")
}

// MataPelajaran

func (repo curriculumRepository) CreateMataPelajaran(ctx context.Context, m curriculum.MataPelajaran, exec ...core.DBExecutor) (curriculum.MataPelajaran, error) {
	q := psql.Insert("mata_pelajaran").Columns("id", "name", "created_at").Values(m.ID, m.Name, m.CreatedAt)
	if err := insert(ctx, repo.getExec(exec), q, curriculum.ErrMataPelajaranExists, nil, "inserting mata pelajaran"); err != nil {
		return curriculum.MataPelajaran{}, err
	}
	return m, nil
}

func (repo curriculumRepository) GetMataPelajaran(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.MataPelajaran, error) {
	var m curriculum.MataPelajaran
	if err := get(ctx, repo.getExec(exec), &m, mapelSelect.Where(sq.Eq{"m.id": id})); err != nil {
		return curriculum.MataPelajaran{}, trapNoRowsErr(err, curriculum.ErrMataPelajaranNotFound, "selecting mata pelajaran")
	}
	return m, nil
}

func (repo curriculumRepository) ListMataPelajaran(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.MataPelajaran, error) {
	mapel := make([]curriculum.MataPelajaran, 0)
	if err := selectAll(ctx, repo.getExec(exec), &mapel, mapelSelect.OrderBy("m.created_at")); err != nil {
		return nil, errors.Wrap(err, "listing mata pelajaran")
	}
	return mapel, nil
}

func (repo curriculumRepository) UpdateMataPelajaran(ctx context.Context, m curriculum.MataPelajaran, exec ...core.DBExecutor) (curriculum.MataPelajaran, error) {
	q := psql.Update("mata_pelajaran").Set("name", m.Name).Where(sq.Eq{"id": m.ID})
	err := updateOne(ctx, repo.getExec(exec), q,
		curriculum.ErrMataPelajaranNotFound, curriculum.ErrMataPelajaranExists, nil, "updating mata pelajaran")
	if err != nil {
		return curriculum.MataPelajaran{}, err
	}
	return m, nil
}

func (repo curriculumRepository) DeleteMataPelajaran(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("mata_pelajaran").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, curriculum.ErrMataPelajaranNotFound, curriculum.ErrInUse, "deleting mata pelajaran")
}

// KategoriIndikator

func (repo curriculumRepository) CreateKategoriIndikator(ctx context.Context, k curriculum.KategoriIndikator, exec ...core.DBExecutor) (curriculum.KategoriIndikator, error) {
	q := psql.Insert("kategori_indikator").
		Columns("id", "name", "mata_pelajaran_id", "created_at").
		Values(k.ID, k.Name, k.MataPelajaranID, k.CreatedAt)
	err := insert(ctx, repo.getExec(exec), q,
		curriculum.ErrKategoriIndikatorExists, curriculum.ErrMataPelajaranNotFound, "inserting kategori indikator")
	if err != nil {
		return curriculum.KategoriIndikator{}, err
	}
	return repo.GetKategoriIndikator(ctx, k.ID, exec...)
}

func (repo curriculumRepository) GetKategoriIndikator(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.KategoriIndikator, error) {
	var k curriculum.KategoriIndikator
	if err := get(ctx, repo.getExec(exec), &k, kategoriSelect.Where(sq.Eq{"ki.id": id})); err != nil {
		return curriculum.KategoriIndikator{}, trapNoRowsErr(err, curriculum.ErrKategoriIndikatorNotFound, "selecting kategori indikator")
	}
	return k, nil
}

func (repo curriculumRepository) ListKategoriIndikator(ctx context.Context, exec ...core.DBExecutor) ([]curriculum.KategoriIndikator, error) {
	kategori := make([]curriculum.KategoriIndikator, 0)
	if err := selectAll(ctx, repo.getExec(exec), &kategori, kategoriSelect.OrderBy("ki.created_at")); err != nil {
		return nil, errors.Wrap(err, "listing kategori indikator")
	}
	return kategori, nil
}

func (repo curriculumRepository) UpdateKategoriIndikator(ctx context.Context, k curriculum.KategoriIndikator, exec ...core.DBExecutor) (curriculum.KategoriIndikator, error) {
	q := psql.Update("kategori_indikator").
		Set("name", k.Name).
		Set("mata_pelajaran_id", k.MataPelajaranID).
		Where(sq.Eq{"id": k.ID})
	err := updateOne(ctx, repo.getExec(exec), q,
		curriculum.ErrKategoriIndikatorNotFound, curriculum.ErrKategoriIndikatorExists, curriculum.ErrMataPelajaranNotFound,
		"updating kategori indikator")
	if err != nil {
		return curriculum.KategoriIndikator{}, err
	}
	return repo.GetKategoriIndikator(ctx, k.ID, exec...)
}

func (repo curriculumRepository) DeleteKategoriIndikator(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("kategori_indikator").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, curriculum.ErrKategoriIndikatorNotFound, curriculum.ErrInUse, "deleting kategori indikator")
}

// IndikatorKelas

func (repo curriculumRepository) CreateIndikator(ctx context.Context, i curriculum.IndikatorKelas, exec ...core.DBExecutor) (curriculum.IndikatorKelas, error) {
	q := psql.Insert("indikator_kelas").
		Columns("id", "indikator", "kelas_jenjang_id", "kategori_indikator_id", "jenis_penilaian", "semester", "created_at").
		Values(i.ID, i.Indikator, i.KelasJenjangID, i.KategoriIndikatorID, i.JenisPenilaian, i.Semester, i.CreatedAt)
	if err := insert(ctx, repo.getExec(exec), q, curriculum.ErrIndikatorExists, nil, "inserting indikator"); err != nil {
		return curriculum.IndikatorKelas{}, err
	}
	return repo.GetIndikator(ctx, i.ID, exec...)
}

func (repo curriculumRepository) GetIndikator(ctx context.Context, id string, exec ...core.DBExecutor) (curriculum.IndikatorKelas, error) {
	var i curriculum.IndikatorKelas
	if err := get(ctx, repo.getExec(exec), &i, indikatorSelect.Where(sq.Eq{"ik.id": id})); err != nil {
		return curriculum.IndikatorKelas{}, trapNoRowsErr(err, curriculum.ErrIndikatorNotFound, "selecting indikator")
	}
	return i, nil
}

func (repo curriculumRepository) ListIndikator(ctx context.Context, filter curriculum.IndikatorFilter, exec ...core.DBExecutor) ([]curriculum.IndikatorKelas, error) {
	q := indikatorSelect.OrderBy("ki.created_at", "ik.created_at")
	if filter.KelasJenjangID != "" {
		q = q.Where(sq.Eq{"ik.kelas_jenjang_id": filter.KelasJenjangID})
	}
	if filter.Semester != "" {
		q = q.Where(sq.Eq{"ik.semester": filter.Semester})
	}
	indikator := make([]curriculum.IndikatorKelas, 0)
	if err := selectAll(ctx, repo.getExec(exec), &indikator, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return indikator, nil
		}
		return nil, errors.Wrap(err, "listing indikator")
	}
	return indikator, nil
}

func (repo curriculumRepository) UpdateIndikator(ctx context.Context, i curriculum.IndikatorKelas, exec ...core.DBExecutor) (curriculum.IndikatorKelas, error) {
	q := psql.Update("indikator_kelas").
		SetMap(map[string]interface{}{
			"indikator":             i.Indikator,
			"kelas_jenjang_id":      i.KelasJenjangID,
			"kategori_indikator_id": i.KategoriIndikatorID,
			"jenis_penilaian":       i.JenisPenilaian,
			"semester":              i.Semester,
		}).
		Where(sq.Eq{"id": i.ID})
	if err := updateOne(ctx, repo.getExec(exec), q, curriculum.ErrIndikatorNotFound, curriculum.ErrIndikatorExists, nil, "updating indikator"); err != nil {
		return curriculum.IndikatorKelas{}, err
	}
	return repo.GetIndikator(ctx, i.ID, exec...)
}

func (repo curriculumRepository) DeleteIndikator(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("indikator_kelas").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, curriculum.ErrIndikatorNotFound, curriculum.ErrInUse, "deleting indikator")
}
