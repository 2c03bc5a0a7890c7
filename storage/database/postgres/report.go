package pgrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/report"
)

type reportRepository struct {
	repository
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(exec core.DBExecutor) *reportRepository {
	return &reportRepository{repository{exec: exec}}
}

var (
	raporSelect = psql.Select(
		"r.id", "r.caberawit_id", "r.kelas_jenjang_id", "r.indikator_kelas_id", "r.tahun_ajaran_id", "r.semester",
		"r.status", "r.nilai_pengetahuan", "r.nilai_keterampilan", "ik.indikator", "t.name AS tahun_ajaran_name",
		"r.created_at", "r.updated_at").
		From("rapor r").
		Join("indikator_kelas ik ON ik.id = r.indikator_kelas_id").
		Join("tahun_ajaran t ON t.id = r.tahun_ajaran_id")

	catatanSelect = psql.Select(
		"id", "caberawit_id", "tahun_ajaran_id", "semester", "catatan", "created_at", "updated_at").
		From("catatan_wali_kelas")
)

func catatanWhere(key report.CatatanKey) sq.Eq {
	return sq.Eq{"caberawit_id": key.CaberawitID, "tahun_ajaran_id": key.TahunAjaranID, "semester": key.Semester}
}

func (repo reportRepository) RaporExists(ctx context.Context, caberawitID int64, kelasJenjangID, tahunAjaranID, semester string, exec ...core.DBExecutor) (bool, error) {
	q := psql.Select("1").
		Prefix("SELECT EXISTS (").
		From("rapor").
		Where(sq.Eq{
			"caberawit_id":     caberawitID,
			"kelas_jenjang_id": kelasJenjangID,
			"tahun_ajaran_id":  tahunAjaranID,
			"semester":         semester,
		}).
		Suffix(")")
	var exists bool
	if err := get(ctx, repo.getExec(exec), &exists, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return false, nil
		}
		return false, errors.Wrap(err, "checking rapor")
	}
	return exists, nil
}

func (repo reportRepository) CreateRapor(ctx context.Context, r report.Rapor, exec ...core.DBExecutor) (report.Rapor, error) {
	q := psql.Insert("rapor").
		Columns("id", "caberawit_id", "kelas_jenjang_id", "indikator_kelas_id", "tahun_ajaran_id", "semester",
			"status", "nilai_pengetahuan", "nilai_keterampilan", "created_at", "updated_at").
		Values(r.ID, r.CaberawitID, r.KelasJenjangID, r.IndikatorKelasID, r.TahunAjaranID, r.Semester,
			r.Status, r.NilaiPengetahuan, r.NilaiKeterampilan, r.CreatedAt, r.UpdatedAt)
	if _, err := execAffected(ctx, repo.getExec(exec), q); err != nil {
		return report.Rapor{}, errors.Wrap(err, "inserting rapor")
	}
	return repo.GetRapor(ctx, r.ID, exec...)
}

func (repo reportRepository) GetRapor(ctx context.Context, id string, exec ...core.DBExecutor) (report.Rapor, error) {
	var r report.Rapor
	if err := get(ctx, repo.getExec(exec), &r, raporSelect.Where(sq.Eq{"r.id": id})); err != nil {
		return report.Rapor{}, trapNoRowsErr(err, report.ErrRaporNotFound, "selecting rapor")
	}
	return r, nil
}

func (repo reportRepository) QueryRapor(ctx context.Context, filter report.RaporFilter, exec ...core.DBExecutor) ([]report.Rapor, error) {
	eq := sq.Eq{"r.caberawit_id": filter.CaberawitID}
	if filter.TahunAjaranID != "" {
		eq["r.tahun_ajaran_id"] = filter.TahunAjaranID
	}
	if filter.Semester != "" {
		eq["r.semester"] = filter.Semester
	}
	rapor := make([]report.Rapor, 0)
	if err := selectAll(ctx, repo.getExec(exec), &rapor, raporSelect.Where(eq).OrderBy("r.created_at")); err != nil {
		if pqCode(err) == codeInvalidText {
			return rapor, nil
		}
		return nil, errors.Wrap(err, "querying rapor")
	}
	return rapor, nil
}

func (repo reportRepository) UpdateRapor(ctx context.Context, r report.Rapor, exec ...core.DBExecutor) (report.Rapor, error) {
	q := psql.Update("rapor").
		Set("status", r.Status).
		Set("nilai_pengetahuan", r.NilaiPengetahuan).
		Set("nilai_keterampilan", r.NilaiKeterampilan).
		Set("updated_at", r.UpdatedAt).
		Where(sq.Eq{"id": r.ID})
	if err := updateOne(ctx, repo.getExec(exec), q, report.ErrRaporNotFound, nil, nil, "updating rapor"); err != nil {
		return report.Rapor{}, err
	}
	return repo.GetRapor(ctx, r.ID, exec...)
}

func (repo reportRepository) DeleteRapor(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("rapor").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, report.ErrRaporNotFound, nil, "deleting rapor")
}

func (repo reportRepository) UpsertCatatan(ctx context.Context, c report.CatatanWaliKelas, exec ...core.DBExecutor) (report.CatatanWaliKelas, error) {
	q := psql.Insert("catatan_wali_kelas").
		Columns("id", "caberawit_id", "tahun_ajaran_id", "semester", "catatan", "created_at", "updated_at").
		Values(c.ID, c.CaberawitID, c.TahunAjaranID, c.Semester, c.Catatan, c.CreatedAt, c.UpdatedAt).
		Suffix("ON CONFLICT ON CONSTRAINT catatan_wali_kelas_key DO UPDATE SET catatan = EXCLUDED.catatan, updated_at = EXCLUDED.updated_at")
	ex := repo.getExec(exec)
	if _, err := execAffected(ctx, ex, q); err != nil {
		return report.CatatanWaliKelas{}, errors.Wrap(err, "upserting catatan")
	}
	return repo.GetCatatan(ctx, report.CatatanKey{
		CaberawitID:   c.CaberawitID,
		TahunAjaranID: c.TahunAjaranID,
		Semester:      c.Semester,
	}, ex)
}

func (repo reportRepository) GetCatatan(ctx context.Context, key report.CatatanKey, exec ...core.DBExecutor) (report.CatatanWaliKelas, error) {
	var c report.CatatanWaliKelas
	if err := get(ctx, repo.getExec(exec), &c, catatanSelect.Where(catatanWhere(key))); err != nil {
		return report.CatatanWaliKelas{}, trapNoRowsErr(err, report.ErrCatatanNotFound, "selecting catatan")
	}
	return c, nil
}

func (repo reportRepository) DeleteCatatan(ctx context.Context, key report.CatatanKey, exec ...core.DBExecutor) error {
	q := psql.Delete("catatan_wali_kelas").Where(catatanWhere(key))
	return deleteOne(ctx, repo.getExec(exec), q, report.ErrCatatanNotFound, nil, "deleting catatan")
}
