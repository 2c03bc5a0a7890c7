package pgrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/activity"
)

type activityRepository struct {
	repository
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(exec core.DBExecutor) *activityRepository {
	return &activityRepository{repository{exec: exec}}
}

var (
	kegiatanSelect = psql.Select(
		"k.id", "k.name", "k.start_date", "k.end_date", "k.tingkat", "k.daerah_id", "k.desa_id", "k.kelompok_id",
		"k.target_type", "k.jenis_kelamin", "k.min_usia", "k.max_usia", "k.created_at", "k.updated_at").
		From("kegiatan k")

	absenSelect = psql.Select(
		"a.id", "a.kegiatan_id", "a.mumi_id", "a.status", "a.waktu_absen",
		"m.nama AS mumi_nama", "m.jenjang_id AS mumi_jenjang_id", "j.name AS mumi_jenjang_name",
		"k.name AS kegiatan_name", "k.start_date AS kegiatan_start_date").
		From("absen a").
		Join("member m ON m.id = a.mumi_id").
		Join("jenjang j ON j.id = m.jenjang_id").
		Join("kegiatan k ON k.id = a.kegiatan_id")
)

type sasaranRow struct {
	KegiatanID string `db:"kegiatan_id"`
	activity.Sasaran
}

// loadSasaran fills the sasaran of every kegiatan with one query.
func (repo activityRepository) loadSasaran(ctx context.Context, exec core.DBExecutor, kegiatan []activity.Kegiatan) error {
	if len(kegiatan) == 0 {
		return nil
	}
	ids := make([]string, len(kegiatan))
	for i, k := range kegiatan {
		ids[i] = k.ID
	}

	q := psql.Select("s.kegiatan_id", "s.jenjang_id", "j.name AS jenjang_name").
		From("kegiatan_sasaran s").
		Join("jenjang j ON j.id = s.jenjang_id").
		Where(sq.Eq{"s.kegiatan_id": ids}).
		OrderBy("j.created_at")
	var rows []sasaranRow
	if err := selectAll(ctx, exec, &rows, q); err != nil {
		return errors.Wrap(err, "selecting sasaran")
	}

	byKegiatan := make(map[string][]activity.Sasaran, len(kegiatan))
	for _, row := range rows {
		byKegiatan[row.KegiatanID] = append(byKegiatan[row.KegiatanID], row.Sasaran)
	}
	for i := range kegiatan {
		kegiatan[i].Sasaran = byKegiatan[kegiatan[i].ID]
		if kegiatan[i].Sasaran == nil {
			kegiatan[i].Sasaran = make([]activity.Sasaran, 0)
		}
	}
	return nil
}

func kegiatanValues(k activity.Kegiatan) map[string]interface{} {
	return map[string]interface{}{
		"name":          k.Name,
		"start_date":    k.StartDate,
		"end_date":      k.EndDate,
		"tingkat":       k.Tingkat,
		"daerah_id":     k.DaerahID,
		"desa_id":       k.DesaID,
		"kelompok_id":   k.KelompokID,
		"target_type":   k.TargetType,
		"jenis_kelamin": k.JenisKelamin,
		"min_usia":      k.MinUsia,
		"max_usia":      k.MaxUsia,
		"updated_at":    k.UpdatedAt,
	}
}

func (repo activityRepository) CreateKegiatan(ctx context.Context, k activity.Kegiatan, exec ...core.DBExecutor) (activity.Kegiatan, error) {
	values := kegiatanValues(k)
	values["id"] = k.ID
	values["created_at"] = k.CreatedAt
	if _, err := execAffected(ctx, repo.getExec(exec), psql.Insert("kegiatan").SetMap(values)); err != nil {
		return activity.Kegiatan{}, errors.Wrap(err, "inserting kegiatan")
	}
	return repo.GetKegiatan(ctx, k.ID, exec...)
}

func (repo activityRepository) GetKegiatan(ctx context.Context, id string, exec ...core.DBExecutor) (activity.Kegiatan, error) {
	ex := repo.getExec(exec)
	var k activity.Kegiatan
	if err := get(ctx, ex, &k, kegiatanSelect.Where(sq.Eq{"k.id": id})); err != nil {
		return activity.Kegiatan{}, trapNoRowsErr(err, activity.ErrKegiatanNotFound, "selecting kegiatan")
	}
	kegiatan := []activity.Kegiatan{k}
	if err := repo.loadSasaran(ctx, ex, kegiatan); err != nil {
		return activity.Kegiatan{}, err
	}
	return kegiatan[0], nil
}

func (repo activityRepository) QueryKegiatan(ctx context.Context, filter activity.QueryFilter, exec ...core.DBExecutor) ([]activity.Kegiatan, error) {
	ex := repo.getExec(exec)
	q := kegiatanSelect
	eq := sq.Eq{}
	for col, val := range map[string]string{
		"k.daerah_id":   filter.DaerahID,
		"k.desa_id":     filter.DesaID,
		"k.kelompok_id": filter.KelompokID,
		"k.tingkat":     filter.Tingkat,
	} {
		if val != "" {
			eq[col] = val
		}
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	if filter.JenjangID != "" {
		q = q.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM kegiatan_sasaran s WHERE s.kegiatan_id = k.id AND s.jenjang_id = ?)", filter.JenjangID))
	}
	if !filter.StartFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"k.start_date": filter.StartFrom})
	}
	if !filter.StartTo.IsZero() {
		q = q.Where(sq.Lt{"k.start_date": filter.StartTo})
	}
	if filter.OrderByStart {
		q = q.OrderBy("k.start_date ASC")
	} else {
		q = q.OrderBy("k.created_at DESC")
	}

	kegiatan := make([]activity.Kegiatan, 0)
	if err := selectAll(ctx, ex, &kegiatan, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return kegiatan, nil
		}
		return nil, errors.Wrap(err, "querying kegiatan")
	}
	if err := repo.loadSasaran(ctx, ex, kegiatan); err != nil {
		return nil, err
	}
	return kegiatan, nil
}

func (repo activityRepository) UpdateKegiatan(ctx context.Context, k activity.Kegiatan, exec ...core.DBExecutor) (activity.Kegiatan, error) {
	q := psql.Update("kegiatan").SetMap(kegiatanValues(k)).Where(sq.Eq{"id": k.ID})
	if err := updateOne(ctx, repo.getExec(exec), q, activity.ErrKegiatanNotFound, nil, nil, "updating kegiatan"); err != nil {
		return activity.Kegiatan{}, err
	}
	return repo.GetKegiatan(ctx, k.ID, exec...)
}

func (repo activityRepository) SetSasaran(ctx context.Context, kegiatanID string, jenjangIDs []string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	if _, err := execAffected(ctx, ex, psql.Delete("kegiatan_sasaran").Where(sq.Eq{"kegiatan_id": kegiatanID})); err != nil {
		return trapNoRowsErr(err, activity.ErrKegiatanNotFound, "clearing sasaran")
	}
	if len(jenjangIDs) == 0 {
		return nil
	}

	q := psql.Insert("kegiatan_sasaran").Columns("kegiatan_id", "jenjang_id")
	for _, id := range jenjangIDs {
		q = q.Values(kegiatanID, id)
	}
	if _, err := execAffected(ctx, ex, q); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return activity.ErrKegiatanNotFound
		}
		return errors.Wrap(err, "inserting sasaran")
	}
	return nil
}

func (repo activityRepository) DeleteKegiatan(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("kegiatan").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, activity.ErrKegiatanNotFound, nil, "deleting kegiatan")
}

func (repo activityRepository) UpsertAbsen(ctx context.Context, a activity.Absen, exec ...core.DBExecutor) (activity.Absen, error) {
	query, args, err := psql.Insert("absen").
		Columns("id", "kegiatan_id", "mumi_id", "status", "waktu_absen").
		Values(a.ID, a.KegiatanID, a.MumiID, a.Status, a.WaktuAbsen).
		Suffix("ON CONFLICT (kegiatan_id, mumi_id) DO UPDATE SET status = EXCLUDED.status, waktu_absen = EXCLUDED.waktu_absen").
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return activity.Absen{}, errors.Wrap(err, "building query")
	}

	ex := repo.getExec(exec)
	var id string
	if err := ex.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return activity.Absen{}, activity.ErrKegiatanNotFound
		}
		return activity.Absen{}, errors.Wrap(err, "upserting absen")
	}

	var saved activity.Absen
	if err := get(ctx, ex, &saved, absenSelect.Where(sq.Eq{"a.id": id})); err != nil {
		return activity.Absen{}, trapNoRowsErr(err, activity.ErrAbsenNotFound, "selecting absen")
	}
	return saved, nil
}

func (repo activityRepository) absenWhere(ctx context.Context, exec core.DBExecutor, pred sq.Sqlizer) ([]activity.Absen, error) {
	absens := make([]activity.Absen, 0)
	if err := selectAll(ctx, exec, &absens, absenSelect.Where(pred).OrderBy("a.waktu_absen DESC")); err != nil {
		if pqCode(err) == codeInvalidText {
			return absens, nil
		}
		return nil, errors.Wrap(err, "selecting absen")
	}
	return absens, nil
}

func (repo activityRepository) AbsenByKegiatan(ctx context.Context, kegiatanID string, exec ...core.DBExecutor) ([]activity.Absen, error) {
	return repo.absenWhere(ctx, repo.getExec(exec), sq.Eq{"a.kegiatan_id": kegiatanID})
}

func (repo activityRepository) AbsenByMember(ctx context.Context, mumiID int64, exec ...core.DBExecutor) ([]activity.Absen, error) {
	return repo.absenWhere(ctx, repo.getExec(exec), sq.Eq{"a.mumi_id": mumiID})
}

func (repo activityRepository) DeleteAbsen(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("absen").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, activity.ErrAbsenNotFound, nil, "deleting absen")
}
