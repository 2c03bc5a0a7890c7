package pgrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
)

type memberRepository struct {
	repository
}

var _ member.Repository = (*memberRepository)(nil)

func NewMemberRepository(exec core.DBExecutor) *memberRepository {
	return &memberRepository{repository{exec: exec}}
}

var memberSelect = psql.Select(
	"m.id", "m.kind", "m.nama", "m.daerah_id", "m.desa_id", "m.kelompok_id", "m.jenjang_id", "m.kelas_jenjang_id",
	"m.tgl_lahir", "m.jenis_kelamin", "m.gol_darah", "m.nama_ortu", "m.mahasiswa", "m.foto", "m.wali_id",
	"da.name AS daerah_name", "de.name AS desa_name", "k.name AS kelompok_name", "j.name AS jenjang_name",
	"kj.name AS kelas_jenjang_name", "m.created_at", "m.updated_at").
	From("member m").
	Join("daerah da ON da.id = m.daerah_id").
	Join("desa de ON de.id = m.desa_id").
	Join("kelompok k ON k.id = m.kelompok_id").
	Join("jenjang j ON j.id = m.jenjang_id").
	LeftJoin("kelas_jenjang kj ON kj.id = m.kelas_jenjang_id")

func memberValues(m member.Member) map[string]interface{} {
	return map[string]interface{}{
		"nama":             m.Nama,
		"daerah_id":        m.DaerahID,
		"desa_id":          m.DesaID,
		"kelompok_id":      m.KelompokID,
		"jenjang_id":       m.JenjangID,
		"kelas_jenjang_id": m.KelasJenjangID,
		"tgl_lahir":        m.TglLahir,
		"jenis_kelamin":    m.JenisKelamin,
		"gol_darah":        m.GolDarah,
		"nama_ortu":        m.NamaOrtu,
		"mahasiswa":        m.Mahasiswa,
		"foto":             m.Foto,
		"wali_id":          m.WaliID,
		"updated_at":       m.UpdatedAt,
	}
}

func (repo memberRepository) CreateMember(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	values := memberValues(m)
	values["kind"] = m.Kind
	values["created_at"] = m.CreatedAt

	query, args, err := psql.Insert("member").SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return member.Member{}, errors.Wrap(err, "building query")
	}
	var id int64
	if err := repo.getExec(exec).QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return member.Member{}, trapConstraintErr(err, nil, member.ErrWaliNotFound, "inserting member")
	}
	return repo.GetMember(ctx, m.Kind, id, exec...)
}

func (repo memberRepository) GetMember(ctx context.Context, kind string, id int64, exec ...core.DBExecutor) (member.Member, error) {
	var m member.Member
	q := memberSelect.Where(sq.Eq{"m.kind": kind, "m.id": id})
	if err := get(ctx, repo.getExec(exec), &m, q); err != nil {
		return member.Member{}, trapNoRowsErr(err, member.NotFound(kind), "selecting member")
	}
	return m, nil
}

func (repo memberRepository) QueryMembers(ctx context.Context, kind string, filter member.QueryFilter, exec ...core.DBExecutor) ([]member.Member, int, error) {
	q := memberSelect.Where(sq.Eq{"m.kind": kind})
	if filter.Search != "" {
		q = q.Where(sq.ILike{"m.nama": likeArg(filter.Search)})
	}
	eq := sq.Eq{}
	for col, val := range map[string]string{
		"m.jenis_kelamin": filter.JenisKelamin,
		"m.jenjang_id":    filter.JenjangID,
		"m.daerah_id":     filter.DaerahID,
		"m.desa_id":       filter.DesaID,
		"m.kelompok_id":   filter.KelompokID,
	} {
		if val != "" {
			eq[col] = val
		}
	}
	if filter.Mahasiswa != nil {
		eq["m.mahasiswa"] = *filter.Mahasiswa
	}
	if len(eq) > 0 {
		q = q.Where(eq)
	}
	if filter.JenjangIDs != nil {
		ids := make([]string, 0, len(filter.JenjangIDs))
		for _, id := range filter.JenjangIDs {
			if id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return make([]member.Member, 0), 0, nil
		}
		q = q.Where(sq.Eq{"m.jenjang_id": ids})
	}
	if !filter.BornFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"m.tgl_lahir": filter.BornFrom})
	}
	if !filter.BornTo.IsZero() {
		q = q.Where(sq.LtOrEq{"m.tgl_lahir": filter.BornTo})
	}

	members := make([]member.Member, 0)
	total, err := paginate(ctx, repo.getExec(exec), &members, q, "m.created_at DESC, m.id DESC", filter.Page)
	if err != nil {
		if pqCode(err) == codeInvalidText {
			return make([]member.Member, 0), 0, nil
		}
		return nil, 0, errors.Wrap(err, "querying members")
	}
	return members, total, nil
}

func (repo memberRepository) UpdateMember(ctx context.Context, m member.Member, exec ...core.DBExecutor) (member.Member, error) {
	q := psql.Update("member").SetMap(memberValues(m)).Where(sq.Eq{"id": m.ID, "kind": m.Kind})
	n, err := execAffected(ctx, repo.getExec(exec), q)
	if err != nil {
		return member.Member{}, trapConstraintErr(err, nil, member.ErrWaliNotFound, "updating member")
	}
	if n == 0 {
		return member.Member{}, member.NotFound(m.Kind)
	}
	return repo.GetMember(ctx, m.Kind, m.ID, exec...)
}

func (repo memberRepository) DeleteMember(ctx context.Context, kind string, id int64, exec ...core.DBExecutor) error {
	q := psql.Delete("member").Where(sq.Eq{"id": id, "kind": kind})
	return deleteOne(ctx, repo.getExec(exec), q, member.NotFound(kind), member.ErrInUse, "deleting member")
}

func (repo memberRepository) ExistingMemberIDs(ctx context.Context, kind string, ids []int64, exec ...core.DBExecutor) ([]int64, error) {
	existing := make([]int64, 0, len(ids))
	if len(ids) == 0 {
		return existing, nil
	}
	q := psql.Select("id").From("member").Where(sq.Eq{"kind": kind, "id": core.DedupInt64(ids)})
	if err := selectAll(ctx, repo.getExec(exec), &existing, q); err != nil {
		return nil, errors.Wrap(err, "selecting member ids")
	}
	return existing, nil
}

func (repo memberRepository) CountByJenjang(ctx context.Context, kind string, exec ...core.DBExecutor) ([]member.JenjangCount, error) {
	q := psql.Select("m.jenjang_id", "j.name AS jenjang_nama", "COUNT(*) AS total").
		From("member m").
		Join("jenjang j ON j.id = m.jenjang_id").
		Where(sq.Eq{"m.kind": kind}).
		GroupBy("m.jenjang_id", "j.name").
		OrderBy("j.name")
	counts := make([]member.JenjangCount, 0)
	if err := selectAll(ctx, repo.getExec(exec), &counts, q); err != nil {
		return nil, errors.Wrap(err, "counting members by jenjang")
	}
	return counts, nil
}

func (repo memberRepository) CountByJenjangKelompok(ctx context.Context, kind, desaID string, exec ...core.DBExecutor) ([]member.KelompokJenjangCount, error) {
	q := psql.Select("m.kelompok_id", "k.name AS kelompok_nama", "m.jenjang_id", "j.name AS jenjang_nama", "COUNT(*) AS total").
		From("member m").
		Join("kelompok k ON k.id = m.kelompok_id").
		Join("jenjang j ON j.id = m.jenjang_id").
		Where(sq.Eq{"m.kind": kind, "m.desa_id": desaID}).
		GroupBy("m.kelompok_id", "k.name", "m.jenjang_id", "j.name").
		OrderBy("k.name", "j.name")
	counts := make([]member.KelompokJenjangCount, 0)
	if err := selectAll(ctx, repo.getExec(exec), &counts, q); err != nil {
		if pqCode(err) == codeInvalidText {
			return counts, nil
		}
		return nil, errors.Wrap(err, "counting members by kelompok and jenjang")
	}
	return counts, nil
}
