package pgrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
)

type regionRepository struct {
	repository
}

var _ region.Repository = (*regionRepository)(nil)

func NewRegionRepository(exec core.DBExecutor) *regionRepository {
	return &regionRepository{repository{exec: exec}}
}

var (
	daerahSelect = psql.Select("d.id", "d.name", "d.created_at", "d.updated_at").
		From("daerah d")

	desaSelect = psql.Select("ds.id", "ds.name", "ds.daerah_id", "d.name AS daerah_name", "ds.created_at", "ds.updated_at").
		From("desa ds").
		Join("daerah d ON d.id = ds.daerah_id")

	kelompokSelect = psql.Select(
		"k.id", "k.name", "k.daerah_id", "k.desa_id", "d.name AS daerah_name", "ds.name AS desa_name",
		"k.created_at", "k.updated_at").
		From("kelompok k").
		Join("daerah d ON d.id = k.daerah_id").
		Join("desa ds ON ds.id = k.desa_id")
)

func count(ctx context.Context, exec core.DBExecutor, table string) (int, error) {
	var n int
	if err := get(ctx, exec, &n, psql.Select("COUNT(*)").From(table)); err != nil {
		return 0, errors.Wrapf(err, "counting %s", table)
	}
	return n, nil
}

// Daerah

func (repo regionRepository) CreateDaerah(ctx context.Context, d region.Daerah, exec ...core.DBExecutor) (region.Daerah, error) {
	q := psql.Insert("daerah").
		Columns("id", "name", "created_at", "updated_at").
		Values(d.ID, d.Name, d.CreatedAt, d.UpdatedAt)
	if _, err := execAffected(ctx, repo.getExec(exec), q); err != nil {
		return region.Daerah{}, trapConstraintErr(err, region.ErrDaerahExists, nil, "inserting daerah")
	}
	return d, nil
}

func (repo regionRepository) GetDaerah(ctx context.Context, id string, exec ...core.DBExecutor) (region.Daerah, error) {
	var d region.Daerah
	if err := get(ctx, repo.getExec(exec), &d, daerahSelect.Where(sq.Eq{"d.id": id})); err != nil {
		return region.Daerah{}, trapNoRowsErr(err, region.ErrDaerahNotFound, "selecting daerah")
	}
	return d, nil
}

func (repo regionRepository) QueryDaerah(ctx context.Context, filter region.QueryFilter, exec ...core.DBExecutor) ([]region.Daerah, int, error) {
	q := daerahSelect
	if filter.Search != "" {
		q = q.Where(sq.ILike{"d.name": likeArg(filter.Search)})
	}
	daerah := make([]region.Daerah, 0)
	total, err := paginate(ctx, repo.getExec(exec), &daerah, q, "d.created_at DESC", filter.Page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying daerah")
	}
	return daerah, total, nil
}

func (repo regionRepository) UpdateDaerah(ctx context.Context, d region.Daerah, exec ...core.DBExecutor) (region.Daerah, error) {
	q := psql.Update("daerah").
		Set("name", d.Name).
		Set("updated_at", d.UpdatedAt).
		Where(sq.Eq{"id": d.ID})
	n, err := execAffected(ctx, repo.getExec(exec), q)
	if err != nil {
		return region.Daerah{}, trapConstraintErr(err, region.ErrDaerahExists, nil, "updating daerah")
	}
	if n == 0 {
		return region.Daerah{}, region.ErrDaerahNotFound
	}
	return d, nil
}

func (repo regionRepository) DeleteDaerah(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("daerah").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, region.ErrDaerahNotFound, region.ErrHasChildren, "deleting daerah")
}

func (repo regionRepository) CountDaerah(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "daerah")
}

// Desa

func (repo regionRepository) CreateDesa(ctx context.Context, ds region.Desa, exec ...core.DBExecutor) (region.Desa, error) {
	q := psql.Insert("desa").
		Columns("id", "name", "daerah_id", "created_at", "updated_at").
		Values(ds.ID, ds.Name, ds.DaerahID, ds.CreatedAt, ds.UpdatedAt)
	if _, err := execAffected(ctx, repo.getExec(exec), q); err != nil {
		return region.Desa{}, trapConstraintErr(err, region.ErrDesaExists, region.ErrDaerahNotFound, "inserting desa")
	}
	return repo.GetDesa(ctx, ds.ID, exec...)
}

func (repo regionRepository) GetDesa(ctx context.Context, id string, exec ...core.DBExecutor) (region.Desa, error) {
	var ds region.Desa
	if err := get(ctx, repo.getExec(exec), &ds, desaSelect.Where(sq.Eq{"ds.id": id})); err != nil {
		return region.Desa{}, trapNoRowsErr(err, region.ErrDesaNotFound, "selecting desa")
	}
	return ds, nil
}

func (repo regionRepository) QueryDesa(ctx context.Context, filter region.QueryFilter, exec ...core.DBExecutor) ([]region.Desa, int, error) {
	q := desaSelect
	if filter.Search != "" {
		q = q.Where(sq.ILike{"ds.name": likeArg(filter.Search)})
	}
	if filter.DaerahID != "" {
		q = q.Where(sq.Eq{"ds.daerah_id": filter.DaerahID})
	}
	desa := make([]region.Desa, 0)
	total, err := paginate(ctx, repo.getExec(exec), &desa, q, "ds.created_at DESC", filter.Page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying desa")
	}
	return desa, total, nil
}

func (repo regionRepository) UpdateDesa(ctx context.Context, ds region.Desa, exec ...core.DBExecutor) (region.Desa, error) {
	q := psql.Update("desa").
		Set("name", ds.Name).
		Set("daerah_id", ds.DaerahID).
		Set("updated_at", ds.UpdatedAt).
		Where(sq.Eq{"id": ds.ID})
	n, err := execAffected(ctx, repo.getExec(exec), q)
	if err != nil {
		return region.Desa{}, trapConstraintErr(err, region.ErrDesaExists, region.ErrDaerahNotFound, "updating desa")
	}
	if n == 0 {
		return region.Desa{}, region.ErrDesaNotFound
	}
	return repo.GetDesa(ctx, ds.ID, exec...)
}

func (repo regionRepository) DeleteDesa(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("desa").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, region.ErrDesaNotFound, region.ErrHasChildren, "deleting desa")
}

func (repo regionRepository) CountDesa(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "desa")
}

// Kelompok

func (repo regionRepository) CreateKelompok(ctx context.Context, k region.Kelompok, exec ...core.DBExecutor) (region.Kelompok, error) {
	q := psql.Insert("kelompok").
		Columns("id", "name", "daerah_id", "desa_id", "created_at", "updated_at").
		Values(k.ID, k.Name, k.DaerahID, k.DesaID, k.CreatedAt, k.UpdatedAt)
	if _, err := execAffected(ctx, repo.getExec(exec), q); err != nil {
		return region.Kelompok{}, trapConstraintErr(err, region.ErrKelompokExists, region.ErrDesaNotFound, "inserting kelompok")
	}
	return repo.GetKelompok(ctx, k.ID, exec...)
}

func (repo regionRepository) GetKelompok(ctx context.Context, id string, exec ...core.DBExecutor) (region.Kelompok, error) {
	var k region.Kelompok
	if err := get(ctx, repo.getExec(exec), &k, kelompokSelect.Where(sq.Eq{"k.id": id})); err != nil {
		return region.Kelompok{}, trapNoRowsErr(err, region.ErrKelompokNotFound, "selecting kelompok")
	}
	return k, nil
}

func (repo regionRepository) QueryKelompok(ctx context.Context, filter region.QueryFilter, exec ...core.DBExecutor) ([]region.Kelompok, int, error) {
	q := kelompokSelect
	if filter.Search != "" {
		q = q.Where(sq.ILike{"k.name": likeArg(filter.Search)})
	}
	if filter.DaerahID != "" {
		q = q.Where(sq.Eq{"k.daerah_id": filter.DaerahID})
	}
	if filter.DesaID != "" {
		q = q.Where(sq.Eq{"k.desa_id": filter.DesaID})
	}
	kelompok := make([]region.Kelompok, 0)
	total, err := paginate(ctx, repo.getExec(exec), &kelompok, q, "k.created_at DESC", filter.Page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying kelompok")
	}
	return kelompok, total, nil
}

func (repo regionRepository) UpdateKelompok(ctx context.Context, k region.Kelompok, exec ...core.DBExecutor) (region.Kelompok, error) {
	q := psql.Update("kelompok").
		Set("name", k.Name).
		Set("daerah_id", k.DaerahID).
		Set("desa_id", k.DesaID).
		Set("updated_at", k.UpdatedAt).
		Where(sq.Eq{"id": k.ID})
	n, err := execAffected(ctx, repo.getExec(exec), q)
	if err != nil {
		return region.Kelompok{}, trapConstraintErr(err, region.ErrKelompokExists, region.ErrDesaNotFound, "updating kelompok")
	}
	if n == 0 {
		return region.Kelompok{}, region.ErrKelompokNotFound
	}
	return repo.GetKelompok(ctx, k.ID, exec...)
}

func (repo regionRepository) DeleteKelompok(ctx context.Context, id string, exec ...core.DBExecutor) error {
	q := psql.Delete("kelompok").Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, region.ErrKelompokNotFound, region.ErrHasChildren, "deleting kelompok")
}

func (repo regionRepository) CountKelompok(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "kelompok")
}
