package pgrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/user"
)

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

var userSelect = psql.Select(
	"u.id", "u.full_name", "u.username", "u.role",
	"u.daerah_id", "u.desa_id", "u.kelompok_id",
	"d.name AS daerah_name", "ds.name AS desa_name", "k.name AS kelompok_name",
	"u.password_hash", "u.created_at", "u.updated_at").
	From(`"user" u`).
	LeftJoin("daerah d ON d.id = u.daerah_id").
	LeftJoin("desa ds ON ds.id = u.desa_id").
	LeftJoin("kelompok k ON k.id = u.kelompok_id")

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Insert(`"user"`).
		Columns("full_name", "username", "role", "daerah_id", "desa_id", "kelompok_id", "password_hash", "created_at", "updated_at").
		Values(usr.FullName, usr.Username, usr.Role, usr.DaerahID, usr.DesaID, usr.KelompokID, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt).
		Suffix("RETURNING id")

	var id int64
	if err := get(ctx, repo.getExec(exec), &id, q); err != nil {
		return user.User{}, trapConstraintErr(err, user.ErrUsernameExists, nil, "inserting user")
	}
	return repo.GetUserByID(ctx, id, exec...)
}

func (repo userRepository) getUser(ctx context.Context, where sq.Sqlizer, exec []core.DBExecutor) (user.User, error) {
	var usr user.User
	if err := get(ctx, repo.getExec(exec), &usr, userSelect.Where(where)); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int64, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"u.id": id}, exec)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"u.username": username}, exec)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, int, error) {
	q := userSelect
	if filter.Search != "" {
		val := likeArg(filter.Search)
		q = q.Where(sq.Or{sq.ILike{"u.full_name": val}, sq.ILike{"u.username": val}})
	}
	if filter.Role != "" {
		q = q.Where(sq.Eq{"u.role": filter.Role})
	}
	users := make([]user.User, 0)
	total, err := paginate(ctx, repo.getExec(exec), &users, q, "u.created_at DESC, u.id DESC", filter.Page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	return users, total, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Update(`"user"`).
		SetMap(map[string]interface{}{
			"full_name":   usr.FullName,
			"username":    usr.Username,
			"role":        usr.Role,
			"daerah_id":   usr.DaerahID,
			"desa_id":     usr.DesaID,
			"kelompok_id": usr.KelompokID,
			"updated_at":  usr.UpdatedAt,
		}).
		Where(sq.Eq{"id": usr.ID})
	n, err := execAffected(ctx, repo.getExec(exec), q)
	if err != nil {
		return user.User{}, trapConstraintErr(err, user.ErrUsernameExists, nil, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID, exec...)
}

func (repo userRepository) UpdatePassword(ctx context.Context, id int64, hash []byte, exec ...core.DBExecutor) error {
	q := psql.Update(`"user"`).Set("password_hash", hash).Where(sq.Eq{"id": id})
	n, err := execAffected(ctx, repo.getExec(exec), q)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int64, exec ...core.DBExecutor) error {
	q := psql.Delete(`"user"`).Where(sq.Eq{"id": id})
	return deleteOne(ctx, repo.getExec(exec), q, user.ErrNotFound, nil, "deleting user")
}
