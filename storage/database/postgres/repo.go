package pgrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/sigenerus/sigenerus/core"
)

// postgres error codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// repository holds what every repository of the package shares.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

func pqCode(err error) string {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return string(pqErr.Code)
	}
	return ""
}

// trapNoRowsErr maps "no rows" and malformed ids to notFound.
func trapNoRowsErr(err error, notFound error, msg string) error {
	if err == sql.ErrNoRows || pqCode(err) == codeInvalidText {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapConstraintErr maps unique violations to conflict and foreign key violations to inUse.
func trapConstraintErr(err error, conflict, inUse error, msg string) error {
	switch pqCode(err) {
	case codeUniqueViolation:
		if conflict != nil {
			return conflict
		}
	case codeForeignKeyViolation:
		if inUse != nil {
			return inUse
		}
	}
	return errors.Wrap(err, msg)
}

func get(ctx context.Context, exec core.DBExecutor, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, query, args...)
}

func selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, query, args...)
}

// execAffected runs q and returns the number of affected rows.
func execAffected(ctx context.Context, exec core.DBExecutor, q sq.Sqlizer) (int64, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// deleteOne deletes the rows matched by q, reporting notFound when none was.
func deleteOne(ctx context.Context, exec core.DBExecutor, q sq.DeleteBuilder, notFound, inUse error, msg string) error {
	n, err := execAffected(ctx, exec, q)
	if err != nil {
		if pqCode(err) == codeInvalidText {
			return notFound
		}
		return trapConstraintErr(err, nil, inUse, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// paginate counts the rows matched by q, then loads the requested page into dest.
func paginate(ctx context.Context, exec core.DBExecutor, dest interface{}, q sq.SelectBuilder, orderBy string, page core.Page) (int, error) {
	var total int
	if err := get(ctx, exec, &total, q.RemoveColumns().Columns("COUNT(*)")); err != nil {
		return 0, errors.Wrap(err, "counting rows")
	}

	q = q.OrderBy(orderBy)
	if page.Limit > 0 {
		q = q.Limit(uint64(page.Limit)).Offset(uint64(page.Offset()))
	}
	if err := selectAll(ctx, exec, dest, q); err != nil {
		return 0, errors.Wrap(err, "selecting rows")
	}
	return total, nil
}

func likeArg(search string) string {
	return "%" + search + "%"
}
