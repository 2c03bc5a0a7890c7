package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (db *DB) withScopeNames(usr user.User) user.User {
	usr.DaerahName, usr.DesaName, usr.KelompokName = null.String{}, null.String{}, null.String{}
	if d, ok := db.daerah[usr.DaerahID.String]; ok && usr.DaerahID.Valid {
		usr.DaerahName = null.StringFrom(d.Name)
	}
	if ds, ok := db.desa[usr.DesaID.String]; ok && usr.DesaID.Valid {
		usr.DesaName = null.StringFrom(ds.Name)
	}
	if k, ok := db.kelompok[usr.KelompokID.String]; ok && usr.KelompokID.Valid {
		usr.KelompokName = null.StringFrom(k.Name)
	}
	return usr
}

func (repo *userRepository) checkUsername(usr user.User) error {
	for _, other := range repo.db.users {
		if other.ID != usr.ID && other.Username == usr.Username {
			return user.ErrUsernameExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkUsername(usr); err != nil {
		return user.User{}, err
	}
	repo.db.userSeq++
	usr.ID = repo.db.userSeq
	repo.db.users[usr.ID] = usr
	return repo.db.withScopeNames(usr), nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id int64, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return repo.db.withScopeNames(usr), nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Username == username {
			return repo.db.withScopeNames(usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, _ ...core.DBExecutor) ([]user.User, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.users, func(a, b user.User) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	matches := make([]user.User, 0, len(all))
	for _, usr := range all {
		if filter.Search != "" && !contains(usr.FullName, filter.Search) && !contains(usr.Username, filter.Search) {
			continue
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		matches = append(matches, repo.db.withScopeNames(usr))
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUsername(usr); err != nil {
		return user.User{}, err
	}
	usr.PasswordHash = orig.PasswordHash
	usr.CreatedAt = orig.CreatedAt
	repo.db.users[usr.ID] = usr
	return repo.db.withScopeNames(usr), nil
}

func (repo *userRepository) UpdatePassword(_ context.Context, id int64, hash []byte, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.PasswordHash = hash
	repo.db.users[id] = usr
	return nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id int64, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	return nil
}
