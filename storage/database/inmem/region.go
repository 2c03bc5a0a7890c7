package inmemdb

import (
	"context"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
)

type regionRepository struct {
	db *DB
}

var _ region.Repository = (*regionRepository)(nil)

func NewRegionRepository(db *DB) *regionRepository {
	return &regionRepository{db: db}
}

func newestFirst[T any](createdAt func(T) int64) func(a, b T) bool {
	return func(a, b T) bool { return createdAt(a) > createdAt(b) }
}

// Daerah

func (repo *regionRepository) CreateDaerah(_ context.Context, d region.Daerah, _ ...core.DBExecutor) (region.Daerah, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, other := range repo.db.daerah {
		if other.Name == d.Name {
			return region.Daerah{}, region.ErrDaerahExists
		}
	}
	repo.db.daerah[d.ID] = d
	return d, nil
}

func (repo *regionRepository) GetDaerah(_ context.Context, id string, _ ...core.DBExecutor) (region.Daerah, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if d, ok := repo.db.daerah[id]; ok {
		return d, nil
	}
	return region.Daerah{}, region.ErrDaerahNotFound
}

func (repo *regionRepository) QueryDaerah(_ context.Context, filter region.QueryFilter, _ ...core.DBExecutor) ([]region.Daerah, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.daerah, newestFirst(func(d region.Daerah) int64 { return d.CreatedAt.UnixNano() }))
	matches := make([]region.Daerah, 0, len(all))
	for _, d := range all {
		if contains(d.Name, filter.Search) {
			matches = append(matches, d)
		}
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func (repo *regionRepository) UpdateDaerah(_ context.Context, d region.Daerah, _ ...core.DBExecutor) (region.Daerah, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.daerah[d.ID]; !ok {
		return region.Daerah{}, region.ErrDaerahNotFound
	}
	for _, other := range repo.db.daerah {
		if other.ID != d.ID && other.Name == d.Name {
			return region.Daerah{}, region.ErrDaerahExists
		}
	}
	repo.db.daerah[d.ID] = d
	return d, nil
}

func (repo *regionRepository) DeleteDaerah(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.daerah[id]; !ok {
		return region.ErrDaerahNotFound
	}
	for _, ds := range repo.db.desa {
		if ds.DaerahID == id {
			return region.ErrHasChildren
		}
	}
	if repo.db.regionInUse(id) {
		return region.ErrHasChildren
	}
	delete(repo.db.daerah, id)
	return nil
}

func (repo *regionRepository) CountDaerah(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.daerah), nil
}

// Desa

func (db *DB) withDaerahName(ds region.Desa) region.Desa {
	ds.DaerahName = db.daerah[ds.DaerahID].Name
	return ds
}

func (repo *regionRepository) checkDesaUnique(ds region.Desa) error {
	for _, other := range repo.db.desa {
		if other.ID != ds.ID && other.Name == ds.Name && other.DaerahID == ds.DaerahID {
			return region.ErrDesaExists
		}
	}
	return nil
}

func (repo *regionRepository) CreateDesa(_ context.Context, ds region.Desa, _ ...core.DBExecutor) (region.Desa, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkDesaUnique(ds); err != nil {
		return region.Desa{}, err
	}
	repo.db.desa[ds.ID] = ds
	return repo.db.withDaerahName(ds), nil
}

func (repo *regionRepository) GetDesa(_ context.Context, id string, _ ...core.DBExecutor) (region.Desa, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if ds, ok := repo.db.desa[id]; ok {
		return repo.db.withDaerahName(ds), nil
	}
	return region.Desa{}, region.ErrDesaNotFound
}

func (repo *regionRepository) QueryDesa(_ context.Context, filter region.QueryFilter, _ ...core.DBExecutor) ([]region.Desa, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.desa, newestFirst(func(d region.Desa) int64 { return d.CreatedAt.UnixNano() }))
	matches := make([]region.Desa, 0, len(all))
	for _, ds := range all {
		if !contains(ds.Name, filter.Search) || (filter.DaerahID != "" && ds.DaerahID != filter.DaerahID) {
			continue
		}
		matches = append(matches, repo.db.withDaerahName(ds))
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func (repo *regionRepository) UpdateDesa(_ context.Context, ds region.Desa, _ ...core.DBExecutor) (region.Desa, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.desa[ds.ID]; !ok {
		return region.Desa{}, region.ErrDesaNotFound
	}
	if err := repo.checkDesaUnique(ds); err != nil {
		return region.Desa{}, err
	}
	repo.db.desa[ds.ID] = ds
	return repo.db.withDaerahName(ds), nil
}

func (repo *regionRepository) DeleteDesa(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.desa[id]; !ok {
		return region.ErrDesaNotFound
	}
	for _, k := range repo.db.kelompok {
		if k.DesaID == id {
			return region.ErrHasChildren
		}
	}
	if repo.db.regionInUse(id) {
		return region.ErrHasChildren
	}
	delete(repo.db.desa, id)
	return nil
}

func (repo *regionRepository) CountDesa(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.desa), nil
}

// Kelompok

func (db *DB) withRegionNames(k region.Kelompok) region.Kelompok {
	k.DaerahName = db.daerah[k.DaerahID].Name
	k.DesaName = db.desa[k.DesaID].Name
	return k
}

func (repo *regionRepository) checkKelompokUnique(k region.Kelompok) error {
	for _, other := range repo.db.kelompok {
		if other.ID != k.ID && other.Name == k.Name && other.DaerahID == k.DaerahID && other.DesaID == k.DesaID {
			return region.ErrKelompokExists
		}
	}
	return nil
}

func (repo *regionRepository) CreateKelompok(_ context.Context, k region.Kelompok, _ ...core.DBExecutor) (region.Kelompok, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkKelompokUnique(k); err != nil {
		return region.Kelompok{}, err
	}
	repo.db.kelompok[k.ID] = k
	return repo.db.withRegionNames(k), nil
}

func (repo *regionRepository) GetKelompok(_ context.Context, id string, _ ...core.DBExecutor) (region.Kelompok, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if k, ok := repo.db.kelompok[id]; ok {
		return repo.db.withRegionNames(k), nil
	}
	return region.Kelompok{}, region.ErrKelompokNotFound
}

func (repo *regionRepository) QueryKelompok(_ context.Context, filter region.QueryFilter, _ ...core.DBExecutor) ([]region.Kelompok, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.kelompok, newestFirst(func(k region.Kelompok) int64 { return k.CreatedAt.UnixNano() }))
	matches := make([]region.Kelompok, 0, len(all))
	for _, k := range all {
		switch {
		case !contains(k.Name, filter.Search):
		case filter.DaerahID != "" && k.DaerahID != filter.DaerahID:
		case filter.DesaID != "" && k.DesaID != filter.DesaID:
		default:
			matches = append(matches, repo.db.withRegionNames(k))
		}
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func (repo *regionRepository) UpdateKelompok(_ context.Context, k region.Kelompok, _ ...core.DBExecutor) (region.Kelompok, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kelompok[k.ID]; !ok {
		return region.Kelompok{}, region.ErrKelompokNotFound
	}
	if err := repo.checkKelompokUnique(k); err != nil {
		return region.Kelompok{}, err
	}
	repo.db.kelompok[k.ID] = k
	return repo.db.withRegionNames(k), nil
}

func (repo *regionRepository) DeleteKelompok(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kelompok[id]; !ok {
		return region.ErrKelompokNotFound
	}
	if repo.db.regionInUse(id) {
		return region.ErrHasChildren
	}
	delete(repo.db.kelompok, id)
	return nil
}

func (repo *regionRepository) CountKelompok(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.db.kelompok), nil
}

// regionInUse tells whether a user, member or kegiatan references the region id.
func (db *DB) regionInUse(id string) bool {
	for _, u := range db.users {
		if u.DaerahID.String == id || u.DesaID.String == id || u.KelompokID.String == id {
			return true
		}
	}
	for _, m := range db.members {
		if m.DaerahID == id || m.DesaID == id || m.KelompokID == id {
			return true
		}
	}
	for _, k := range db.kegiatan {
		if k.DaerahID.String == id || k.DesaID.String == id || k.KelompokID.String == id {
			return true
		}
	}
	return false
}
