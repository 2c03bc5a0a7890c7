package inmemdb

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/activity"
)

type activityRepository struct {
	db *DB
}

var _ activity.Repository = (*activityRepository)(nil)

func NewActivityRepository(db *DB) *activityRepository {
	return &activityRepository{db: db}
}

func (db *DB) withSasaran(k activity.Kegiatan) activity.Kegiatan {
	ids := db.sasaran[k.ID]
	k.Sasaran = make([]activity.Sasaran, 0, len(ids))
	for _, id := range ids {
		k.Sasaran = append(k.Sasaran, activity.Sasaran{JenjangID: id, JenjangName: db.jenjang[id].Name})
	}
	return k
}

func (repo *activityRepository) CreateKegiatan(_ context.Context, k activity.Kegiatan, _ ...core.DBExecutor) (activity.Kegiatan, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k.Sasaran = nil
	repo.db.kegiatan[k.ID] = k
	return repo.db.withSasaran(k), nil
}

func (repo *activityRepository) GetKegiatan(_ context.Context, id string, _ ...core.DBExecutor) (activity.Kegiatan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if k, ok := repo.db.kegiatan[id]; ok {
		return repo.db.withSasaran(k), nil
	}
	return activity.Kegiatan{}, activity.ErrKegiatanNotFound
}

func (db *DB) matchKegiatan(k activity.Kegiatan, filter activity.QueryFilter) bool {
	switch {
	case filter.DaerahID != "" && k.DaerahID.String != filter.DaerahID:
	case filter.DesaID != "" && k.DesaID.String != filter.DesaID:
	case filter.KelompokID != "" && k.KelompokID.String != filter.KelompokID:
	case filter.Tingkat != "" && k.Tingkat != filter.Tingkat:
	case !filter.StartFrom.IsZero() && k.StartDate.Before(filter.StartFrom):
	case !filter.StartTo.IsZero() && !k.StartDate.Before(filter.StartTo):
	default:
		if filter.JenjangID == "" {
			return true
		}
		for _, id := range db.sasaran[k.ID] {
			if id == filter.JenjangID {
				return true
			}
		}
	}
	return false
}

func (repo *activityRepository) QueryKegiatan(_ context.Context, filter activity.QueryFilter, _ ...core.DBExecutor) ([]activity.Kegiatan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	less := func(a, b activity.Kegiatan) bool { return a.CreatedAt.After(b.CreatedAt) }
	if filter.OrderByStart {
		less = func(a, b activity.Kegiatan) bool { return a.StartDate.Before(b.StartDate) }
	}
	all := sortedValues(repo.db.kegiatan, less)
	kegiatan := make([]activity.Kegiatan, 0, len(all))
	for _, k := range all {
		if repo.db.matchKegiatan(k, filter) {
			kegiatan = append(kegiatan, repo.db.withSasaran(k))
		}
	}
	return kegiatan, nil
}

func (repo *activityRepository) UpdateKegiatan(_ context.Context, k activity.Kegiatan, _ ...core.DBExecutor) (activity.Kegiatan, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.kegiatan[k.ID]
	if !ok {
		return activity.Kegiatan{}, activity.ErrKegiatanNotFound
	}
	k.CreatedAt = orig.CreatedAt
	k.Sasaran = nil
	repo.db.kegiatan[k.ID] = k
	return repo.db.withSasaran(k), nil
}

func (repo *activityRepository) SetSasaran(_ context.Context, kegiatanID string, jenjangIDs []string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kegiatan[kegiatanID]; !ok {
		return activity.ErrKegiatanNotFound
	}
	repo.db.sasaran[kegiatanID] = append([]string(nil), jenjangIDs...)
	return nil
}

func (repo *activityRepository) DeleteKegiatan(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kegiatan[id]; !ok {
		return activity.ErrKegiatanNotFound
	}
	delete(repo.db.kegiatan, id)
	delete(repo.db.sasaran, id)
	for aid, a := range repo.db.absen {
		if a.KegiatanID == id {
			delete(repo.db.absen, aid)
		}
	}
	return nil
}

func (db *DB) withAbsenNames(a activity.Absen) activity.Absen {
	m := db.withMemberNames(db.members[a.MumiID])
	a.MumiNama = m.Nama
	a.MumiJenjangID = m.JenjangID
	a.MumiJenjangName = m.JenjangName
	k := db.kegiatan[a.KegiatanID]
	a.KegiatanName = k.Name
	a.KegiatanStartDate = null.NewTime(k.StartDate, !k.StartDate.IsZero())
	return a
}

func (repo *activityRepository) UpsertAbsen(_ context.Context, a activity.Absen, _ ...core.DBExecutor) (activity.Absen, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kegiatan[a.KegiatanID]; !ok {
		return activity.Absen{}, activity.ErrKegiatanNotFound
	}
	for id, other := range repo.db.absen {
		if other.KegiatanID == a.KegiatanID && other.MumiID == a.MumiID {
			a.ID = id
			break
		}
	}
	repo.db.absen[a.ID] = a
	return repo.db.withAbsenNames(a), nil
}

func (repo *activityRepository) absenWhere(keep func(activity.Absen) bool) []activity.Absen {
	all := sortedValues(repo.db.absen, func(a, b activity.Absen) bool { return a.WaktuAbsen.After(b.WaktuAbsen) })
	absens := make([]activity.Absen, 0, len(all))
	for _, a := range all {
		if keep(a) {
			absens = append(absens, repo.db.withAbsenNames(a))
		}
	}
	return absens
}

func (repo *activityRepository) AbsenByKegiatan(_ context.Context, kegiatanID string, _ ...core.DBExecutor) ([]activity.Absen, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.absenWhere(func(a activity.Absen) bool { return a.KegiatanID == kegiatanID }), nil
}

func (repo *activityRepository) AbsenByMember(_ context.Context, mumiID int64, _ ...core.DBExecutor) ([]activity.Absen, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.absenWhere(func(a activity.Absen) bool { return a.MumiID == mumiID }), nil
}

func (repo *activityRepository) DeleteAbsen(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.absen[id]; !ok {
		return activity.ErrAbsenNotFound
	}
	delete(repo.db.absen, id)
	return nil
}
