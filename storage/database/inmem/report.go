package inmemdb

import (
	"context"
	"strconv"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func catatanKey(caberawitID int64, tahunAjaranID, semester string) string {
	return strconv.FormatInt(caberawitID, 10) + "/" + tahunAjaranID + "/" + semester
}

func (db *DB) withRaporNames(r report.Rapor) report.Rapor {
	r.Indikator = db.indikator[r.IndikatorKelasID].Indikator
	r.TahunAjaranName = db.tahunAjaran[r.TahunAjaranID].Name
	return r
}

func (repo *reportRepository) RaporExists(_ context.Context, caberawitID int64, kelasJenjangID, tahunAjaranID, semester string, _ ...core.DBExecutor) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, r := range repo.db.rapor {
		if r.CaberawitID == caberawitID && r.KelasJenjangID == kelasJenjangID &&
			r.TahunAjaranID == tahunAjaranID && r.Semester == semester {
			return true, nil
		}
	}
	return false, nil
}

func (repo *reportRepository) CreateRapor(_ context.Context, r report.Rapor, _ ...core.DBExecutor) (report.Rapor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.rapor[r.ID] = r
	return repo.db.withRaporNames(r), nil
}

func (repo *reportRepository) GetRapor(_ context.Context, id string, _ ...core.DBExecutor) (report.Rapor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.rapor[id]; ok {
		return repo.db.withRaporNames(r), nil
	}
	return report.Rapor{}, report.ErrRaporNotFound
}

func (repo *reportRepository) QueryRapor(_ context.Context, filter report.RaporFilter, _ ...core.DBExecutor) ([]report.Rapor, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.rapor, func(a, b report.Rapor) bool { return a.CreatedAt.Before(b.CreatedAt) })
	rapor := make([]report.Rapor, 0, len(all))
	for _, r := range all {
		switch {
		case r.CaberawitID != filter.CaberawitID:
		case filter.TahunAjaranID != "" && r.TahunAjaranID != filter.TahunAjaranID:
		case filter.Semester != "" && r.Semester != filter.Semester:
		default:
			rapor = append(rapor, repo.db.withRaporNames(r))
		}
	}
	return rapor, nil
}

func (repo *reportRepository) UpdateRapor(_ context.Context, r report.Rapor, _ ...core.DBExecutor) (report.Rapor, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.rapor[r.ID]; !ok {
		return report.Rapor{}, report.ErrRaporNotFound
	}
	repo.db.rapor[r.ID] = r
	return repo.db.withRaporNames(r), nil
}

func (repo *reportRepository) DeleteRapor(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.rapor[id]; !ok {
		return report.ErrRaporNotFound
	}
	delete(repo.db.rapor, id)
	return nil
}

func (repo *reportRepository) UpsertCatatan(_ context.Context, c report.CatatanWaliKelas, _ ...core.DBExecutor) (report.CatatanWaliKelas, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	key := catatanKey(c.CaberawitID, c.TahunAjaranID, c.Semester)
	if orig, ok := repo.db.catatan[key]; ok {
		c.ID = orig.ID
		c.CreatedAt = orig.CreatedAt
	}
	repo.db.catatan[key] = c
	return c, nil
}

func (repo *reportRepository) GetCatatan(_ context.Context, key report.CatatanKey, _ ...core.DBExecutor) (report.CatatanWaliKelas, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.catatan[catatanKey(key.CaberawitID, key.TahunAjaranID, key.Semester)]; ok {
		return c, nil
	}
	return report.CatatanWaliKelas{}, report.ErrCatatanNotFound
}

func (repo *reportRepository) DeleteCatatan(_ context.Context, key report.CatatanKey, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	k := catatanKey(key.CaberawitID, key.TahunAjaranID, key.Semester)
	if _, ok := repo.db.catatan[k]; !ok {
		return report.ErrCatatanNotFound
	}
	delete(repo.db.catatan, k)
	return nil
}
