package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/curriculum"
)

type curriculumRepository struct {
	db *DB
}

var _ curriculum.Repository = (*curriculumRepository)(nil)

func NewCurriculumRepository(db *DB) *curriculumRepository {
	return &curriculumRepository{db: db}
}

func oldestFirst[T any](createdAt func(T) time.Time) func(a, b T) bool {
	return func(a, b T) bool { return createdAt(a).Before(createdAt(b)) }
}

// Jenjang

func (repo *curriculumRepository) checkJenjang(j curriculum.Jenjang) error {
	for _, other := range repo.db.jenjang {
		if other.ID != j.ID && other.Name == j.Name {
			return curriculum.ErrJenjangExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateJenjang(_ context.Context, j curriculum.Jenjang, _ ...core.DBExecutor) (curriculum.Jenjang, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkJenjang(j); err != nil {
		return curriculum.Jenjang{}, err
	}
	repo.db.jenjang[j.ID] = j
	return j, nil
}

func (repo *curriculumRepository) GetJenjang(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.Jenjang, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if j, ok := repo.db.jenjang[id]; ok {
		return j, nil
	}
	return curriculum.Jenjang{}, curriculum.ErrJenjangNotFound
}

func (repo *curriculumRepository) ListJenjang(_ context.Context, _ ...core.DBExecutor) ([]curriculum.Jenjang, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return sortedValues(repo.db.jenjang, oldestFirst(func(j curriculum.Jenjang) time.Time { return j.CreatedAt })), nil
}

func (repo *curriculumRepository) UpdateJenjang(_ context.Context, j curriculum.Jenjang, _ ...core.DBExecutor) (curriculum.Jenjang, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.jenjang[j.ID]; !ok {
		return curriculum.Jenjang{}, curriculum.ErrJenjangNotFound
	}
	if err := repo.checkJenjang(j); err != nil {
		return curriculum.Jenjang{}, err
	}
	repo.db.jenjang[j.ID] = j
	return j, nil
}

func (repo *curriculumRepository) DeleteJenjang(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.jenjang[id]; !ok {
		return curriculum.ErrJenjangNotFound
	}
	for _, k := range repo.db.kelasJenjang {
		if k.JenjangID == id {
			return curriculum.ErrInUse
		}
	}
	for _, m := range repo.db.members {
		if m.JenjangID == id {
			return curriculum.ErrInUse
		}
	}
	for _, ids := range repo.db.sasaran {
		for _, jid := range ids {
			if jid == id {
				return curriculum.ErrInUse
			}
		}
	}
	delete(repo.db.jenjang, id)
	return nil
}

// KelasJenjang

func (db *DB) withJenjangName(k curriculum.KelasJenjang) curriculum.KelasJenjang {
	k.JenjangName = db.jenjang[k.JenjangID].Name
	return k
}

func (repo *curriculumRepository) checkKelas(k curriculum.KelasJenjang) error {
	for _, other := range repo.db.kelasJenjang {
		if other.ID != k.ID && other.Name == k.Name && other.JenjangID == k.JenjangID {
			return curriculum.ErrKelasJenjangExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateKelasJenjang(_ context.Context, k curriculum.KelasJenjang, _ ...core.DBExecutor) (curriculum.KelasJenjang, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkKelas(k); err != nil {
		return curriculum.KelasJenjang{}, err
	}
	repo.db.kelasJenjang[k.ID] = k
	return repo.db.withJenjangName(k), nil
}

func (repo *curriculumRepository) GetKelasJenjang(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.KelasJenjang, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if k, ok := repo.db.kelasJenjang[id]; ok {
		return repo.db.withJenjangName(k), nil
	}
	return curriculum.KelasJenjang{}, curriculum.ErrKelasJenjangNotFound
}

func (repo *curriculumRepository) ListKelasJenjang(_ context.Context, jenjangID string, _ ...core.DBExecutor) ([]curriculum.KelasJenjang, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.kelasJenjang, oldestFirst(func(k curriculum.KelasJenjang) time.Time { return k.CreatedAt }))
	kelas := make([]curriculum.KelasJenjang, 0, len(all))
	for _, k := range all {
		if jenjangID == "" || k.JenjangID == jenjangID {
			kelas = append(kelas, repo.db.withJenjangName(k))
		}
	}
	return kelas, nil
}

func (repo *curriculumRepository) UpdateKelasJenjang(_ context.Context, k curriculum.KelasJenjang, _ ...core.DBExecutor) (curriculum.KelasJenjang, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kelasJenjang[k.ID]; !ok {
		return curriculum.KelasJenjang{}, curriculum.ErrKelasJenjangNotFound
	}
	if err := repo.checkKelas(k); err != nil {
		return curriculum.KelasJenjang{}, err
	}
	repo.db.kelasJenjang[k.ID] = k
	return repo.db.withJenjangName(k), nil
}

func (repo *curriculumRepository) DeleteKelasJenjang(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kelasJenjang[id]; !ok {
		return curriculum.ErrKelasJenjangNotFound
	}
	for _, i := range repo.db.indikator {
		if i.KelasJenjangID == id {
			return curriculum.ErrInUse
		}
	}
	for _, m := range repo.db.members {
		if m.KelasJenjangID.String == id {
			return curriculum.ErrInUse
		}
	}
	delete(repo.db.kelasJenjang, id)
	return nil
}

// TahunAjaran

func (repo *curriculumRepository) checkTahunAjaran(t curriculum.TahunAjaran) error {
	for _, other := range repo.db.tahunAjaran {
		if other.ID != t.ID && other.Name == t.Name {
			return curriculum.ErrTahunAjaranExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateTahunAjaran(_ context.Context, t curriculum.TahunAjaran, _ ...core.DBExecutor) (curriculum.TahunAjaran, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkTahunAjaran(t); err != nil {
		return curriculum.TahunAjaran{}, err
	}
	repo.db.tahunAjaran[t.ID] = t
	return t, nil
}

func (repo *curriculumRepository) GetTahunAjaran(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.TahunAjaran, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if t, ok := repo.db.tahunAjaran[id]; ok {
		return t, nil
	}
	return curriculum.TahunAjaran{}, curriculum.ErrTahunAjaranNotFound
}

func (repo *curriculumRepository) ListTahunAjaran(_ context.Context, _ ...core.DBExecutor) ([]curriculum.TahunAjaran, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return sortedValues(repo.db.tahunAjaran, oldestFirst(func(t curriculum.TahunAjaran) time.Time { return t.CreatedAt })), nil
}

func (repo *curriculumRepository) UpdateTahunAjaran(_ context.Context, t curriculum.TahunAjaran, _ ...core.DBExecutor) (curriculum.TahunAjaran, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tahunAjaran[t.ID]; !ok {
		return curriculum.TahunAjaran{}, curriculum.ErrTahunAjaranNotFound
	}
	if err := repo.checkTahunAjaran(t); err != nil {
		return curriculum.TahunAjaran{}, err
	}
	repo.db.tahunAjaran[t.ID] = t
	return t, nil
}

func (repo *curriculumRepository) DeactivateTahunAjaran(_ context.Context, exceptID string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, t := range repo.db.tahunAjaran {
		if id != exceptID && t.IsActive {
			t.IsActive = false
			repo.db.tahunAjaran[id] = t
		}
	}
	return nil
}

func (repo *curriculumRepository) DeleteTahunAjaran(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.tahunAjaran[id]; !ok {
		return curriculum.ErrTahunAjaranNotFound
	}
	for _, r := range repo.db.rapor {
		if r.TahunAjaranID == id {
			return curriculum.ErrInUse
		}
	}
	for _, c := range repo.db.catatan {
		if c.TahunAjaranID == id {
			return curriculum.ErrInUse
		}
	}
	delete(repo.db.tahunAjaran, id)
	return nil
}

// MataPelajaran

func (repo *curriculumRepository) checkMapel(m curriculum.MataPelajaran) error {
	for _, other := range repo.db.mapel {
		if other.ID != m.ID && other.Name == m.Name {
			return curriculum.ErrMataPelajaranExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateMataPelajaran(_ context.Context, m curriculum.MataPelajaran, _ ...core.DBExecutor) (curriculum.MataPelajaran, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkMapel(m); err != nil {
		return curriculum.MataPelajaran{}, err
	}
	repo.db.mapel[m.ID] = m
	return m, nil
}

func (repo *curriculumRepository) GetMataPelajaran(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.MataPelajaran, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if m, ok := repo.db.mapel[id]; ok {
		return m, nil
	}
	return curriculum.MataPelajaran{}, curriculum.ErrMataPelajaranNotFound
}

func (repo *curriculumRepository) ListMataPelajaran(_ context.Context, _ ...core.DBExecutor) ([]curriculum.MataPelajaran, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return sortedValues(repo.db.mapel, oldestFirst(func(m curriculum.MataPelajaran) time.Time { return m.CreatedAt })), nil
}

func (repo *curriculumRepository) UpdateMataPelajaran(_ context.Context, m curriculum.MataPelajaran, _ ...core.DBExecutor) (curriculum.MataPelajaran, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.mapel[m.ID]; !ok {
		return curriculum.MataPelajaran{}, curriculum.ErrMataPelajaranNotFound
	}
	if err := repo.checkMapel(m); err != nil {
		return curriculum.MataPelajaran{}, err
	}
	repo.db.mapel[m.ID] = m
	return m, nil
}

func (repo *curriculumRepository) DeleteMataPelajaran(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.mapel[id]; !ok {
		return curriculum.ErrMataPelajaranNotFound
	}
	for _, k := range repo.db.kategori {
		if k.MataPelajaranID.String == id {
			return curriculum.ErrInUse
		}
	}
	delete(repo.db.mapel, id)
	return nil
}

// KategoriIndikator

func (db *DB) withMapelName(k curriculum.KategoriIndikator) curriculum.KategoriIndikator {
	k.MataPelajaranName = null.String{}
	if m, ok := db.mapel[k.MataPelajaranID.String]; ok && k.MataPelajaranID.Valid {
		k.MataPelajaranName = null.StringFrom(m.Name)
	}
	return k
}

func (repo *curriculumRepository) checkKategori(k curriculum.KategoriIndikator) error {
	for _, other := range repo.db.kategori {
		if other.ID != k.ID && other.Name == k.Name && other.MataPelajaranID.String == k.MataPelajaranID.String {
			return curriculum.ErrKategoriIndikatorExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateKategoriIndikator(_ context.Context, k curriculum.KategoriIndikator, _ ...core.DBExecutor) (curriculum.KategoriIndikator, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkKategori(k); err != nil {
		return curriculum.KategoriIndikator{}, err
	}
	repo.db.kategori[k.ID] = k
	return repo.db.withMapelName(k), nil
}

func (repo *curriculumRepository) GetKategoriIndikator(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.KategoriIndikator, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if k, ok := repo.db.kategori[id]; ok {
		return repo.db.withMapelName(k), nil
	}
	return curriculum.KategoriIndikator{}, curriculum.ErrKategoriIndikatorNotFound
}

func (repo *curriculumRepository) ListKategoriIndikator(_ context.Context, _ ...core.DBExecutor) ([]curriculum.KategoriIndikator, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.kategori, oldestFirst(func(k curriculum.KategoriIndikator) time.Time { return k.CreatedAt }))
	for i := range all {
		all[i] = repo.db.withMapelName(all[i])
	}
	return all, nil
}

func (repo *curriculumRepository) UpdateKategoriIndikator(_ context.Context, k curriculum.KategoriIndikator, _ ...core.DBExecutor) (curriculum.KategoriIndikator, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kategori[k.ID]; !ok {
		return curriculum.KategoriIndikator{}, curriculum.ErrKategoriIndikatorNotFound
	}
	if err := repo.checkKategori(k); err != nil {
		return curriculum.KategoriIndikator{}, err
	}
	repo.db.kategori[k.ID] = k
	return repo.db.withMapelName(k), nil
}

func (repo *curriculumRepository) DeleteKategoriIndikator(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.kategori[id]; !ok {
		return curriculum.ErrKategoriIndikatorNotFound
	}
	for _, i := range repo.db.indikator {
		if i.KategoriIndikatorID == id {
			return curriculum.ErrInUse
		}
	}
	delete(repo.db.kategori, id)
	return nil
}

// IndikatorKelas

func (db *DB) withKategori(i curriculum.IndikatorKelas) curriculum.IndikatorKelas {
	k := db.withMapelName(db.kategori[i.KategoriIndikatorID])
	i.KategoriIndikatorName = k.Name
	i.MataPelajaranID = k.MataPelajaranID
	i.MataPelajaranName = k.MataPelajaranName
	return i
}

func (repo *curriculumRepository) checkIndikator(i curriculum.IndikatorKelas) error {
	for _, other := range repo.db.indikator {
		if other.ID != i.ID && other.Indikator == i.Indikator && other.KelasJenjangID == i.KelasJenjangID && other.Semester == i.Semester {
			return curriculum.ErrIndikatorExists
		}
	}
	return nil
}

func (repo *curriculumRepository) CreateIndikator(_ context.Context, i curriculum.IndikatorKelas, _ ...core.DBExecutor) (curriculum.IndikatorKelas, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkIndikator(i); err != nil {
		return curriculum.IndikatorKelas{}, err
	}
	repo.db.indikator[i.ID] = i
	return repo.db.withKategori(i), nil
}

func (repo *curriculumRepository) GetIndikator(_ context.Context, id string, _ ...core.DBExecutor) (curriculum.IndikatorKelas, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i, ok := repo.db.indikator[id]; ok {
		return repo.db.withKategori(i), nil
	}
	return curriculum.IndikatorKelas{}, curriculum.ErrIndikatorNotFound
}

func (repo *curriculumRepository) ListIndikator(_ context.Context, filter curriculum.IndikatorFilter, _ ...core.DBExecutor) ([]curriculum.IndikatorKelas, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.indikator, func(a, b curriculum.IndikatorKelas) bool {
		ka, kb := repo.db.kategori[a.KategoriIndikatorID].CreatedAt, repo.db.kategori[b.KategoriIndikatorID].CreatedAt
		if !ka.Equal(kb) {
			return ka.Before(kb)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	indikator := make([]curriculum.IndikatorKelas, 0, len(all))
	for _, i := range all {
		if filter.KelasJenjangID != "" && i.KelasJenjangID != filter.KelasJenjangID {
			continue
		}
		if filter.Semester != "" && i.Semester != filter.Semester {
			continue
		}
		indikator = append(indikator, repo.db.withKategori(i))
	}
	return indikator, nil
}

func (repo *curriculumRepository) UpdateIndikator(_ context.Context, i curriculum.IndikatorKelas, _ ...core.DBExecutor) (curriculum.IndikatorKelas, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.indikator[i.ID]; !ok {
		return curriculum.IndikatorKelas{}, curriculum.ErrIndikatorNotFound
	}
	if err := repo.checkIndikator(i); err != nil {
		return curriculum.IndikatorKelas{}, err
	}
	repo.db.indikator[i.ID] = i
	return repo.db.withKategori(i), nil
}

func (repo *curriculumRepository) DeleteIndikator(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.indikator[id]; !ok {
		return curriculum.ErrIndikatorNotFound
	}
	for _, r := range repo.db.rapor {
		if r.IndikatorKelasID == id {
			return curriculum.ErrInUse
		}
	}
	delete(repo.db.indikator, id)
	return nil
}
