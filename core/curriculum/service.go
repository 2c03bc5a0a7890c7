package curriculum

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
)

var (
	ErrJenjangNotFound           = core.NewNotFoundError("jenjang not found")
	ErrKelasJenjangNotFound      = core.NewNotFoundError("kelas jenjang not found")
	ErrTahunAjaranNotFound       = core.NewNotFoundError("tahun ajaran not found")
	ErrMataPelajaranNotFound     = core.NewNotFoundError("mata pelajaran not found")
	ErrKategoriIndikatorNotFound = core.NewNotFoundError("kategori indikator not found")
	ErrIndikatorNotFound         = core.NewNotFoundError("indikator not found")

	ErrJenjangExists           = core.NewConflictError("a jenjang with this name already exists")
	ErrKelasJenjangExists      = core.NewConflictError("a kelas with this name already exists in this jenjang")
	ErrTahunAjaranExists       = core.NewConflictError("a tahun ajaran with this name already exists")
	ErrMataPelajaranExists     = core.NewConflictError("a mata pelajaran with this name already exists")
	ErrKategoriIndikatorExists = core.NewConflictError("a kategori with this name already exists for this mata pelajaran")
	ErrIndikatorExists         = core.NewConflictError("this indikator already exists for this kelas and semester")
	ErrInUse                   = core.NewConflictError("record is still referenced")
)

type (
	Repository interface {
		CreateJenjang(ctx context.Context, j Jenjang, exec ...core.DBExecutor) (Jenjang, error)
		GetJenjang(ctx context.Context, id string, exec ...core.DBExecutor) (Jenjang, error)
		ListJenjang(ctx context.Context, exec ...core.DBExecutor) ([]Jenjang, error)
		UpdateJenjang(ctx context.Context, j Jenjang, exec ...core.DBExecutor) (Jenjang, error)
		DeleteJenjang(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateKelasJenjang(ctx context.Context, k KelasJenjang, exec ...core.DBExecutor) (KelasJenjang, error)
		GetKelasJenjang(ctx context.Context, id string, exec ...core.DBExecutor) (KelasJenjang, error)
		ListKelasJenjang(ctx context.Context, jenjangID string, exec ...core.DBExecutor) ([]KelasJenjang, error)
		UpdateKelasJenjang(ctx context.Context, k KelasJenjang, exec ...core.DBExecutor) (KelasJenjang, error)
		DeleteKelasJenjang(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateTahunAjaran(ctx context.Context, t TahunAjaran, exec ...core.DBExecutor) (TahunAjaran, error)
		GetTahunAjaran(ctx context.Context, id string, exec ...core.DBExecutor) (TahunAjaran, error)
		ListTahunAjaran(ctx context.Context, exec ...core.DBExecutor) ([]TahunAjaran, error)
		UpdateTahunAjaran(ctx context.Context, t TahunAjaran, exec ...core.DBExecutor) (TahunAjaran, error)
		// DeactivateTahunAjaran sets is_active=false on every tahun ajaran but exceptID.
		DeactivateTahunAjaran(ctx context.Context, exceptID string, exec ...core.DBExecutor) error
		DeleteTahunAjaran(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateMataPelajaran(ctx context.Context, m MataPelajaran, exec ...core.DBExecutor) (MataPelajaran, error)
		GetMataPelajaran(ctx context.Context, id string, exec ...core.DBExecutor) (MataPelajaran, error)
		ListMataPelajaran(ctx context.Context, exec ...core.DBExecutor) ([]MataPelajaran, error)
		UpdateMataPelajaran(ctx context.Context, m MataPelajaran, exec ...core.DBExecutor) (MataPelajaran, error)
		DeleteMataPelajaran(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateKategoriIndikator(ctx context.Context, k KategoriIndikator, exec ...core.DBExecutor) (KategoriIndikator, error)
		GetKategoriIndikator(ctx context.Context, id string, exec ...core.DBExecutor) (KategoriIndikator, error)
		ListKategoriIndikator(ctx context.Context, exec ...core.DBExecutor) ([]KategoriIndikator, error)
		UpdateKategoriIndikator(ctx context.Context, k KategoriIndikator, exec ...core.DBExecutor) (KategoriIndikator, error)
		DeleteKategoriIndikator(ctx context.Context, id string, exec ...core.DBExecutor) error

		CreateIndikator(ctx context.Context, i IndikatorKelas, exec ...core.DBExecutor) (IndikatorKelas, error)
		GetIndikator(ctx context.Context, id string, exec ...core.DBExecutor) (IndikatorKelas, error)
		// ListIndikator orders by kategori then creation time.
		ListIndikator(ctx context.Context, filter IndikatorFilter, exec ...core.DBExecutor) ([]IndikatorKelas, error)
		UpdateIndikator(ctx context.Context, i IndikatorKelas, exec ...core.DBExecutor) (IndikatorKelas, error)
		DeleteIndikator(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		db       core.DB
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, validate *validator.Validate) *Service {
	return &Service{db: db, repo: repo, validate: validate}
}

func newID() string {
	return uuid.New().String()
}

// Jenjang

func (svc *Service) CreateJenjang(ctx context.Context, nj NewJenjang) (Jenjang, error) {
	nj.Name = core.CleanString(nj.Name)
	if err := svc.validate.Struct(nj); err != nil {
		return Jenjang{}, err
	}
	return svc.repo.CreateJenjang(ctx, Jenjang{ID: newID(), Name: nj.Name, CreatedAt: time.Now().UTC()})
}

func (svc *Service) GetJenjang(ctx context.Context, id string) (Jenjang, error) {
	return svc.repo.GetJenjang(ctx, id)
}

func (svc *Service) ListJenjang(ctx context.Context) ([]Jenjang, error) {
	return svc.repo.ListJenjang(ctx)
}

func (svc *Service) UpdateJenjang(ctx context.Context, id string, nj NewJenjang) (Jenjang, error) {
	nj.Name = core.CleanString(nj.Name)
	if err := svc.validate.Struct(nj); err != nil {
		return Jenjang{}, err
	}
	j, err := svc.repo.GetJenjang(ctx, id)
	if err != nil {
		return Jenjang{}, err
	}
	j.Name = nj.Name
	return svc.repo.UpdateJenjang(ctx, j)
}

func (svc *Service) DeleteJenjang(ctx context.Context, id string) error {
	return svc.repo.DeleteJenjang(ctx, id)
}

// KelasJenjang

func (svc *Service) CreateKelasJenjang(ctx context.Context, nk NewKelasJenjang) (KelasJenjang, error) {
	nk.Name = core.CleanString(nk.Name)
	if err := svc.validate.Struct(nk); err != nil {
		return KelasJenjang{}, err
	}
	if _, err := svc.repo.GetJenjang(ctx, nk.JenjangID); err != nil {
		return KelasJenjang{}, err
	}
	return svc.repo.CreateKelasJenjang(ctx, KelasJenjang{
		ID:        newID(),
		Name:      nk.Name,
		JenjangID: nk.JenjangID,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *Service) GetKelasJenjang(ctx context.Context, id string) (KelasJenjang, error) {
	return svc.repo.GetKelasJenjang(ctx, id)
}

// ListKelasJenjang lists every kelas, or only the ones of jenjangID when set.
func (svc *Service) ListKelasJenjang(ctx context.Context, jenjangID string) ([]KelasJenjang, error) {
	return svc.repo.ListKelasJenjang(ctx, core.CleanString(jenjangID))
}

func (svc *Service) UpdateKelasJenjang(ctx context.Context, id string, nk NewKelasJenjang) (KelasJenjang, error) {
	nk.Name = core.CleanString(nk.Name)
	if err := svc.validate.Struct(nk); err != nil {
		return KelasJenjang{}, err
	}
	k, err := svc.repo.GetKelasJenjang(ctx, id)
	if err != nil {
		return KelasJenjang{}, err
	}
	if _, err = svc.repo.GetJenjang(ctx, nk.JenjangID); err != nil {
		return KelasJenjang{}, err
	}
	k.Name = nk.Name
	k.JenjangID = nk.JenjangID
	return svc.repo.UpdateKelasJenjang(ctx, k)
}

func (svc *Service) DeleteKelasJenjang(ctx context.Context, id string) error {
	return svc.repo.DeleteKelasJenjang(ctx, id)
}

// TahunAjaran

func (svc *Service) CreateTahunAjaran(ctx context.Context, nt NewTahunAjaran) (TahunAjaran, error) {
	nt.Name = core.CleanString(nt.Name)
	if err := svc.validate.Struct(nt); err != nil {
		return TahunAjaran{}, err
	}
	ta := TahunAjaran{ID: newID(), Name: nt.Name, IsActive: nt.IsActive, CreatedAt: time.Now().UTC()}

	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		var err error
		if ta, err = svc.repo.CreateTahunAjaran(ctx, ta, exec); err != nil {
			return err
		}
		if ta.IsActive {
			return svc.repo.DeactivateTahunAjaran(ctx, ta.ID, exec)
		}
		return nil
	})
	if err != nil {
		return TahunAjaran{}, err
	}
	return ta, nil
}

func (svc *Service) GetTahunAjaran(ctx context.Context, id string) (TahunAjaran, error) {
	return svc.repo.GetTahunAjaran(ctx, id)
}

func (svc *Service) ListTahunAjaran(ctx context.Context) ([]TahunAjaran, error) {
	return svc.repo.ListTahunAjaran(ctx)
}

// UpdateTahunAjaran renames ta; activating it deactivates all the others in the same transaction.
func (svc *Service) UpdateTahunAjaran(ctx context.Context, id string, nt NewTahunAjaran) (TahunAjaran, error) {
	nt.Name = core.CleanString(nt.Name)
	if err := svc.validate.Struct(nt); err != nil {
		return TahunAjaran{}, err
	}
	ta, err := svc.repo.GetTahunAjaran(ctx, id)
	if err != nil {
		return TahunAjaran{}, err
	}
	ta.Name = nt.Name
	ta.IsActive = nt.IsActive

	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if ta.IsActive {
			if err := svc.repo.DeactivateTahunAjaran(ctx, ta.ID, exec); err != nil {
				return err
			}
		}
		var err error
		ta, err = svc.repo.UpdateTahunAjaran(ctx, ta, exec)
		return err
	})
	if err != nil {
		return TahunAjaran{}, err
	}
	return ta, nil
}

func (svc *Service) DeleteTahunAjaran(ctx context.Context, id string) error {
	return svc.repo.DeleteTahunAjaran(ctx, id)
}

// MataPelajaran

func (svc *Service) CreateMataPelajaran(ctx context.Context, nm NewJenjang) (MataPelajaran, error) {
	nm.Name = core.CleanString(nm.Name)
	if err := svc.validate.Struct(nm); err != nil {
		return MataPelajaran{}, err
	}
	return svc.repo.CreateMataPelajaran(ctx, MataPelajaran{ID: newID(), Name: nm.Name, CreatedAt: time.Now().UTC()})
}

func (svc *Service) GetMataPelajaran(ctx context.Context, id string) (MataPelajaran, error) {
	return svc.repo.GetMataPelajaran(ctx, id)
}

func (svc *Service) ListMataPelajaran(ctx context.Context) ([]MataPelajaran, error) {
	return svc.repo.ListMataPelajaran(ctx)
}

func (svc *Service) UpdateMataPelajaran(ctx context.Context, id string, nm NewJenjang) (MataPelajaran, error) {
	nm.Name = core.CleanString(nm.Name)
	if err := svc.validate.Struct(nm); err != nil {
		return MataPelajaran{}, err
	}
	m, err := svc.repo.GetMataPelajaran(ctx, id)
	if err != nil {
		return MataPelajaran{}, err
	}
	m.Name = nm.Name
	return svc.repo.UpdateMataPelajaran(ctx, m)
}

func (svc *Service) DeleteMataPelajaran(ctx context.Context, id string) error {
	return svc.repo.DeleteMataPelajaran(ctx, id)
}

// KategoriIndikator

func (svc *Service) cleanKategori(ctx context.Context, nk *NewKategoriIndikator) error {
	nk.Name = core.CleanString(nk.Name)
	nk.MataPelajaranID = core.CleanString(nk.MataPelajaranID)
	if err := svc.validate.Struct(nk); err != nil {
		return err
	}
	if nk.MataPelajaranID != "" {
		if _, err := svc.repo.GetMataPelajaran(ctx, nk.MataPelajaranID); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) CreateKategoriIndikator(ctx context.Context, nk NewKategoriIndikator) (KategoriIndikator, error) {
	if err := svc.cleanKategori(ctx, &nk); err != nil {
		return KategoriIndikator{}, err
	}
	return svc.repo.CreateKategoriIndikator(ctx, KategoriIndikator{
		ID:              newID(),
		Name:            nk.Name,
		MataPelajaranID: null.NewString(nk.MataPelajaranID, nk.MataPelajaranID != ""),
		CreatedAt:       time.Now().UTC(),
	})
}

func (svc *Service) GetKategoriIndikator(ctx context.Context, id string) (KategoriIndikator, error) {
	return svc.repo.GetKategoriIndikator(ctx, id)
}

func (svc *Service) ListKategoriIndikator(ctx context.Context) ([]KategoriIndikator, error) {
	return svc.repo.ListKategoriIndikator(ctx)
}

func (svc *Service) UpdateKategoriIndikator(ctx context.Context, id string, nk NewKategoriIndikator) (KategoriIndikator, error) {
	if err := svc.cleanKategori(ctx, &nk); err != nil {
		return KategoriIndikator{}, err
	}
	k, err := svc.repo.GetKategoriIndikator(ctx, id)
	if err != nil {
		return KategoriIndikator{}, err
	}
	k.Name = nk.Name
	k.MataPelajaranID = null.NewString(nk.MataPelajaranID, nk.MataPelajaranID != "")
	return svc.repo.UpdateKategoriIndikator(ctx, k)
}

func (svc *Service) DeleteKategoriIndikator(ctx context.Context, id string) error {
	return svc.repo.DeleteKategoriIndikator(ctx, id)
}

// IndikatorKelas

func (svc *Service) cleanIndikator(ctx context.Context, ni *NewIndikatorKelas) error {
	ni.Clean()
	if err := svc.validate.Struct(ni); err != nil {
		return err
	}
	if _, err := svc.repo.GetKelasJenjang(ctx, ni.KelasJenjangID); err != nil {
		return err
	}
	if _, err := svc.repo.GetKategoriIndikator(ctx, ni.KategoriIndikatorID); err != nil {
		return err
	}
	return nil
}

func (svc *Service) CreateIndikator(ctx context.Context, ni NewIndikatorKelas) (IndikatorKelas, error) {
	if err := svc.cleanIndikator(ctx, &ni); err != nil {
		return IndikatorKelas{}, err
	}
	return svc.repo.CreateIndikator(ctx, IndikatorKelas{
		ID:                  newID(),
		Indikator:           ni.Indikator,
		KelasJenjangID:      ni.KelasJenjangID,
		KategoriIndikatorID: ni.KategoriIndikatorID,
		JenisPenilaian:      ni.JenisPenilaian,
		Semester:            ni.Semester,
		CreatedAt:           time.Now().UTC(),
	})
}

func (svc *Service) GetIndikator(ctx context.Context, id string) (IndikatorKelas, error) {
	return svc.repo.GetIndikator(ctx, id)
}

func (svc *Service) ListIndikator(ctx context.Context, filter IndikatorFilter) ([]IndikatorKelas, error) {
	filter.KelasJenjangID = core.CleanString(filter.KelasJenjangID)
	filter.Semester = core.CleanString(filter.Semester)
	return svc.repo.ListIndikator(ctx, filter)
}

func (svc *Service) UpdateIndikator(ctx context.Context, id string, ni NewIndikatorKelas) (IndikatorKelas, error) {
	if err := svc.cleanIndikator(ctx, &ni); err != nil {
		return IndikatorKelas{}, err
	}
	i, err := svc.repo.GetIndikator(ctx, id)
	if err != nil {
		return IndikatorKelas{}, err
	}
	i.Indikator = ni.Indikator
	i.KelasJenjangID = ni.KelasJenjangID
	i.KategoriIndikatorID = ni.KategoriIndikatorID
	i.JenisPenilaian = ni.JenisPenilaian
	i.Semester = ni.Semester
	return svc.repo.UpdateIndikator(ctx, i)
}

func (svc *Service) DeleteIndikator(ctx context.Context, id string) error {
	return svc.repo.DeleteIndikator(ctx, id)
}
