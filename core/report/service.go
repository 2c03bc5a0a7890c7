package report

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/member"
)

var (
	ErrRaporNotFound   = core.NewNotFoundError("rapor not found")
	ErrCatatanNotFound = core.NewNotFoundError("catatan wali kelas not found")
	ErrRaporExists     = core.NewConflictError("rapor already exists for this caberawit, kelas, tahun ajaran and semester")

	errNoKelas = "caberawit has no kelas jenjang"
)

type (
	Repository interface {
		RaporExists(ctx context.Context, caberawitID int64, kelasJenjangID, tahunAjaranID, semester string, exec ...core.DBExecutor) (bool, error)
		CreateRapor(ctx context.Context, r Rapor, exec ...core.DBExecutor) (Rapor, error)
		GetRapor(ctx context.Context, id string, exec ...core.DBExecutor) (Rapor, error)
		// QueryRapor orders by creation time, oldest first.
		QueryRapor(ctx context.Context, filter RaporFilter, exec ...core.DBExecutor) ([]Rapor, error)
		UpdateRapor(ctx context.Context, r Rapor, exec ...core.DBExecutor) (Rapor, error)
		DeleteRapor(ctx context.Context, id string, exec ...core.DBExecutor) error

		UpsertCatatan(ctx context.Context, c CatatanWaliKelas, exec ...core.DBExecutor) (CatatanWaliKelas, error)
		GetCatatan(ctx context.Context, key CatatanKey, exec ...core.DBExecutor) (CatatanWaliKelas, error)
		DeleteCatatan(ctx context.Context, key CatatanKey, exec ...core.DBExecutor) error
	}

	Members interface {
		Get(ctx context.Context, kind string, id int64) (member.Member, error)
	}

	Curriculum interface {
		GetTahunAjaran(ctx context.Context, id string) (curriculum.TahunAjaran, error)
		GetKelasJenjang(ctx context.Context, id string) (curriculum.KelasJenjang, error)
		GetIndikator(ctx context.Context, id string) (curriculum.IndikatorKelas, error)
		ListIndikator(ctx context.Context, filter curriculum.IndikatorFilter) ([]curriculum.IndikatorKelas, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		members    Members
		curriculum Curriculum
		validate   *validator.Validate
	}
)

func NewService(db core.DB, repo Repository, members Members, curr Curriculum, validate *validator.Validate) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		members:    members,
		curriculum: curr,
		validate:   validate,
	}
}

// CreateBulk stores the rapor items of a caberawit in one transaction.
func (svc *Service) CreateBulk(ctx context.Context, nb NewRaporBulk) ([]Rapor, error) {
	nb.Clean()
	if err := svc.validate.Struct(nb); err != nil {
		return nil, err
	}
	if _, err := svc.curriculum.GetTahunAjaran(ctx, nb.TahunAjaranID); err != nil {
		return nil, err
	}
	if _, err := svc.members.Get(ctx, member.KindCaberawit, nb.CaberawitID); err != nil {
		return nil, err
	}
	if _, err := svc.curriculum.GetKelasJenjang(ctx, nb.KelasJenjangID); err != nil {
		return nil, err
	}
	for _, item := range nb.Items {
		if _, err := svc.curriculum.GetIndikator(ctx, item.IndikatorKelasID); err != nil {
			return nil, err
		}
	}

	exists, err := svc.repo.RaporExists(ctx, nb.CaberawitID, nb.KelasJenjangID, nb.TahunAjaranID, nb.Semester)
	if err != nil {
		return nil, errors.Wrap(err, "checking existing rapor")
	}
	if exists {
		return nil, ErrRaporExists
	}

	now := time.Now().UTC()
	rapor := make([]Rapor, 0, len(nb.Items))
	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		for _, item := range nb.Items {
			status := item.Status
			if status == "" {
				status = AutoStatus(item.NilaiPengetahuan, item.NilaiKeterampilan)
			}
			r, err := svc.repo.CreateRapor(ctx, Rapor{
				ID:                uuid.New().String(),
				CaberawitID:       nb.CaberawitID,
				KelasJenjangID:    nb.KelasJenjangID,
				IndikatorKelasID:  item.IndikatorKelasID,
				TahunAjaranID:     nb.TahunAjaranID,
				Semester:          nb.Semester,
				Status:            status,
				NilaiPengetahuan:  null.IntFromPtr(item.NilaiPengetahuan),
				NilaiKeterampilan: null.IntFromPtr(item.NilaiKeterampilan),
				CreatedAt:         now,
				UpdatedAt:         now,
			}, exec)
			if err != nil {
				return err
			}
			rapor = append(rapor, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rapor, nil
}

// Update keeps the current value of every field omitted from ur.
func (svc *Service) Update(ctx context.Context, id string, ur UpdateRapor) (Rapor, error) {
	if err := svc.validate.Struct(ur); err != nil {
		return Rapor{}, err
	}
	r, err := svc.repo.GetRapor(ctx, id)
	if err != nil {
		return Rapor{}, err
	}
	if ur.Status != nil && *ur.Status != "" {
		r.Status = *ur.Status
	}
	if ur.NilaiPengetahuan != nil {
		r.NilaiPengetahuan = null.IntFrom(*ur.NilaiPengetahuan)
	}
	if ur.NilaiKeterampilan != nil {
		r.NilaiKeterampilan = null.IntFrom(*ur.NilaiKeterampilan)
	}
	r.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateRapor(ctx, r)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRapor(ctx, id)
}

func (svc *Service) ListByCaberawit(ctx context.Context, filter RaporFilter) ([]Rapor, error) {
	filter.Semester = core.CleanString(filter.Semester)
	filter.TahunAjaranID = core.CleanString(filter.TahunAjaranID)
	if _, err := svc.members.Get(ctx, member.KindCaberawit, filter.CaberawitID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRapor(ctx, filter)
}

// Lengkap merges the indikator of the caberawit's kelas with its rapor values,
// grouped by kategori indikator in first-seen order.
func (svc *Service) Lengkap(ctx context.Context, filter RaporFilter) (RaporLengkap, error) {
	filter.Semester = core.CleanString(filter.Semester)
	filter.TahunAjaranID = core.CleanString(filter.TahunAjaranID)

	cbr, err := svc.members.Get(ctx, member.KindCaberawit, filter.CaberawitID)
	if err != nil {
		return RaporLengkap{}, err
	}
	if !cbr.KelasJenjangID.Valid || cbr.KelasJenjangID.String == "" {
		return RaporLengkap{}, core.NewFieldError("kelasJenjangId", errNoKelas)
	}

	var (
		indikator []curriculum.IndikatorKelas
		rapor     []Rapor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		indikator, err = svc.curriculum.ListIndikator(gctx, curriculum.IndikatorFilter{
			KelasJenjangID: cbr.KelasJenjangID.String,
			Semester:       filter.Semester,
		})
		return errors.Wrap(err, "listing indikator")
	})
	g.Go(func() error {
		var err error
		rapor, err = svc.repo.QueryRapor(gctx, filter)
		return errors.Wrap(err, "querying rapor")
	})
	if err = g.Wait(); err != nil {
		return RaporLengkap{}, err
	}

	byIndikator := make(map[string]Rapor, len(rapor))
	for _, r := range rapor {
		byIndikator[r.IndikatorKelasID] = r // latest wins
	}

	groups := make([]RaporGroup, 0)
	groupIdx := make(map[string]int)
	for _, ind := range indikator {
		idx, ok := groupIdx[ind.KategoriIndikatorID]
		if !ok {
			idx = len(groups)
			groupIdx[ind.KategoriIndikatorID] = idx
			groups = append(groups, RaporGroup{
				MataPelajaran:       ind.MataPelajaranName.String,
				MataPelajaranID:     ind.MataPelajaranID,
				KategoriIndikator:   ind.KategoriIndikatorName,
				KategoriIndikatorID: ind.KategoriIndikatorID,
				Indikator:           []RaporIndikator{},
			})
		}
		item := RaporIndikator{
			IndikatorID:    ind.ID,
			Indikator:      ind.Indikator,
			JenisPenilaian: ind.JenisPenilaian,
			Semester:       ind.Semester,
		}
		if r, ok := byIndikator[ind.ID]; ok {
			item.Status = null.StringFrom(r.Status)
			item.NilaiPengetahuan = r.NilaiPengetahuan
			item.NilaiKeterampilan = r.NilaiKeterampilan
			item.RaporID = null.StringFrom(r.ID)
		}
		groups[idx].Indikator = append(groups[idx].Indikator, item)
	}

	return RaporLengkap{
		Caberawit:     cbr,
		TahunAjaranID: filter.TahunAjaranID,
		Semester:      filter.Semester,
		Rapor:         groups,
	}, nil
}

// IndikatorByKelas lists the indikator to grade for a kelas jenjang.
func (svc *Service) IndikatorByKelas(ctx context.Context, kelasJenjangID, semester string) ([]curriculum.IndikatorKelas, error) {
	kelasJenjangID = core.CleanString(kelasJenjangID)
	if kelasJenjangID == "" {
		return nil, core.NewFieldError("kelasJenjangId", "this field is required")
	}
	return svc.curriculum.ListIndikator(ctx, curriculum.IndikatorFilter{
		KelasJenjangID: kelasJenjangID,
		Semester:       core.CleanString(semester),
	})
}

// Catatan wali kelas

func (svc *Service) UpsertCatatan(ctx context.Context, nc NewCatatan) (CatatanWaliKelas, error) {
	nc.TahunAjaranID = core.CleanString(nc.TahunAjaranID)
	nc.Semester = core.CleanString(nc.Semester)
	nc.Catatan = core.CleanString(nc.Catatan)
	if err := svc.validate.Struct(nc); err != nil {
		return CatatanWaliKelas{}, err
	}
	if _, err := svc.members.Get(ctx, member.KindCaberawit, nc.CaberawitID); err != nil {
		return CatatanWaliKelas{}, err
	}
	if _, err := svc.curriculum.GetTahunAjaran(ctx, nc.TahunAjaranID); err != nil {
		return CatatanWaliKelas{}, err
	}

	now := time.Now().UTC()
	return svc.repo.UpsertCatatan(ctx, CatatanWaliKelas{
		ID:            uuid.New().String(),
		CaberawitID:   nc.CaberawitID,
		TahunAjaranID: nc.TahunAjaranID,
		Semester:      nc.Semester,
		Catatan:       nc.Catatan,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *Service) cleanKey(key *CatatanKey) error {
	key.TahunAjaranID = core.CleanString(key.TahunAjaranID)
	key.Semester = core.CleanString(key.Semester)
	return svc.validate.Struct(key)
}

func (svc *Service) GetCatatan(ctx context.Context, key CatatanKey) (CatatanWaliKelas, error) {
	if err := svc.cleanKey(&key); err != nil {
		return CatatanWaliKelas{}, err
	}
	return svc.repo.GetCatatan(ctx, key)
}

func (svc *Service) DeleteCatatan(ctx context.Context, key CatatanKey) error {
	if err := svc.cleanKey(&key); err != nil {
		return err
	}
	return svc.repo.DeleteCatatan(ctx, key)
}
