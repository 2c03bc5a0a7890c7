package member

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/region"
)

var (
	ErrGenerusNotFound   = core.NewNotFoundError("generus not found")
	ErrCaberawitNotFound = core.NewNotFoundError("caberawit not found")
	ErrWaliNotFound      = core.NewNotFoundError("wali not found")
	ErrInUse             = core.NewConflictError("member is still referenced")

	errKelompokScope = "kelompok does not belong to this desa"
	errDesaScope     = "desa does not belong to this daerah"
	errKelasScope    = "kelas does not belong to this jenjang"
)

// NotFound returns the not-found error of kind.
func NotFound(kind string) error {
	if kind == KindCaberawit {
		return ErrCaberawitNotFound
	}
	return ErrGenerusNotFound
}

type (
	Repository interface {
		CreateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		GetMember(ctx context.Context, kind string, id int64, exec ...core.DBExecutor) (Member, error)
		// QueryMembers orders by creation time, newest first. A zero filter.Page.Limit returns every match.
		QueryMembers(ctx context.Context, kind string, filter QueryFilter, exec ...core.DBExecutor) ([]Member, int, error)
		UpdateMember(ctx context.Context, m Member, exec ...core.DBExecutor) (Member, error)
		DeleteMember(ctx context.Context, kind string, id int64, exec ...core.DBExecutor) error
		// ExistingMemberIDs returns the subset of ids that exist for kind.
		ExistingMemberIDs(ctx context.Context, kind string, ids []int64, exec ...core.DBExecutor) ([]int64, error)
		CountByJenjang(ctx context.Context, kind string, exec ...core.DBExecutor) ([]JenjangCount, error)
		CountByJenjangKelompok(ctx context.Context, kind, desaID string, exec ...core.DBExecutor) ([]KelompokJenjangCount, error)
	}

	Regions interface {
		GetDaerah(ctx context.Context, id string) (region.Daerah, error)
		GetDesa(ctx context.Context, id string) (region.Desa, error)
		GetKelompok(ctx context.Context, id string) (region.Kelompok, error)
	}

	Curriculum interface {
		GetJenjang(ctx context.Context, id string) (curriculum.Jenjang, error)
		GetKelasJenjang(ctx context.Context, id string) (curriculum.KelasJenjang, error)
	}

	Service struct {
		repo       Repository
		regions    Regions
		curriculum Curriculum
		validate   *validator.Validate
		now        func() time.Time
	}
)

func NewService(repo Repository, regions Regions, curr Curriculum, validate *validator.Validate) *Service {
	return &Service{
		repo:       repo,
		regions:    regions,
		curriculum: curr,
		validate:   validate,
		now:        time.Now,
	}
}

// checkRefs makes sure every referenced record exists and the scope ids are consistent.
func (svc *Service) checkRefs(ctx context.Context, kind string, nm NewMember) error {
	if _, err := svc.regions.GetDaerah(ctx, nm.DaerahID); err != nil {
		return err
	}
	desa, err := svc.regions.GetDesa(ctx, nm.DesaID)
	if err != nil {
		return err
	}
	kelompok, err := svc.regions.GetKelompok(ctx, nm.KelompokID)
	if err != nil {
		return err
	}
	if desa.DaerahID != nm.DaerahID {
		return core.NewFieldError("desaId", errDesaScope)
	}
	if kelompok.DesaID != nm.DesaID {
		return core.NewFieldError("kelompokId", errKelompokScope)
	}
	if _, err = svc.curriculum.GetJenjang(ctx, nm.JenjangID); err != nil {
		return err
	}
	if nm.KelasJenjangID != "" {
		kelas, err := svc.curriculum.GetKelasJenjang(ctx, nm.KelasJenjangID)
		if err != nil {
			return err
		}
		if kelas.JenjangID != nm.JenjangID {
			return core.NewFieldError("kelasJenjangId", errKelasScope)
		}
	}
	if kind == KindCaberawit && nm.WaliID.Valid {
		if _, err = svc.repo.GetMember(ctx, KindGenerus, nm.WaliID.Int64); err != nil {
			if core.IsNotFound(err) {
				return ErrWaliNotFound
			}
			return err
		}
	}
	return nil
}

func (svc *Service) clean(ctx context.Context, kind string, nm *NewMember) error {
	nm.Clean()
	if err := svc.validate.Struct(nm); err != nil {
		return err
	}
	if nm.TglLahir.IsZero() {
		return core.NewFieldError("tglLahir", "this field is required")
	}
	if nm.TglLahir.After(svc.now()) {
		return core.NewFieldError("tglLahir", "tglLahir cannot be in the future")
	}
	return svc.checkRefs(ctx, kind, *nm)
}

func apply(m *Member, kind string, nm NewMember) {
	m.Kind = kind
	m.Nama = nm.Nama
	m.DaerahID = nm.DaerahID
	m.DesaID = nm.DesaID
	m.KelompokID = nm.KelompokID
	m.JenjangID = nm.JenjangID
	m.KelasJenjangID = null.NewString(nm.KelasJenjangID, nm.KelasJenjangID != "")
	m.TglLahir = nm.TglLahir
	m.JenisKelamin = nm.JenisKelamin
	m.GolDarah = null.NewString(nm.GolDarah, nm.GolDarah != "")
	m.NamaOrtu = nm.NamaOrtu
	m.Foto = null.NewString(nm.Foto, nm.Foto != "")
	m.Mahasiswa = false
	m.WaliID = null.Int64{}
	switch kind {
	case KindGenerus:
		m.Mahasiswa = nm.Mahasiswa
	case KindCaberawit:
		m.WaliID = nm.WaliID
	}
}

func (svc *Service) Create(ctx context.Context, kind string, nm NewMember) (Member, error) {
	if err := svc.clean(ctx, kind, &nm); err != nil {
		return Member{}, err
	}
	now := svc.now().UTC()
	m := Member{CreatedAt: now, UpdatedAt: now}
	apply(&m, kind, nm)
	return svc.repo.CreateMember(ctx, m)
}

func (svc *Service) Get(ctx context.Context, kind string, id int64) (Member, error) {
	return svc.repo.GetMember(ctx, kind, id)
}

func (svc *Service) Update(ctx context.Context, kind string, id int64, nm NewMember) (Member, error) {
	m, err := svc.repo.GetMember(ctx, kind, id)
	if err != nil {
		return Member{}, err
	}
	if err = svc.clean(ctx, kind, &nm); err != nil {
		return Member{}, err
	}
	apply(&m, kind, nm)
	m.UpdatedAt = svc.now().UTC()
	return svc.repo.UpdateMember(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, kind string, id int64) error {
	return svc.repo.DeleteMember(ctx, kind, id)
}

func (svc *Service) Query(ctx context.Context, kind string, filter QueryFilter) ([]Member, int, error) {
	filter.Clean(svc.now())
	return svc.repo.QueryMembers(ctx, kind, filter)
}

// ByKelompok lists the members of a kelompok, optionally only the mahasiswa ones.
func (svc *Service) ByKelompok(ctx context.Context, kind, kelompokID string, mahasiswaOnly bool) ([]Member, error) {
	if _, err := svc.regions.GetKelompok(ctx, kelompokID); err != nil {
		return nil, err
	}
	filter := QueryFilter{KelompokID: kelompokID}
	if mahasiswaOnly {
		filter.Mahasiswa = &mahasiswaOnly
	}
	members, _, err := svc.Query(ctx, kind, filter)
	return members, err
}

// ByDesa lists the members of a desa, optionally only the mahasiswa ones.
func (svc *Service) ByDesa(ctx context.Context, kind, desaID string, mahasiswaOnly bool) ([]Member, error) {
	if _, err := svc.regions.GetDesa(ctx, desaID); err != nil {
		return nil, err
	}
	filter := QueryFilter{DesaID: desaID}
	if mahasiswaOnly {
		filter.Mahasiswa = &mahasiswaOnly
	}
	members, _, err := svc.Query(ctx, kind, filter)
	return members, err
}

func (svc *Service) CountByJenjang(ctx context.Context, kind string) ([]JenjangCount, error) {
	counts, err := svc.repo.CountByJenjang(ctx, kind)
	if err != nil {
		return nil, err
	}
	for i := range counts {
		if counts[i].JenjangNama == "" {
			counts[i].JenjangNama = "-"
		}
	}
	return counts, nil
}

func (svc *Service) CountByJenjangKelompok(ctx context.Context, kind, desaID string) ([]KelompokJenjangCount, error) {
	if _, err := svc.regions.GetDesa(ctx, desaID); err != nil {
		return nil, err
	}
	counts, err := svc.repo.CountByJenjangKelompok(ctx, kind, desaID)
	if err != nil {
		return nil, err
	}
	for i := range counts {
		if counts[i].JenjangNama == "" {
			counts[i].JenjangNama = "-"
		}
		if counts[i].KelompokNama == "" {
			counts[i].KelompokNama = "-"
		}
	}
	return counts, nil
}

func (svc *Service) Exists(ctx context.Context, kind string, id int64) (bool, error) {
	ids, err := svc.repo.ExistingMemberIDs(ctx, kind, []int64{id})
	if err != nil {
		return false, err
	}
	return len(ids) == 1, nil
}

// ExistingIDs returns the subset of ids that exist for kind.
func (svc *Service) ExistingIDs(ctx context.Context, kind string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return svc.repo.ExistingMemberIDs(ctx, kind, ids)
}
