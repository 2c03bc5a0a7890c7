package activity

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/core/region"
)

var (
	ErrKegiatanNotFound = core.NewNotFoundError("kegiatan not found")
	ErrAbsenNotFound    = core.NewNotFoundError("absen not found")

	errInvalidTingkat = "tingkat must be one of daerah, desa"
)

type (
	Repository interface {
		CreateKegiatan(ctx context.Context, k Kegiatan, exec ...core.DBExecutor) (Kegiatan, error)
		GetKegiatan(ctx context.Context, id string, exec ...core.DBExecutor) (Kegiatan, error)
		QueryKegiatan(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Kegiatan, error)
		UpdateKegiatan(ctx context.Context, k Kegiatan, exec ...core.DBExecutor) (Kegiatan, error)
		// SetSasaran replaces the targeted jenjang of a kegiatan.
		SetSasaran(ctx context.Context, kegiatanID string, jenjangIDs []string, exec ...core.DBExecutor) error
		// DeleteKegiatan also removes its sasaran and attendance.
		DeleteKegiatan(ctx context.Context, id string, exec ...core.DBExecutor) error

		// UpsertAbsen inserts or replaces the attendance of (a.KegiatanID, a.MumiID).
		UpsertAbsen(ctx context.Context, a Absen, exec ...core.DBExecutor) (Absen, error)
		AbsenByKegiatan(ctx context.Context, kegiatanID string, exec ...core.DBExecutor) ([]Absen, error)
		AbsenByMember(ctx context.Context, mumiID int64, exec ...core.DBExecutor) ([]Absen, error)
		DeleteAbsen(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Members interface {
		Get(ctx context.Context, kind string, id int64) (member.Member, error)
		Query(ctx context.Context, kind string, filter member.QueryFilter) ([]member.Member, int, error)
	}

	Regions interface {
		GetDaerah(ctx context.Context, id string) (region.Daerah, error)
		GetDesa(ctx context.Context, id string) (region.Desa, error)
		GetKelompok(ctx context.Context, id string) (region.Kelompok, error)
	}

	Curriculum interface {
		GetJenjang(ctx context.Context, id string) (curriculum.Jenjang, error)
	}

	Service struct {
		db         core.DB
		repo       Repository
		members    Members
		regions    Regions
		curriculum Curriculum
		validate   *validator.Validate
		now        func() time.Time
	}
)

func NewService(
	db core.DB,
	repo Repository,
	members Members,
	regions Regions,
	curr Curriculum,
	validate *validator.Validate,
) *Service {
	return &Service{
		db:         db,
		repo:       repo,
		members:    members,
		regions:    regions,
		curriculum: curr,
		validate:   validate,
		now:        time.Now,
	}
}

// resolveScope fills the kegiatan region ids from the one its tingkat requires.
func (svc *Service) resolveScope(ctx context.Context, k *Kegiatan, nk NewKegiatan) error {
	k.DaerahID, k.DesaID, k.KelompokID = null.String{}, null.String{}, null.String{}
	switch nk.Tingkat {
	case TingkatDaerah:
		if nk.DaerahID == "" {
			return core.NewFieldError("daerahId", "this field is required")
		}
		d, err := svc.regions.GetDaerah(ctx, nk.DaerahID)
		if err != nil {
			return err
		}
		k.DaerahID = null.StringFrom(d.ID)
	case TingkatDesa:
		if nk.DesaID == "" {
			return core.NewFieldError("desaId", "this field is required")
		}
		d, err := svc.regions.GetDesa(ctx, nk.DesaID)
		if err != nil {
			return err
		}
		k.DaerahID = null.StringFrom(d.DaerahID)
		k.DesaID = null.StringFrom(d.ID)
	case TingkatKelompok:
		if nk.KelompokID == "" {
			return core.NewFieldError("kelompokId", "this field is required")
		}
		kel, err := svc.regions.GetKelompok(ctx, nk.KelompokID)
		if err != nil {
			return err
		}
		k.DaerahID = null.StringFrom(kel.DaerahID)
		k.DesaID = null.StringFrom(kel.DesaID)
		k.KelompokID = null.StringFrom(kel.ID)
	}
	return nil
}

func (svc *Service) clean(ctx context.Context, nk *NewKegiatan) error {
	nk.Clean()
	if err := svc.validate.Struct(nk); err != nil {
		return err
	}
	if nk.StartDate.IsZero() {
		return core.NewFieldError("startDate", "this field is required")
	}
	if nk.EndDate.IsZero() {
		return core.NewFieldError("endDate", "this field is required")
	}
	if nk.EndDate.Before(nk.StartDate) {
		return core.NewFieldError("endDate", "endDate cannot be before startDate")
	}

	switch nk.TargetType {
	case TargetJenjang:
		if len(nk.JenjangIDs) == 0 {
			return core.NewFieldError("jenjangIds", "at least one jenjang is required")
		}
	case TargetUsia:
		if nk.MinUsia == nil && nk.MaxUsia == nil {
			return core.NewFieldError("minUsia", "one of minUsia or maxUsia is required")
		}
		if nk.MinUsia != nil && nk.MaxUsia != nil && *nk.MinUsia > *nk.MaxUsia {
			return core.NewFieldError("maxUsia", "maxUsia cannot be less than minUsia")
		}
	}
	for _, id := range nk.JenjangIDs {
		if _, err := svc.curriculum.GetJenjang(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func apply(k *Kegiatan, nk NewKegiatan) {
	k.Name = nk.Name
	k.StartDate = nk.StartDate.UTC()
	k.EndDate = nk.EndDate.UTC()
	k.Tingkat = nk.Tingkat
	k.TargetType = nk.TargetType
	k.JenisKelamin = nk.JenisKelamin
	k.MinUsia, k.MaxUsia = null.Int{}, null.Int{}
	if nk.TargetType == TargetUsia {
		if nk.MinUsia != nil {
			k.MinUsia = null.IntFrom(*nk.MinUsia)
		}
		if nk.MaxUsia != nil {
			k.MaxUsia = null.IntFrom(*nk.MaxUsia)
		}
	}
}

func (svc *Service) Create(ctx context.Context, nk NewKegiatan) (Kegiatan, error) {
	if err := svc.clean(ctx, &nk); err != nil {
		return Kegiatan{}, err
	}
	now := svc.now().UTC()
	k := Kegiatan{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	apply(&k, nk)
	if err := svc.resolveScope(ctx, &k, nk); err != nil {
		return Kegiatan{}, err
	}

	err := core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.CreateKegiatan(ctx, k, exec); err != nil {
			return err
		}
		return svc.repo.SetSasaran(ctx, k.ID, nk.JenjangIDs, exec)
	})
	if err != nil {
		return Kegiatan{}, err
	}
	return svc.repo.GetKegiatan(ctx, k.ID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Kegiatan, error) {
	filter.DaerahID = core.CleanString(filter.DaerahID)
	filter.DesaID = core.CleanString(filter.DesaID)
	filter.KelompokID = core.CleanString(filter.KelompokID)
	return svc.repo.QueryKegiatan(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Kegiatan, error) {
	return svc.repo.GetKegiatan(ctx, id)
}

// Detail returns the kegiatan with its participants and their attendance.
func (svc *Service) Detail(ctx context.Context, id string) (KegiatanDetail, error) {
	k, err := svc.repo.GetKegiatan(ctx, id)
	if err != nil {
		return KegiatanDetail{}, err
	}

	var (
		members []member.Member
		absens  []Absen
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, _, err = svc.members.Query(gctx, member.KindGenerus, k.participantFilter())
		return errors.Wrap(err, "querying participants")
	})
	g.Go(func() error {
		var err error
		absens, err = svc.repo.AbsenByKegiatan(gctx, k.ID)
		return errors.Wrap(err, "querying absen")
	})
	if err = g.Wait(); err != nil {
		return KegiatanDetail{}, err
	}

	byMember := make(map[int64]Absen, len(absens))
	for _, a := range absens {
		byMember[a.MumiID] = a
	}
	peserta := make([]Participant, 0, len(members))
	for _, m := range members {
		p := Participant{
			ID:           m.ID,
			Nama:         m.Nama,
			JenisKelamin: m.JenisKelamin,
			JenjangID:    m.JenjangID,
			JenjangName:  m.JenjangName,
			KelompokName: m.KelompokName,
			Status:       StatusBelumHadir,
		}
		if a, ok := byMember[m.ID]; ok {
			p.Status = a.Status
			p.WaktuAbsen = null.TimeFrom(a.WaktuAbsen)
		}
		peserta = append(peserta, p)
	}
	return KegiatanDetail{Kegiatan: k, Peserta: peserta}, nil
}

// participantFilter selects the members a kegiatan targets.
func (k Kegiatan) participantFilter() member.QueryFilter {
	var filter member.QueryFilter
	switch k.Tingkat {
	case TingkatDaerah:
		filter.DaerahID = k.DaerahID.String
	case TingkatDesa:
		filter.DesaID = k.DesaID.String
	case TingkatKelompok:
		filter.KelompokID = k.KelompokID.String
	}
	switch k.TargetType {
	case TargetJenjang:
		filter.JenjangIDs = k.JenjangIDs()
		if len(filter.JenjangIDs) == 0 {
			filter.JenjangIDs = []string{""}
		}
	case TargetMahasiswa:
		yes := true
		filter.Mahasiswa = &yes
	case TargetUsia:
		if k.MinUsia.Valid {
			lo := k.MinUsia.Int
			filter.MinUsia = &lo
		}
		if k.MaxUsia.Valid {
			hi := k.MaxUsia.Int
			filter.MaxUsia = &hi
		}
	}
	filter.JenisKelamin = MemberGender(k.JenisKelamin)
	return filter
}

// Targets reports whether m is a participant of k at now, leaving the region scope aside.
// It applies the same rules Detail uses to select participants.
func (k Kegiatan) Targets(m member.Member, now time.Time) bool {
	filter := k.participantFilter()
	filter.Clean(now)
	return filter.Matches(m)
}

// HasSasaran reports whether jenjangID is among the sasaran of k.
func (k Kegiatan) HasSasaran(jenjangID string) bool {
	for _, s := range k.Sasaran {
		if s.JenjangID == jenjangID {
			return true
		}
	}
	return false
}

// Update replaces the kegiatan and its sasaran atomically.
func (svc *Service) Update(ctx context.Context, id string, nk NewKegiatan) (Kegiatan, error) {
	k, err := svc.repo.GetKegiatan(ctx, id)
	if err != nil {
		return Kegiatan{}, err
	}
	if err = svc.clean(ctx, &nk); err != nil {
		return Kegiatan{}, err
	}
	apply(&k, nk)
	if err = svc.resolveScope(ctx, &k, nk); err != nil {
		return Kegiatan{}, err
	}
	k.UpdatedAt = svc.now().UTC()

	err = core.RunInTx(ctx, svc.db, func(exec core.DBExecutor) error {
		if _, err := svc.repo.UpdateKegiatan(ctx, k, exec); err != nil {
			return err
		}
		return svc.repo.SetSasaran(ctx, k.ID, nk.JenjangIDs, exec)
	})
	if err != nil {
		return Kegiatan{}, err
	}
	return svc.repo.GetKegiatan(ctx, k.ID)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteKegiatan(ctx, id)
}

// ForGenerus lists the kegiatan of the member's daerah or desa whose sasaran holds the member's
// jenjang and that target them, by start date.
// tanggal, when set, keeps the kegiatan starting on that day.
func (svc *Service) ForGenerus(ctx context.Context, mumiID int64, tingkat string, tanggal *core.Date) ([]Kegiatan, error) {
	m, err := svc.members.Get(ctx, member.KindGenerus, mumiID)
	if err != nil {
		return nil, err
	}

	filter := QueryFilter{OrderByStart: true}
	switch strings.ToUpper(core.CleanString(tingkat)) {
	case TingkatDaerah:
		filter.Tingkat = TingkatDaerah
		filter.DaerahID = m.DaerahID
	case TingkatDesa:
		filter.Tingkat = TingkatDesa
		filter.DesaID = m.DesaID
	default:
		return nil, core.NewFieldError("tingkat", errInvalidTingkat)
	}
	if tanggal != nil && !tanggal.IsZero() {
		filter.StartFrom = tanggal.Time
		filter.StartTo = tanggal.AddDate(0, 0, 1)
	}

	all, err := svc.repo.QueryKegiatan(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := svc.now()
	kegiatan := make([]Kegiatan, 0, len(all))
	for _, k := range all {
		if k.HasSasaran(m.JenjangID) && k.Targets(m, now) {
			kegiatan = append(kegiatan, k)
		}
	}
	return kegiatan, nil
}

// Absen

// Record stores the attendance of a member. Without a manual status, arriving within
// LateAfter of the start counts as HADIR and later as TERLAMBAT.
func (svc *Service) Record(ctx context.Context, na NewAbsen) (Absen, error) {
	na.KegiatanID = core.CleanString(na.KegiatanID)
	na.Status = core.CleanString(na.Status)
	if err := svc.validate.Struct(na); err != nil {
		return Absen{}, err
	}
	k, err := svc.repo.GetKegiatan(ctx, na.KegiatanID)
	if err != nil {
		return Absen{}, err
	}
	if _, err = svc.members.Get(ctx, member.KindGenerus, na.MumiID); err != nil {
		return Absen{}, err
	}

	now := svc.now().UTC()
	status := na.Status
	if status == "" {
		status = StatusHadir
		if now.After(k.StartDate.Add(LateAfter)) {
			status = StatusTerlambat
		}
	}
	return svc.repo.UpsertAbsen(ctx, Absen{
		ID:         uuid.New().String(),
		KegiatanID: k.ID,
		MumiID:     na.MumiID,
		Status:     status,
		WaktuAbsen: now,
	})
}

func (svc *Service) AbsenByKegiatan(ctx context.Context, kegiatanID string) ([]Absen, error) {
	if _, err := svc.repo.GetKegiatan(ctx, kegiatanID); err != nil {
		return nil, err
	}
	return svc.repo.AbsenByKegiatan(ctx, kegiatanID)
}

func (svc *Service) AbsenByGenerus(ctx context.Context, mumiID int64) ([]Absen, error) {
	if _, err := svc.members.Get(ctx, member.KindGenerus, mumiID); err != nil {
		return nil, err
	}
	return svc.repo.AbsenByMember(ctx, mumiID)
}

func (svc *Service) DeleteAbsen(ctx context.Context, id string) error {
	return svc.repo.DeleteAbsen(ctx, id)
}
