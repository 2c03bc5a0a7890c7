package region

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sigenerus/sigenerus/core"
)

var (
	ErrDaerahNotFound   = core.NewNotFoundError("daerah not found")
	ErrDesaNotFound     = core.NewNotFoundError("desa not found")
	ErrKelompokNotFound = core.NewNotFoundError("kelompok not found")

	ErrDaerahExists   = core.NewConflictError("a daerah with this name already exists")
	ErrDesaExists     = core.NewConflictError("a desa with this name already exists in this daerah")
	ErrKelompokExists = core.NewConflictError("a kelompok with this name already exists in this desa")
	ErrHasChildren    = core.NewConflictError("region still has dependent records")

	errDesaOutsideDaerah = "desa does not belong to this daerah"
)

type (
	Repository interface {
		CreateDaerah(ctx context.Context, d Daerah, exec ...core.DBExecutor) (Daerah, error)
		GetDaerah(ctx context.Context, id string, exec ...core.DBExecutor) (Daerah, error)
		QueryDaerah(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Daerah, int, error)
		UpdateDaerah(ctx context.Context, d Daerah, exec ...core.DBExecutor) (Daerah, error)
		DeleteDaerah(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountDaerah(ctx context.Context, exec ...core.DBExecutor) (int, error)

		CreateDesa(ctx context.Context, d Desa, exec ...core.DBExecutor) (Desa, error)
		GetDesa(ctx context.Context, id string, exec ...core.DBExecutor) (Desa, error)
		QueryDesa(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Desa, int, error)
		UpdateDesa(ctx context.Context, d Desa, exec ...core.DBExecutor) (Desa, error)
		DeleteDesa(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountDesa(ctx context.Context, exec ...core.DBExecutor) (int, error)

		CreateKelompok(ctx context.Context, k Kelompok, exec ...core.DBExecutor) (Kelompok, error)
		GetKelompok(ctx context.Context, id string, exec ...core.DBExecutor) (Kelompok, error)
		QueryKelompok(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Kelompok, int, error)
		UpdateKelompok(ctx context.Context, k Kelompok, exec ...core.DBExecutor) (Kelompok, error)
		DeleteKelompok(ctx context.Context, id string, exec ...core.DBExecutor) error
		CountKelompok(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Daerah

func (svc *Service) CreateDaerah(ctx context.Context, nd NewDaerah) (Daerah, error) {
	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Daerah{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateDaerah(ctx, Daerah{
		ID:        uuid.New().String(),
		Name:      nd.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetDaerah(ctx context.Context, id string) (Daerah, error) {
	return svc.repo.GetDaerah(ctx, id)
}

func (svc *Service) QueryDaerah(ctx context.Context, filter QueryFilter) ([]Daerah, int, error) {
	filter.Clean()
	return svc.repo.QueryDaerah(ctx, filter)
}

func (svc *Service) UpdateDaerah(ctx context.Context, id string, nd NewDaerah) (Daerah, error) {
	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Daerah{}, err
	}
	d, err := svc.repo.GetDaerah(ctx, id)
	if err != nil {
		return Daerah{}, err
	}
	d.Name = nd.Name
	d.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDaerah(ctx, d)
}

func (svc *Service) DeleteDaerah(ctx context.Context, id string) error {
	return svc.repo.DeleteDaerah(ctx, id)
}

// Desa

func (svc *Service) CreateDesa(ctx context.Context, nd NewDesa) (Desa, error) {
	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Desa{}, err
	}
	if _, err := svc.repo.GetDaerah(ctx, nd.DaerahID); err != nil {
		return Desa{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateDesa(ctx, Desa{
		ID:        uuid.New().String(),
		Name:      nd.Name,
		DaerahID:  nd.DaerahID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetDesa(ctx context.Context, id string) (Desa, error) {
	return svc.repo.GetDesa(ctx, id)
}

func (svc *Service) QueryDesa(ctx context.Context, filter QueryFilter) ([]Desa, int, error) {
	filter.Clean()
	return svc.repo.QueryDesa(ctx, filter)
}

func (svc *Service) UpdateDesa(ctx context.Context, id string, nd NewDesa) (Desa, error) {
	nd.Clean()
	if err := svc.validate.Struct(nd); err != nil {
		return Desa{}, err
	}
	d, err := svc.repo.GetDesa(ctx, id)
	if err != nil {
		return Desa{}, err
	}
	if _, err = svc.repo.GetDaerah(ctx, nd.DaerahID); err != nil {
		return Desa{}, err
	}
	d.Name = nd.Name
	d.DaerahID = nd.DaerahID
	d.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateDesa(ctx, d)
}

func (svc *Service) DeleteDesa(ctx context.Context, id string) error {
	return svc.repo.DeleteDesa(ctx, id)
}

// Kelompok

// checkKelompokScope makes sure both parents exist and the desa sits in the daerah.
func (svc *Service) checkKelompokScope(ctx context.Context, nk NewKelompok) error {
	if _, err := svc.repo.GetDaerah(ctx, nk.DaerahID); err != nil {
		return err
	}
	desa, err := svc.repo.GetDesa(ctx, nk.DesaID)
	if err != nil {
		return err
	}
	if desa.DaerahID != nk.DaerahID {
		return core.NewFieldError("desaId", errDesaOutsideDaerah)
	}
	return nil
}

func (svc *Service) CreateKelompok(ctx context.Context, nk NewKelompok) (Kelompok, error) {
	nk.Clean()
	if err := svc.validate.Struct(nk); err != nil {
		return Kelompok{}, err
	}
	if err := svc.checkKelompokScope(ctx, nk); err != nil {
		return Kelompok{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateKelompok(ctx, Kelompok{
		ID:        uuid.New().String(),
		Name:      nk.Name,
		DaerahID:  nk.DaerahID,
		DesaID:    nk.DesaID,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) GetKelompok(ctx context.Context, id string) (Kelompok, error) {
	return svc.repo.GetKelompok(ctx, id)
}

func (svc *Service) QueryKelompok(ctx context.Context, filter QueryFilter) ([]Kelompok, int, error) {
	filter.Clean()
	return svc.repo.QueryKelompok(ctx, filter)
}

func (svc *Service) UpdateKelompok(ctx context.Context, id string, nk NewKelompok) (Kelompok, error) {
	nk.Clean()
	if err := svc.validate.Struct(nk); err != nil {
		return Kelompok{}, err
	}
	k, err := svc.repo.GetKelompok(ctx, id)
	if err != nil {
		return Kelompok{}, err
	}
	if err = svc.checkKelompokScope(ctx, nk); err != nil {
		return Kelompok{}, err
	}
	k.Name = nk.Name
	k.DaerahID = nk.DaerahID
	k.DesaID = nk.DesaID
	k.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateKelompok(ctx, k)
}

func (svc *Service) DeleteKelompok(ctx context.Context, id string) error {
	return svc.repo.DeleteKelompok(ctx, id)
}

// Counts

func (svc *Service) CountDaerah(ctx context.Context) (int, error) {
	return svc.repo.CountDaerah(ctx)
}

func (svc *Service) CountDesa(ctx context.Context) (int, error) {
	return svc.repo.CountDesa(ctx)
}

func (svc *Service) CountKelompok(ctx context.Context) (int, error) {
	return svc.repo.CountKelompok(ctx)
}

// Summary counts the three tiers concurrently.
func (svc *Service) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Daerah, err = svc.repo.CountDaerah(gctx)
		return errors.Wrap(err, "counting daerah")
	})
	g.Go(func() (err error) {
		sum.Desa, err = svc.repo.CountDesa(gctx)
		return errors.Wrap(err, "counting desa")
	})
	g.Go(func() (err error) {
		sum.Kelompok, err = svc.repo.CountKelompok(gctx)
		return errors.Wrap(err, "counting kelompok")
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
