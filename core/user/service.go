package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
)

var (
	ErrNotFound       = core.NewNotFoundError("user not found")
	ErrUsernameExists = core.NewConflictError("a user with this username already exists")

	ErrInvalidPassword = core.NewValidationError(
		errors.New("invalid old password"),
		core.FieldError{Field: "oldPassword", Error: "invalid old password"},
	)
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUserByID(ctx context.Context, id int64, exec ...core.DBExecutor) (User, error)
		GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.FullName or User.Username.
		QueryUsers(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]User, int, error)
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		UpdatePassword(ctx context.Context, id int64, hash []byte, exec ...core.DBExecutor) error
		DeleteUser(ctx context.Context, id int64, exec ...core.DBExecutor) error
	}

	// Regions resolves the scope a user is attached to.
	Regions interface {
		GetDaerah(ctx context.Context, id string) (region.Daerah, error)
		GetDesa(ctx context.Context, id string) (region.Desa, error)
		GetKelompok(ctx context.Context, id string) (region.Kelompok, error)
	}

	Service struct {
		repo     Repository
		regions  Regions
		validate *validator.Validate
	}
)

func NewService(repo Repository, regions Regions, validate *validator.Validate) *Service {
	return &Service{repo: repo, regions: regions, validate: validate}
}

// resolveScope keeps only the scope id the role calls for, and checks that it exists.
func (svc *Service) resolveScope(ctx context.Context, role, daerahID, desaID, kelompokID string) (d, ds, k null.String, err error) {
	switch Scope(role) {
	case "daerah":
		if daerahID == "" {
			return d, ds, k, core.NewFieldError("daerahId", "this field is required")
		}
		if _, err = svc.regions.GetDaerah(ctx, daerahID); err != nil {
			return d, ds, k, err
		}
		d = null.StringFrom(daerahID)
	case "desa":
		if desaID == "" {
			return d, ds, k, core.NewFieldError("desaId", "this field is required")
		}
		if _, err = svc.regions.GetDesa(ctx, desaID); err != nil {
			return d, ds, k, err
		}
		ds = null.StringFrom(desaID)
	case "kelompok":
		if kelompokID == "" {
			return d, ds, k, core.NewFieldError("kelompokId", "this field is required")
		}
		if _, err = svc.regions.GetKelompok(ctx, kelompokID); err != nil {
			return d, ds, k, err
		}
		k = null.StringFrom(kelompokID)
	}
	return d, ds, k, nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	daerahID, desaID, kelompokID, err := svc.resolveScope(ctx, nu.Role, nu.DaerahID, nu.DesaID, nu.KelompokID)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		FullName:   nu.FullName,
		Username:   nu.Username,
		Role:       nu.Role,
		DaerahID:   daerahID,
		DesaID:     desaID,
		KelompokID: kelompokID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, int, error) {
	filter.Clean()
	return svc.repo.QueryUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id int64, uu UpdateUser) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	uu.Clean(usr)
	if err = svc.validate.Struct(uu); err != nil {
		return User{}, err
	}
	daerahID, desaID, kelompokID, err := svc.resolveScope(ctx, uu.Role, uu.DaerahID, uu.DesaID, uu.KelompokID)
	if err != nil {
		return User{}, err
	}

	usr.FullName = uu.FullName
	usr.Username = uu.Username
	usr.Role = uu.Role
	usr.DaerahID = daerahID
	usr.DesaID = desaID
	usr.KelompokID = kelompokID
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) ChangePassword(ctx context.Context, id int64, cp ChangePassword) error {
	if err := svc.validate.Struct(cp); err != nil {
		return err
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = usr.CheckPassword(cp.OldPassword); err != nil {
		return ErrInvalidPassword
	}
	return svc.SetPassword(ctx, usr, cp.Password)
}

// SetPassword stores a new password for usr without any policy check.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) error {
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	return svc.repo.UpdatePassword(ctx, usr.ID, usr.PasswordHash)
}

func (svc *Service) Delete(ctx context.Context, id int64) error {
	return svc.repo.DeleteUser(ctx, id)
}
