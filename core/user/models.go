package user

import (
	"time"

	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/sigenerus/sigenerus/core"
)

// Roles
const (
	RoleSuperAdmin  = "SUPERADMIN"
	RoleAdmin       = "ADMIN"
	RoleDaerah      = "DAERAH"
	RoleSubDaerah   = "SUBDAERAH"
	RoleDesa        = "DESA"
	RoleSubDesa     = "SUBDESA"
	RoleKelompok    = "KELOMPOK"
	RoleSubKelompok = "SUBKELOMPOK"
)

var (
	AllRoles = []string{
		RoleSuperAdmin, RoleAdmin,
		RoleDaerah, RoleSubDaerah,
		RoleDesa, RoleSubDesa,
		RoleKelompok, RoleSubKelompok,
	}

	rolePriorities = map[string]int{
		RoleSuperAdmin:  80,
		RoleAdmin:       70,
		RoleDaerah:      60,
		RoleSubDaerah:   50,
		RoleDesa:        40,
		RoleSubDesa:     30,
		RoleKelompok:    20,
		RoleSubKelompok: 10,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

func IsValidRole(role string) bool {
	_, ok := rolePriorities[role]
	return ok
}

// Scope is the region tier a role is bound to: "daerah", "desa", "kelompok" or "" (global).
func Scope(role string) string {
	switch role {
	case RoleDaerah, RoleSubDaerah:
		return "daerah"
	case RoleDesa, RoleSubDesa:
		return "desa"
	case RoleKelompok, RoleSubKelompok:
		return "kelompok"
	}
	return ""
}

type User struct {
	ID           int64       `json:"id" db:"id"`
	FullName     string      `json:"fullName" db:"full_name"`
	Username     string      `json:"username" db:"username"`
	Role         string      `json:"role" db:"role"`
	DaerahID     null.String `json:"daerahId" db:"daerah_id"`
	DesaID       null.String `json:"desaId" db:"desa_id"`
	KelompokID   null.String `json:"kelompokId" db:"kelompok_id"`
	DaerahName   null.String `json:"daerahName" db:"daerah_name"`
	DesaName     null.String `json:"desaName" db:"desa_name"`
	KelompokName null.String `json:"kelompokName" db:"kelompok_name"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	FullName        string `json:"fullName" validate:"required,notblank"`
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,role"`
	DaerahID        string `json:"daerahId"`
	DesaID          string `json:"desaId"`
	KelompokID      string `json:"kelompokId"`
}

func (nu *NewUser) Clean() {
	nu.FullName = core.CleanString(nu.FullName)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Role = core.CleanString(nu.Role)
	nu.DaerahID = core.CleanString(nu.DaerahID)
	nu.DesaID = core.CleanString(nu.DesaID)
	nu.KelompokID = core.CleanString(nu.KelompokID)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current value.
type UpdateUser struct {
	FullName   string `json:"fullName"`
	Username   string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Role       string `json:"role" validate:"omitempty,role"`
	DaerahID   string `json:"daerahId"`
	DesaID     string `json:"desaId"`
	KelompokID string `json:"kelompokId"`
}

func (uu *UpdateUser) Clean(orig User) {
	if name := core.CleanString(uu.FullName); name != "" {
		uu.FullName = name
	} else {
		uu.FullName = orig.FullName
	}
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = orig.Username
	}
	if role := core.CleanString(uu.Role); role != "" {
		uu.Role = role
	} else {
		uu.Role = orig.Role
	}
	uu.DaerahID = core.CleanString(uu.DaerahID)
	uu.DesaID = core.CleanString(uu.DesaID)
	uu.KelompokID = core.CleanString(uu.KelompokID)
	if uu.DaerahID == "" && uu.DesaID == "" && uu.KelompokID == "" && uu.Role == orig.Role {
		uu.DaerahID = orig.DaerahID.String
		uu.DesaID = orig.DesaID.String
		uu.KelompokID = orig.KelompokID.String
	}
}

type ChangePassword struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type QueryFilter struct {
	Search string
	Role   string
	Page   core.Page
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role)
}
