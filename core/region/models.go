package region

import (
	"time"

	"github.com/sigenerus/sigenerus/core"
)

type Daerah struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type Desa struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	DaerahID   string    `json:"daerahId" db:"daerah_id"`
	DaerahName string    `json:"daerahName" db:"daerah_name"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type Kelompok struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	DaerahID   string    `json:"daerahId" db:"daerah_id"`
	DesaID     string    `json:"desaId" db:"desa_id"`
	DaerahName string    `json:"daerahName" db:"daerah_name"`
	DesaName   string    `json:"desaName" db:"desa_name"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Summary holds the number of regions of each tier.
type Summary struct {
	Daerah   int `json:"daerah"`
	Desa     int `json:"desa"`
	Kelompok int `json:"kelompok"`
}

// NewDaerah contains information needed to create or rename a Daerah.
type NewDaerah struct {
	Name string `json:"name" validate:"required,notblank"`
}

func (nd *NewDaerah) Clean() {
	nd.Name = core.CleanString(nd.Name)
}

type NewDesa struct {
	Name     string `json:"name" validate:"required,notblank"`
	DaerahID string `json:"daerahId" validate:"required"`
}

func (nd *NewDesa) Clean() {
	nd.Name = core.CleanString(nd.Name)
	nd.DaerahID = core.CleanString(nd.DaerahID)
}

type NewKelompok struct {
	Name     string `json:"name" validate:"required,notblank"`
	DaerahID string `json:"daerahId" validate:"required"`
	DesaID   string `json:"desaId" validate:"required"`
}

func (nk *NewKelompok) Clean() {
	nk.Name = core.CleanString(nk.Name)
	nk.DaerahID = core.CleanString(nk.DaerahID)
	nk.DesaID = core.CleanString(nk.DesaID)
}

// QueryFilter applies to every tier. DaerahID and DesaID are ignored where the tier has no such column.
type QueryFilter struct {
	Search   string
	DaerahID string
	DesaID   string
	Page     core.Page
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.DaerahID = core.CleanString(qf.DaerahID)
	qf.DesaID = core.CleanString(qf.DesaID)
}
