package member

import (
	"strings"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
)

// Kinds of member records.
const (
	KindGenerus   = "generus"
	KindCaberawit = "caberawit"
)

type Member struct {
	ID               int64       `json:"id" db:"id"`
	Kind             string      `json:"-" db:"kind"`
	Nama             string      `json:"nama" db:"nama"`
	DaerahID         string      `json:"daerahId" db:"daerah_id"`
	DesaID           string      `json:"desaId" db:"desa_id"`
	KelompokID       string      `json:"kelompokId" db:"kelompok_id"`
	JenjangID        string      `json:"jenjangId" db:"jenjang_id"`
	KelasJenjangID   null.String `json:"kelasJenjangId" db:"kelas_jenjang_id"`
	TglLahir         core.Date   `json:"tglLahir" db:"tgl_lahir"`
	JenisKelamin     string      `json:"jenisKelamin" db:"jenis_kelamin"`
	GolDarah         null.String `json:"golDarah" db:"gol_darah"`
	NamaOrtu         string      `json:"namaOrtu" db:"nama_ortu"`
	Mahasiswa        bool        `json:"mahasiswa" db:"mahasiswa"`
	Foto             null.String `json:"foto" db:"foto"`
	WaliID           null.Int64  `json:"waliId" db:"wali_id"`
	DaerahName       string      `json:"daerahName" db:"daerah_name"`
	DesaName         string      `json:"desaName" db:"desa_name"`
	KelompokName     string      `json:"kelompokName" db:"kelompok_name"`
	JenjangName      string      `json:"jenjangName" db:"jenjang_name"`
	KelasJenjangName null.String `json:"kelasJenjangName" db:"kelas_jenjang_name"`
	CreatedAt        time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time   `json:"updatedAt" db:"updated_at"`
}

// NewMember contains information needed to create or replace a Member.
type NewMember struct {
	Nama           string     `json:"nama" validate:"required,notblank"`
	DaerahID       string     `json:"daerahId" validate:"required"`
	DesaID         string     `json:"desaId" validate:"required"`
	KelompokID     string     `json:"kelompokId" validate:"required"`
	JenjangID      string     `json:"jenjangId" validate:"required"`
	KelasJenjangID string     `json:"kelasJenjangId"`
	TglLahir       core.Date  `json:"tglLahir"`
	JenisKelamin   string     `json:"jenisKelamin" validate:"required,gender"`
	GolDarah       string     `json:"golDarah" validate:"omitempty,oneof=A B AB O"`
	NamaOrtu       string     `json:"namaOrtu"`
	Mahasiswa      bool       `json:"mahasiswa"`
	Foto           string     `json:"foto" validate:"omitempty,url"`
	WaliID         null.Int64 `json:"waliId"`
}

func (nm *NewMember) Clean() {
	nm.Nama = core.CleanString(nm.Nama)
	nm.DaerahID = core.CleanString(nm.DaerahID)
	nm.DesaID = core.CleanString(nm.DesaID)
	nm.KelompokID = core.CleanString(nm.KelompokID)
	nm.JenjangID = core.CleanString(nm.JenjangID)
	nm.KelasJenjangID = core.CleanString(nm.KelasJenjangID)
	nm.JenisKelamin = core.CleanString(nm.JenisKelamin)
	nm.GolDarah = core.CleanString(nm.GolDarah)
	nm.NamaOrtu = core.CleanString(nm.NamaOrtu)
	nm.Foto = core.CleanString(nm.Foto)
}

// QueryFilter applies AND operation on the set fields.
type QueryFilter struct {
	Search       string
	JenisKelamin string
	JenjangID    string
	JenjangIDs   []string
	DaerahID     string
	DesaID       string
	KelompokID   string
	Mahasiswa    *bool
	MinUsia      *int
	MaxUsia      *int
	Page         core.Page

	// BornFrom and BornTo are derived from MaxUsia and MinUsia by Clean.
	BornFrom time.Time
	BornTo   time.Time
}

// Clean trims the filter and turns the age bounds into birth date bounds at now.
func (qf *QueryFilter) Clean(now time.Time) {
	qf.Search = core.CleanString(qf.Search)
	qf.JenisKelamin = core.CleanString(qf.JenisKelamin)
	qf.JenjangID = core.CleanString(qf.JenjangID)
	qf.DaerahID = core.CleanString(qf.DaerahID)
	qf.DesaID = core.CleanString(qf.DesaID)
	qf.KelompokID = core.CleanString(qf.KelompokID)

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if qf.MaxUsia != nil {
		qf.BornFrom = today.AddDate(-*qf.MaxUsia, 0, 0)
	}
	if qf.MinUsia != nil {
		qf.BornTo = today.AddDate(-*qf.MinUsia, 0, 0)
	}
}

// Matches reports whether m passes a cleaned filter. Kind and Page are left to the caller.
func (qf QueryFilter) Matches(m Member) bool {
	switch {
	case qf.Search != "" && !strings.Contains(strings.ToLower(m.Nama), strings.ToLower(qf.Search)):
	case qf.JenisKelamin != "" && m.JenisKelamin != qf.JenisKelamin:
	case qf.JenjangID != "" && m.JenjangID != qf.JenjangID:
	case qf.DaerahID != "" && m.DaerahID != qf.DaerahID:
	case qf.DesaID != "" && m.DesaID != qf.DesaID:
	case qf.KelompokID != "" && m.KelompokID != qf.KelompokID:
	case qf.Mahasiswa != nil && m.Mahasiswa != *qf.Mahasiswa:
	case !qf.BornFrom.IsZero() && m.TglLahir.Before(qf.BornFrom):
	case !qf.BornTo.IsZero() && m.TglLahir.After(qf.BornTo):
	default:
		if qf.JenjangIDs == nil {
			return true
		}
		for _, id := range qf.JenjangIDs {
			if id == m.JenjangID {
				return true
			}
		}
	}
	return false
}

type JenjangCount struct {
	JenjangID   string `json:"jenjangId" db:"jenjang_id"`
	JenjangNama string `json:"jenjangNama" db:"jenjang_nama"`
	Total       int    `json:"total" db:"total"`
}

type KelompokJenjangCount struct {
	KelompokID   string `json:"kelompokId" db:"kelompok_id"`
	KelompokNama string `json:"kelompokNama" db:"kelompok_nama"`
	JenjangID    string `json:"jenjangId" db:"jenjang_id"`
	JenjangNama  string `json:"jenjangNama" db:"jenjang_nama"`
	Total        int    `json:"total" db:"total"`
}
