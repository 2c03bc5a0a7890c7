package report

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
)

// Rapor statuses
const (
	StatusTuntas      = "TUNTAS"
	StatusTidakTuntas = "TIDAK_TUNTAS"
)

// passingGrade is the highest nilai that is still TIDAK_TUNTAS.
const passingGrade = 74

// AutoStatus derives the status from the first available nilai, pengetahuan first.
func AutoStatus(pengetahuan, keterampilan *int) string {
	nilai := 0
	switch {
	case pengetahuan != nil:
		nilai = *pengetahuan
	case keterampilan != nil:
		nilai = *keterampilan
	}
	if nilai > passingGrade {
		return StatusTuntas
	}
	return StatusTidakTuntas
}

type Rapor struct {
	ID                string    `json:"id" db:"id"`
	CaberawitID       int64     `json:"caberawitId" db:"caberawit_id"`
	KelasJenjangID    string    `json:"kelasJenjangId" db:"kelas_jenjang_id"`
	IndikatorKelasID  string    `json:"indikatorKelasId" db:"indikator_kelas_id"`
	TahunAjaranID     string    `json:"tahunAjaranId" db:"tahun_ajaran_id"`
	Semester          string    `json:"semester" db:"semester"`
	Status            string    `json:"status" db:"status"`
	NilaiPengetahuan  null.Int  `json:"nilaiPengetahuan" db:"nilai_pengetahuan"`
	NilaiKeterampilan null.Int  `json:"nilaiKeterampilan" db:"nilai_keterampilan"`
	Indikator         string    `json:"indikator" db:"indikator"`
	TahunAjaranName   string    `json:"tahunAjaranName" db:"tahun_ajaran_name"`
	CreatedAt         time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time `json:"updatedAt" db:"updated_at"`
}

type RaporItem struct {
	IndikatorKelasID  string `json:"indikatorKelasId" validate:"required"`
	Status            string `json:"status" validate:"omitempty,oneof=TUNTAS TIDAK_TUNTAS"`
	NilaiPengetahuan  *int   `json:"nilaiPengetahuan" validate:"omitempty,min=0,max=100"`
	NilaiKeterampilan *int   `json:"nilaiKeterampilan" validate:"omitempty,min=0,max=100"`
}

// NewRaporBulk holds every rapor entry of a caberawit for one kelas, tahun ajaran and semester.
type NewRaporBulk struct {
	CaberawitID    int64       `json:"caberawitId" validate:"required"`
	KelasJenjangID string      `json:"kelasJenjangId" validate:"required"`
	TahunAjaranID  string      `json:"tahunAjaranId" validate:"required"`
	Semester       string      `json:"semester" validate:"required,semester"`
	Items          []RaporItem `json:"items" validate:"required,min=1,dive"`
}

func (nb *NewRaporBulk) Clean() {
	nb.KelasJenjangID = core.CleanString(nb.KelasJenjangID)
	nb.TahunAjaranID = core.CleanString(nb.TahunAjaranID)
	nb.Semester = core.CleanString(nb.Semester)
	for i := range nb.Items {
		nb.Items[i].IndikatorKelasID = core.CleanString(nb.Items[i].IndikatorKelasID)
		nb.Items[i].Status = core.CleanString(nb.Items[i].Status)
	}
}

// UpdateRapor changes the set fields only.
type UpdateRapor struct {
	Status            *string `json:"status" validate:"omitempty,oneof=TUNTAS TIDAK_TUNTAS"`
	NilaiPengetahuan  *int    `json:"nilaiPengetahuan" validate:"omitempty,min=0,max=100"`
	NilaiKeterampilan *int    `json:"nilaiKeterampilan" validate:"omitempty,min=0,max=100"`
}

type RaporFilter struct {
	CaberawitID   int64
	TahunAjaranID string
	Semester      string
}

// RaporIndikator is one indikator of the kelas, with its rapor values when graded.
type RaporIndikator struct {
	IndikatorID       string      `json:"indikatorId"`
	Indikator         string      `json:"indikator"`
	Status            null.String `json:"status"`
	NilaiPengetahuan  null.Int    `json:"nilaiPengetahuan"`
	NilaiKeterampilan null.Int    `json:"nilaiKeterampilan"`
	RaporID           null.String `json:"raporId"`
	JenisPenilaian    string      `json:"jenisPenilaian"`
	Semester          string      `json:"semester"`
}

type RaporGroup struct {
	MataPelajaran       string           `json:"mataPelajaran"`
	MataPelajaranID     null.String      `json:"mataPelajaranId"`
	KategoriIndikator   string           `json:"kategoriIndikator"`
	KategoriIndikatorID string           `json:"kategoriIndikatorId"`
	Indikator           []RaporIndikator `json:"indikator"`
}

type RaporLengkap struct {
	Caberawit     member.Member `json:"caberawit"`
	TahunAjaranID string        `json:"tahunAjaranId,omitempty"`
	Semester      string        `json:"semester,omitempty"`
	Rapor         []RaporGroup  `json:"rapor"`
}

type CatatanWaliKelas struct {
	ID            string    `json:"id" db:"id"`
	CaberawitID   int64     `json:"caberawitId" db:"caberawit_id"`
	TahunAjaranID string    `json:"tahunAjaranId" db:"tahun_ajaran_id"`
	Semester      string    `json:"semester" db:"semester"`
	Catatan       string    `json:"catatan" db:"catatan"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type NewCatatan struct {
	CaberawitID   int64  `json:"caberawitId" validate:"required"`
	TahunAjaranID string `json:"tahunAjaranId" validate:"required"`
	Semester      string `json:"semester" validate:"required,semester"`
	Catatan       string `json:"catatan" validate:"required,notblank"`
}

// CatatanKey identifies the catatan of a caberawit for a tahun ajaran and semester.
type CatatanKey struct {
	CaberawitID   int64  `json:"caberawitId"`
	TahunAjaranID string `json:"tahunAjaranId" validate:"required"`
	Semester      string `json:"semester" validate:"required,semester"`
}
