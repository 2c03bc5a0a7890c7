package curriculum

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
)

// Jenis penilaian
const (
	PenilaianPengetahuan  = "PENGETAHUAN"
	PenilaianKeterampilan = "KETERAMPILAN"
)

type Jenjang struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type KelasJenjang struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	JenjangID   string    `json:"jenjangId" db:"jenjang_id"`
	JenjangName string    `json:"jenjangName" db:"jenjang_name"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type TahunAjaran struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type MataPelajaran struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type KategoriIndikator struct {
	ID                string      `json:"id" db:"id"`
	Name              string      `json:"name" db:"name"`
	MataPelajaranID   null.String `json:"mataPelajaranId" db:"mata_pelajaran_id"`
	MataPelajaranName null.String `json:"mataPelajaranName" db:"mata_pelajaran_name"`
	CreatedAt         time.Time   `json:"createdAt" db:"created_at"`
}

type IndikatorKelas struct {
	ID                    string      `json:"id" db:"id"`
	Indikator             string      `json:"indikator" db:"indikator"`
	KelasJenjangID        string      `json:"kelasJenjangId" db:"kelas_jenjang_id"`
	KategoriIndikatorID   string      `json:"kategoriIndikatorId" db:"kategori_indikator_id"`
	JenisPenilaian        string      `json:"jenisPenilaian" db:"jenis_penilaian"`
	Semester              string      `json:"semester" db:"semester"`
	KategoriIndikatorName string      `json:"kategoriIndikatorName" db:"kategori_indikator_name"`
	MataPelajaranID       null.String `json:"mataPelajaranId" db:"mata_pelajaran_id"`
	MataPelajaranName     null.String `json:"mataPelajaranName" db:"mata_pelajaran_name"`
	CreatedAt             time.Time   `json:"createdAt" db:"created_at"`
}

// NewJenjang is also used for MataPelajaran, which only carry a name.
type NewJenjang struct {
	Name string `json:"name" validate:"required,notblank"`
}

type NewKelasJenjang struct {
	Name      string `json:"name" validate:"required,notblank"`
	JenjangID string `json:"jenjangId" validate:"required"`
}

type NewTahunAjaran struct {
	Name     string `json:"name" validate:"required,notblank"`
	IsActive bool   `json:"isActive"`
}

type NewKategoriIndikator struct {
	Name            string `json:"name" validate:"required,notblank"`
	MataPelajaranID string `json:"mataPelajaranId"`
}

type NewIndikatorKelas struct {
	Indikator           string `json:"indikator" validate:"required,notblank"`
	KelasJenjangID      string `json:"kelasJenjangId" validate:"required"`
	KategoriIndikatorID string `json:"kategoriIndikatorId" validate:"required"`
	JenisPenilaian      string `json:"jenisPenilaian" validate:"required,oneof=PENGETAHUAN KETERAMPILAN"`
	Semester            string `json:"semester" validate:"required,semester"`
}

func (ni *NewIndikatorKelas) Clean() {
	ni.Indikator = core.CleanString(ni.Indikator)
	ni.KelasJenjangID = core.CleanString(ni.KelasJenjangID)
	ni.KategoriIndikatorID = core.CleanString(ni.KategoriIndikatorID)
	ni.JenisPenilaian = core.CleanString(ni.JenisPenilaian)
	ni.Semester = core.CleanString(ni.Semester)
}

type IndikatorFilter struct {
	KelasJenjangID string
	Semester       string
}
