package activity

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
)

// Tingkat
const (
	TingkatDaerah   = "DAERAH"
	TingkatDesa     = "DESA"
	TingkatKelompok = "KELOMPOK"
)

// Target types
const (
	TargetJenjang   = "JENJANG"
	TargetMahasiswa = "MAHASISWA"
	TargetUsia      = "USIA"
)

// Kegiatan genders
const (
	GenderLakiLaki  = "LAKI_LAKI"
	GenderPerempuan = "PEREMPUAN"
	GenderSemua     = "SEMUA"
)

// Absen statuses
const (
	StatusHadir      = "HADIR"
	StatusTidakHadir = "TIDAK_HADIR"
	StatusTerlambat  = "TERLAMBAT"
	StatusBelumHadir = "BELUM_HADIR"
)

// LateAfter is how long after the start of a kegiatan an attendance still counts as HADIR.
const LateAfter = 15 * time.Minute

// MemberGender maps a kegiatan gender onto the member gender, "" for SEMUA.
func MemberGender(g string) string {
	switch g {
	case GenderLakiLaki:
		return core.GenderLakiLaki
	case GenderPerempuan:
		return core.GenderPerempuan
	}
	return ""
}

type Sasaran struct {
	JenjangID   string `json:"jenjangId" db:"jenjang_id"`
	JenjangName string `json:"jenjangName" db:"jenjang_name"`
}

type Kegiatan struct {
	ID           string      `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	StartDate    time.Time   `json:"startDate" db:"start_date"`
	EndDate      time.Time   `json:"endDate" db:"end_date"`
	Tingkat      string      `json:"tingkat" db:"tingkat"`
	DaerahID     null.String `json:"daerahId" db:"daerah_id"`
	DesaID       null.String `json:"desaId" db:"desa_id"`
	KelompokID   null.String `json:"kelompokId" db:"kelompok_id"`
	TargetType   string      `json:"targetType" db:"target_type"`
	JenisKelamin string      `json:"jenisKelamin" db:"jenis_kelamin"`
	MinUsia      null.Int    `json:"minUsia" db:"min_usia"`
	MaxUsia      null.Int    `json:"maxUsia" db:"max_usia"`
	Sasaran      []Sasaran   `json:"sasaran" db:"-"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`
}

func (k Kegiatan) JenjangIDs() []string {
	ids := make([]string, len(k.Sasaran))
	for i, s := range k.Sasaran {
		ids[i] = s.JenjangID
	}
	return ids
}

// Participant is a member targeted by a kegiatan, with its attendance.
type Participant struct {
	ID           int64     `json:"id"`
	Nama         string    `json:"nama"`
	JenisKelamin string    `json:"jenisKelamin"`
	JenjangID    string    `json:"jenjangId"`
	JenjangName  string    `json:"jenjangName"`
	KelompokName string    `json:"kelompokName"`
	Status       string    `json:"status"`
	WaktuAbsen   null.Time `json:"waktuAbsen"`
}

type KegiatanDetail struct {
	Kegiatan
	Peserta []Participant `json:"peserta"`
}

// NewKegiatan contains information needed to create or replace a Kegiatan.
type NewKegiatan struct {
	Name         string    `json:"name" validate:"required,notblank"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	Tingkat      string    `json:"tingkat" validate:"required,oneof=DAERAH DESA KELOMPOK"`
	DaerahID     string    `json:"daerahId"`
	DesaID       string    `json:"desaId"`
	KelompokID   string    `json:"kelompokId"`
	TargetType   string    `json:"targetType" validate:"omitempty,oneof=JENJANG MAHASISWA USIA"`
	JenisKelamin string    `json:"jenisKelamin" validate:"omitempty,oneof=LAKI_LAKI PEREMPUAN SEMUA"`
	MinUsia      *int      `json:"minUsia" validate:"omitempty,min=0"`
	MaxUsia      *int      `json:"maxUsia" validate:"omitempty,min=0"`
	JenjangIDs   []string  `json:"jenjangIds"`
}

func (nk *NewKegiatan) Clean() {
	nk.Name = core.CleanString(nk.Name)
	nk.Tingkat = core.CleanString(nk.Tingkat)
	nk.DaerahID = core.CleanString(nk.DaerahID)
	nk.DesaID = core.CleanString(nk.DesaID)
	nk.KelompokID = core.CleanString(nk.KelompokID)
	nk.TargetType = core.CleanString(nk.TargetType)
	if nk.TargetType == "" {
		nk.TargetType = TargetJenjang
	}
	nk.JenisKelamin = core.CleanString(nk.JenisKelamin)
	if nk.JenisKelamin == "" {
		nk.JenisKelamin = GenderSemua
	}
	ids := make([]string, 0, len(nk.JenjangIDs))
	seen := make(map[string]bool, len(nk.JenjangIDs))
	for _, id := range nk.JenjangIDs {
		if id = core.CleanString(id); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	nk.JenjangIDs = ids
}

type QueryFilter struct {
	DaerahID   string
	DesaID     string
	KelompokID string
	Tingkat    string
	// JenjangID keeps the kegiatan whose sasaran holds it.
	JenjangID string
	// StartFrom and StartTo bound StartDate, [StartFrom, StartTo).
	StartFrom time.Time
	StartTo   time.Time
	// OrderByStart sorts by StartDate ascending instead of newest first.
	OrderByStart bool
}

type Absen struct {
	ID         string    `json:"id" db:"id"`
	KegiatanID string    `json:"kegiatanId" db:"kegiatan_id"`
	MumiID     int64     `json:"mumiId" db:"mumi_id"`
	Status     string    `json:"status" db:"status"`
	WaktuAbsen time.Time `json:"waktuAbsen" db:"waktu_absen"`

	MumiNama          string    `json:"mumiNama,omitempty" db:"mumi_nama"`
	MumiJenjangID     string    `json:"mumiJenjangId,omitempty" db:"mumi_jenjang_id"`
	MumiJenjangName   string    `json:"mumiJenjangName,omitempty" db:"mumi_jenjang_name"`
	KegiatanName      string    `json:"kegiatanName,omitempty" db:"kegiatan_name"`
	KegiatanStartDate null.Time `json:"kegiatanStartDate" db:"kegiatan_start_date"`
}

type NewAbsen struct {
	KegiatanID string `json:"kegiatanId" validate:"required"`
	MumiID     int64  `json:"mumiId" validate:"required"`
	Status     string `json:"status" validate:"omitempty,oneof=HADIR TIDAK_HADIR TERLAMBAT"`
}
