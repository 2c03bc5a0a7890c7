package inmemdb

import (
	"sort"
	"strings"
	"sync"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/activity"
	"github.com/sigenerus/sigenerus/core/chat"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/core/report"
	"github.com/sigenerus/sigenerus/core/user"
)

// DB keeps every table in memory behind a single lock, so joins see a consistent state.
type DB struct {
	mu sync.RWMutex

	userSeq   int64
	memberSeq int64

	daerah   map[string]region.Daerah
	desa     map[string]region.Desa
	kelompok map[string]region.Kelompok
	users    map[int64]user.User

	jenjang      map[string]curriculum.Jenjang
	kelasJenjang map[string]curriculum.KelasJenjang
	tahunAjaran  map[string]curriculum.TahunAjaran
	mapel        map[string]curriculum.MataPelajaran
	kategori     map[string]curriculum.KategoriIndikator
	indikator    map[string]curriculum.IndikatorKelas

	members map[int64]member.Member

	kegiatan map[string]activity.Kegiatan
	sasaran  map[string][]string
	absen    map[string]activity.Absen

	rapor   map[string]report.Rapor
	catatan map[string]report.CatatanWaliKelas

	conversations map[string]chat.Conversation
	participants  map[string]map[int64]chat.Participant
	messages      map[string]chat.Message
}

func Open() *DB {
	return &DB{
		daerah:        make(map[string]region.Daerah),
		desa:          make(map[string]region.Desa),
		kelompok:      make(map[string]region.Kelompok),
		users:         make(map[int64]user.User),
		jenjang:       make(map[string]curriculum.Jenjang),
		kelasJenjang:  make(map[string]curriculum.KelasJenjang),
		tahunAjaran:   make(map[string]curriculum.TahunAjaran),
		mapel:         make(map[string]curriculum.MataPelajaran),
		kategori:      make(map[string]curriculum.KategoriIndikator),
		indikator:     make(map[string]curriculum.IndikatorKelas),
		members:       make(map[int64]member.Member),
		kegiatan:      make(map[string]activity.Kegiatan),
		sasaran:       make(map[string][]string),
		absen:         make(map[string]activity.Absen),
		rapor:         make(map[string]report.Rapor),
		catatan:       make(map[string]report.CatatanWaliKelas),
		conversations: make(map[string]chat.Conversation),
		participants:  make(map[string]map[int64]chat.Participant),
		messages:      make(map[string]chat.Message),
	}
}

// Helpers

func contains(s, search string) bool {
	return search == "" || strings.Contains(strings.ToLower(s), strings.ToLower(search))
}

// paginate returns the page of items, items being sorted already.
func paginate[T any](items []T, page core.Page) []T {
	start, end := page.Bounds(len(items))
	return items[start:end]
}

func sortedValues[K comparable, V any](m map[K]V, less func(a, b V) bool) []V {
	values := make([]V, 0, len(m))
	for _, v := range m {
		values = append(values, v)
	}
	sort.SliceStable(values, func(i, j int) bool { return less(values[i], values[j]) })
	return values
}
