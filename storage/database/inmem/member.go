package inmemdb

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/member"
)

type memberRepository struct {
	db *DB
}

var _ member.Repository = (*memberRepository)(nil)

func NewMemberRepository(db *DB) *memberRepository {
	return &memberRepository{db: db}
}

func (db *DB) withMemberNames(m member.Member) member.Member {
	m.DaerahName = db.daerah[m.DaerahID].Name
	m.DesaName = db.desa[m.DesaID].Name
	m.KelompokName = db.kelompok[m.KelompokID].Name
	m.JenjangName = db.jenjang[m.JenjangID].Name
	m.KelasJenjangName = null.String{}
	if k, ok := db.kelasJenjang[m.KelasJenjangID.String]; ok && m.KelasJenjangID.Valid {
		m.KelasJenjangName = null.StringFrom(k.Name)
	}
	return m
}

func (db *DB) getMember(kind string, id int64) (member.Member, bool) {
	m, ok := db.members[id]
	if !ok || m.Kind != kind {
		return member.Member{}, false
	}
	return db.withMemberNames(m), true
}

func (repo *memberRepository) CreateMember(_ context.Context, m member.Member, _ ...core.DBExecutor) (member.Member, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.memberSeq++
	m.ID = repo.db.memberSeq
	repo.db.members[m.ID] = m
	return repo.db.withMemberNames(m), nil
}

func (repo *memberRepository) GetMember(_ context.Context, kind string, id int64, _ ...core.DBExecutor) (member.Member, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if m, ok := repo.db.getMember(kind, id); ok {
		return m, nil
	}
	return member.Member{}, member.NotFound(kind)
}

func (repo *memberRepository) QueryMembers(_ context.Context, kind string, filter member.QueryFilter, _ ...core.DBExecutor) ([]member.Member, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := sortedValues(repo.db.members, func(a, b member.Member) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	matches := make([]member.Member, 0, len(all))
	for _, m := range all {
		if m.Kind == kind && filter.Matches(m) {
			matches = append(matches, repo.db.withMemberNames(m))
		}
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func (repo *memberRepository) UpdateMember(_ context.Context, m member.Member, _ ...core.DBExecutor) (member.Member, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.members[m.ID]
	if !ok || orig.Kind != m.Kind {
		return member.Member{}, member.NotFound(m.Kind)
	}
	m.CreatedAt = orig.CreatedAt
	repo.db.members[m.ID] = m
	return repo.db.withMemberNames(m), nil
}

// DeleteMember cascades the way the postgres schema does.
func (repo *memberRepository) DeleteMember(_ context.Context, kind string, id int64, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.getMember(kind, id); !ok {
		return member.NotFound(kind)
	}
	delete(repo.db.members, id)

	for mid, m := range repo.db.members {
		if m.WaliID.Valid && m.WaliID.Int64 == id {
			m.WaliID = null.Int64{}
			repo.db.members[mid] = m
		}
	}
	for aid, a := range repo.db.absen {
		if a.MumiID == id {
			delete(repo.db.absen, aid)
		}
	}
	for rid, r := range repo.db.rapor {
		if r.CaberawitID == id {
			delete(repo.db.rapor, rid)
		}
	}
	for key, c := range repo.db.catatan {
		if c.CaberawitID == id {
			delete(repo.db.catatan, key)
		}
	}
	repo.db.removeChatMember(id)
	return nil
}

func (repo *memberRepository) ExistingMemberIDs(_ context.Context, kind string, ids []int64, _ ...core.DBExecutor) ([]int64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	existing := make([]int64, 0, len(ids))
	for _, id := range core.DedupInt64(ids) {
		if m, ok := repo.db.members[id]; ok && m.Kind == kind {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (repo *memberRepository) CountByJenjang(_ context.Context, kind string, _ ...core.DBExecutor) ([]member.JenjangCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	byJenjang := make(map[string]*member.JenjangCount)
	for _, m := range repo.db.members {
		if m.Kind != kind {
			continue
		}
		c, ok := byJenjang[m.JenjangID]
		if !ok {
			c = &member.JenjangCount{JenjangID: m.JenjangID, JenjangNama: repo.db.jenjang[m.JenjangID].Name}
			byJenjang[m.JenjangID] = c
		}
		c.Total++
	}
	counts := make([]member.JenjangCount, 0, len(byJenjang))
	for _, c := range byJenjang {
		counts = append(counts, *c)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].JenjangNama < counts[j].JenjangNama })
	return counts, nil
}

func (repo *memberRepository) CountByJenjangKelompok(_ context.Context, kind, desaID string, _ ...core.DBExecutor) ([]member.KelompokJenjangCount, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	type key struct{ kelompok, jenjang string }
	byKey := make(map[key]*member.KelompokJenjangCount)
	for _, m := range repo.db.members {
		if m.Kind != kind || m.DesaID != desaID {
			continue
		}
		k := key{m.KelompokID, m.JenjangID}
		c, ok := byKey[k]
		if !ok {
			c = &member.KelompokJenjangCount{
				KelompokID:   m.KelompokID,
				KelompokNama: repo.db.kelompok[m.KelompokID].Name,
				JenjangID:    m.JenjangID,
				JenjangNama:  repo.db.jenjang[m.JenjangID].Name,
			}
			byKey[k] = c
		}
		c.Total++
	}
	counts := make([]member.KelompokJenjangCount, 0, len(byKey))
	for _, c := range byKey {
		counts = append(counts, *c)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].KelompokNama != counts[j].KelompokNama {
			return counts[i].KelompokNama < counts[j].KelompokNama
		}
		return counts[i].JenjangNama < counts[j].JenjangNama
	})
	return counts, nil
}
