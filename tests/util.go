package testutil

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/activity"
	"github.com/sigenerus/sigenerus/core/chat"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/core/report"
	"github.com/sigenerus/sigenerus/core/user"
	logsvc "github.com/sigenerus/sigenerus/services/logger"
	inmemdb "github.com/sigenerus/sigenerus/storage/database/inmem"
)

// NewLogger returns a silent logger with Rollbar reporting disabled.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Env: "TEST"})
	logger.Enable(false)
	return logger
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

// Event is a notification captured by Notifier.
type Event struct {
	Conversation string
	UserID       int64
	Name         string
	Data         interface{}
}

// Notifier records the events the chat service emits.
type Notifier struct {
	mu     sync.Mutex
	events []Event
}

func (n *Notifier) EmitToConversation(conversationID, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{Conversation: conversationID, Name: event, Data: data})
}

func (n *Notifier) EmitToUser(userID int64, event string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{UserID: userID, Name: event, Data: data})
}

// Events returns the captured events named name, all of them when name is empty.
func (n *Notifier) Events(name string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	events := make([]Event, 0, len(n.events))
	for _, e := range n.events {
		if name == "" || e.Name == name {
			events = append(events, e)
		}
	}
	return events
}

func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = nil
}

// Env wires every service over a fresh in-memory store.
type Env struct {
	DB       *inmemdb.DB
	Validate *validator.Validate
	Notifier *Notifier

	UserRepo   user.Repository
	Regions    *region.Service
	Users      *user.Service
	Curriculum *curriculum.Service
	Members    *member.Service
	Activity   *activity.Service
	Report     *report.Service
	Chat       *chat.Service
}

func NewEnv() *Env {
	db := inmemdb.Open()
	validate := NewValidator()
	notifier := new(Notifier)

	regionSvc := region.NewService(inmemdb.NewRegionRepository(db), validate)
	currSvc := curriculum.NewService(nil, inmemdb.NewCurriculumRepository(db), validate)
	memberSvc := member.NewService(inmemdb.NewMemberRepository(db), regionSvc, currSvc, validate)
	userRepo := inmemdb.NewUserRepository(db)

	return &Env{
		DB:         db,
		Validate:   validate,
		Notifier:   notifier,
		UserRepo:   userRepo,
		Regions:    regionSvc,
		Users:      user.NewService(userRepo, regionSvc, validate),
		Curriculum: currSvc,
		Members:    memberSvc,
		Activity:   activity.NewService(nil, inmemdb.NewActivityRepository(db), memberSvc, regionSvc, currSvc, validate),
		Report:     report.NewService(nil, inmemdb.NewReportRepository(db), memberSvc, currSvc, validate),
		Chat:       chat.NewService(nil, inmemdb.NewChatRepository(db), memberSvc, notifier, validate),
	}
}

// Region is a daerah with one desa and one kelompok in it.
type Region struct {
	Daerah   region.Daerah
	Desa     region.Desa
	Kelompok region.Kelompok
}

func (env *Env) CreateRegion(t *testing.T, daerah, desa, kelompok string) Region {
	t.Helper()
	ctx := context.Background()

	d, err := env.Regions.CreateDaerah(ctx, region.NewDaerah{Name: daerah})
	require.NoError(t, err)
	ds, err := env.Regions.CreateDesa(ctx, region.NewDesa{Name: desa, DaerahID: d.ID})
	require.NoError(t, err)
	k, err := env.Regions.CreateKelompok(ctx, region.NewKelompok{Name: kelompok, DaerahID: d.ID, DesaID: ds.ID})
	require.NoError(t, err)
	return Region{Daerah: d, Desa: ds, Kelompok: k}
}

// CreateKelompok adds another kelompok to the desa of r.
func (env *Env) CreateKelompok(t *testing.T, r Region, name string) region.Kelompok {
	t.Helper()
	k, err := env.Regions.CreateKelompok(context.Background(), region.NewKelompok{
		Name:     name,
		DaerahID: r.Daerah.ID,
		DesaID:   r.Desa.ID,
	})
	require.NoError(t, err)
	return k
}

func (env *Env) CreateJenjang(t *testing.T, name string) curriculum.Jenjang {
	t.Helper()
	j, err := env.Curriculum.CreateJenjang(context.Background(), curriculum.NewJenjang{Name: name})
	require.NoError(t, err)
	return j
}

func (env *Env) CreateKelas(t *testing.T, jenjangID, name string) curriculum.KelasJenjang {
	t.Helper()
	k, err := env.Curriculum.CreateKelasJenjang(context.Background(), curriculum.NewKelasJenjang{
		Name:      name,
		JenjangID: jenjangID,
	})
	require.NoError(t, err)
	return k
}

// MemberInput returns a valid NewMember living in kelompok k of r.
func MemberInput(nama string, r Region, k region.Kelompok, jenjangID string, birth core.Date, gender string) member.NewMember {
	return member.NewMember{
		Nama:         nama,
		DaerahID:     r.Daerah.ID,
		DesaID:       r.Desa.ID,
		KelompokID:   k.ID,
		JenjangID:    jenjangID,
		TglLahir:     birth,
		JenisKelamin: gender,
		NamaOrtu:     "Ortu " + nama,
	}
}

func (env *Env) CreateMember(t *testing.T, kind string, nm member.NewMember) member.Member {
	t.Helper()
	m, err := env.Members.Create(context.Background(), kind, nm)
	require.NoError(t, err)
	return m
}

// CreateGenerus adds a generus to the first kelompok of r.
func (env *Env) CreateGenerus(t *testing.T, nama string, r Region, jenjangID string) member.Member {
	t.Helper()
	return env.CreateMember(t, member.KindGenerus,
		MemberInput(nama, r, r.Kelompok, jenjangID, core.NewDate(2005, time.March, 10), core.GenderLakiLaki))
}

// CreateUser stores a user straight into repo, bypassing the password policy.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Username:  uname,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		require.NoError(t, usr.SetPassword(pwd))
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}
