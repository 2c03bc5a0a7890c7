package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/sigenerus/sigenerus/apps/api/echo"
	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/activity"
	"github.com/sigenerus/sigenerus/core/chat"
	"github.com/sigenerus/sigenerus/core/curriculum"
	"github.com/sigenerus/sigenerus/core/member"
	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/core/report"
	"github.com/sigenerus/sigenerus/core/user"
	logsvc "github.com/sigenerus/sigenerus/services/logger"
	"github.com/sigenerus/sigenerus/services/realtime"
	"github.com/sigenerus/sigenerus/storage/database"
	pgrepos "github.com/sigenerus/sigenerus/storage/database/postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := newLogger("API : ", conf)
	dbLogger := newLogger("DB : ", conf)
	wsLogger := newLogger("WS : ", conf)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// set up services
	regionSvc := region.NewService(pgrepos.NewRegionRepository(db), validate)
	usrSvc := user.NewService(pgrepos.NewUserRepository(db), regionSvc, validate)
	currSvc := curriculum.NewService(db, pgrepos.NewCurriculumRepository(db), validate)
	memberSvc := member.NewService(pgrepos.NewMemberRepository(db), regionSvc, currSvc, validate)
	activitySvc := activity.NewService(db, pgrepos.NewActivityRepository(db), memberSvc, regionSvc, currSvc, validate)
	reportSvc := report.NewService(db, pgrepos.NewReportRepository(db), memberSvc, currSvc, validate)

	hub := realtime.NewHub(conf.Realtime, wsLogger, originChecker(conf.Server.AllowOrigins))
	chatSvc := chat.NewService(db, pgrepos.NewChatRepository(db), memberSvc, hub, validate)
	hub.SetChat(chatSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus collectors of the API and the realtime hub.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			RegionSvc:     regionSvc,
			UserSvc:       usrSvc,
			CurriculumSvc: currSvc,
			MemberSvc:     memberSvc,
			ActivitySvc:   activitySvc,
			ReportSvc:     reportSvc,
			ChatSvc:       chatSvc,
			Hub:           hub,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
	}

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = hub.Shutdown(ctx); err != nil {
		wsLogger.Error(fmt.Sprintf("could not close realtime clients: %v", err), err)
	}

	// asking listener to shutdown and shed load
	if err = server.Shutdown(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

		if err = server.Close(); err != nil {
			logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
		}
	}
}

func newLogger(prefix string, conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, prefix, log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	return logger
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// originChecker accepts websocket handshakes from the CORS origins. A wildcard accepts any origin.
func originChecker(allowed []string) func(r *http.Request) bool {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		origins[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins[origin]
	}
}
