package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/sigenerus/sigenerus/core"
	"github.com/sigenerus/sigenerus/core/region"
	"github.com/sigenerus/sigenerus/core/user"
	"github.com/sigenerus/sigenerus/storage/database"
	pgrepos "github.com/sigenerus/sigenerus/storage/database/postgres"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	regionSvc := region.NewService(pgrepos.NewRegionRepository(db), validate)

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(pgrepos.NewUserRepository(db), regionSvc, validate),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
