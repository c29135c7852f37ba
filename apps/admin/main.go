package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/atuch/dojang/core"
	"github.com/atuch/dojang/core/alumno"
	"github.com/atuch/dojang/core/instructor"
	"github.com/atuch/dojang/core/pago"
	"github.com/atuch/dojang/core/user"
	emailsvc "github.com/atuch/dojang/services/email"
	logsvc "github.com/atuch/dojang/services/logger"
	"github.com/atuch/dojang/storage/database"
	"github.com/atuch/dojang/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewStdLogger(os.Stderr, conf, "ADMIN"), conf)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	instructor.InitValidators(validate, translator)
	alumno.InitValidators(validate, translator)
	pago.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)

	// start CLI
	cli := commandLine{
		db:         db,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewService(conf, logger), validate, conf),
		alumnoSvc:  alumno.NewService(sqlxrepos.NewAlumnoRepository(db), validate),
		translator: translator,
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", cli.errorText(err))
		}
		_ = db.Close()
		os.Exit(1)
	}
}
