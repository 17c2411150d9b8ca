package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/challenge"
	"github.com/trezcool/darasa/core/project"
	"github.com/trezcool/darasa/core/timetable"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	uploadsvc "github.com/trezcool/darasa/services/upload"
	mongodb "github.com/trezcool/darasa/storage/database/mongo"
)

const shutdownTimeout = 20 * time.Second

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := mongodb.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = mongodb.Close(db); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var fstore core.FileStore
	if conf.Debug {
		fstore, err = uploadsvc.NewLocalStore(filepath.Join(conf.WorkDir, "uploads"), conf.FrontendBaseURL+"/uploads")
	} else {
		fstore, err = uploadsvc.NewS3Store(conf)
	}
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up file store: %v", err), err)
	}

	usrRepo := mongodb.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc)
	chSvc := challenge.NewService(mongodb.NewChallengeRepository(db), usrRepo)
	asgSvc := assignment.NewService(mongodb.NewAssignmentRepository(db), usrRepo)
	prjSvc := project.NewService(mongodb.NewProjectRepository(db), usrRepo, fstore)
	ttSvc := timetable.NewService(mongodb.NewTimetableRepository(db))

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(&echoapi.Options{
		Addr:          conf.ServerAddress(),
		Logger:        logger,
		UserSvc:       usrSvc,
		ChallengeSvc:  chSvc,
		AssignmentSvc: asgSvc,
		ProjectSvc:    prjSvc,
		TimetableSvc:  ttSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
