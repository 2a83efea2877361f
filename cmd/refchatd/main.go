// refchatd serves the referee chat HTTP API.
//
// Session verification is delegated to the platform's auth gateway; this
// process trusts the identity headers the gateway injects and must not be
// exposed directly.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/apex/log"
	logjson "github.com/apex/log/handlers/json"
	"github.com/spf13/pflag"
	"github.com/vetline/refchat"
	"github.com/vetline/refchat/apis"
	"github.com/vetline/refchat/collab"
	"github.com/vetline/refchat/config"
	"github.com/vetline/refchat/db"
	"github.com/vetline/refchat/notify"
	gormLogger "gorm.io/gorm/logger"
)

var (
	configFile = pflag.String("config", "", "config file path")
	logDebug   = pflag.Bool("debug", false, "enable debug logging")
	sqlDebug   = pflag.Bool("sql-debug", false, "log SQL statements")
)

func main() {
	pflag.Parse()

	log.SetHandler(logjson.New(os.Stderr))
	log.SetLevel(log.InfoLevel)
	if *logDebug {
		log.SetLevel(log.DebugLevel)
	}
	logTags := log.Fields{"package": "refchat", "module": "cmd", "component": "refchatd"}

	if err := run(); err != nil {
		log.WithError(err).WithFields(logTags).Fatal("refchatd startup failed")
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		return err
	}
	masterSecret, err := config.ReadMasterSecret()
	if err != nil {
		return err
	}

	sqlLogLevel := gormLogger.Error
	if *sqlDebug {
		sqlLogLevel = gormLogger.Info
	}
	dialector := db.GetSqliteDialector(cfg.Database.SqliteFile)

	// Table setup happens before the service touches the database
	persistence, err := db.NewConnection(dialector, sqlLogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialized persistence client [%w]", err)
	}
	if err := persistence.RunSQLInTransaction(ctx, db.DefineTables); err != nil {
		return fmt.Errorf("failed to define database tables [%w]", err)
	}

	email, err := notify.NewEmailDispatcher(ctx, notify.EmailDispatcherParams{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		return fmt.Errorf("failed to initialized email dispatcher [%w]", err)
	}
	whatsapp, err := notify.NewWhatsAppDispatcher(ctx, notify.WhatsAppDispatcherParams{
		AccountSID: cfg.WhatsApp.AccountSID,
		AuthToken:  cfg.WhatsApp.AuthToken,
		FromNumber: cfg.WhatsApp.FromNumber,
	})
	if err != nil {
		return fmt.Errorf("failed to initialized whatsapp dispatcher [%w]", err)
	}

	directory, err := collab.NewDirectoryClient(ctx, collab.DirectoryClientParams{
		BaseURL: cfg.Platform.DirectoryURL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialized platform directory client [%w]", err)
	}

	service, err := refchat.NewChatService(
		ctx,
		dialector,
		sqlLogLevel,
		masterSecret,
		refchat.ServiceCollaborators{Applications: directory, Referees: directory},
		email,
		whatsapp,
		cfg.HTTP.PublicBaseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialized chat service [%w]", err)
	}

	router, err := apis.BuildChatRouter(ctx, service, collab.NewGatewaySessionVerifier())
	if err != nil {
		return fmt.Errorf("failed to build HTTP router [%w]", err)
	}

	listenAddr := fmt.Sprintf("%s:%d", cfg.HTTP.ListenOn, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  time.Second * 60,
		WriteTimeout: time.Second * 60,
	}

	log.WithFields(log.Fields{
		"package": "refchat", "module": "cmd", "component": "refchatd",
	}).Infof("Serving referee chat API on %s", listenAddr)
	return server.ListenAndServe()
}
