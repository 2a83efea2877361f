// Package main - Atlas GORM migration support binary
package main

import (
	"fmt"

	"ariga.io/atlas-provider-gorm/gormschema"
	"github.com/apex/log"
	"github.com/vetline/refchat/db"
)

func main() {
	stmts, err := gormschema.New("sqlite").Load(
		&db.ChatDBEntry{},
		&db.MessageDBEntry{},
		&db.ChatEventAuditDBEntry{},
	)
	if err != nil {
		log.WithError(err).Fatal("Failed to load GORM models")
	}
	fmt.Printf("%s\n", stmts)
}
