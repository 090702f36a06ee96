package services

import (
	"strconv"

	"github.com/google/uuid"
)

// boqNamespace scopes the name-based ids handed out by an import run.
var boqNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:tenderboq:boq"))

// sectionID is stable for a tender and section number, so repeated runs over
// the same sheet produce identical ids.
func sectionID(tenderID, sectionNumber string) string {
	return uuid.NewSHA1(boqNamespace, []byte(tenderID+"/section/"+sectionNumber)).String()
}

func itemID(tenderID string, rowIndex int) string {
	return uuid.NewSHA1(boqNamespace, []byte(tenderID+"/item/"+strconv.Itoa(rowIndex))).String()
}
