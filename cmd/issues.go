package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// loadIssue parses one issue METS file, persists the issue and its notes, then
// loads every page beneath the issue division. A page failure is logged and
// skipped; the issue is considered loaded once its own record is saved.
func (svc *ServiceContext) loadIssue(lc *loadContext, metsFile string) (*issue, error) {
	log.Printf("INFO: parsing issue mets file %s", metsFile)
	idx, err := parseMETS(metsFile)
	if err != nil {
		return nil, err
	}

	issueDiv := idx.issueDiv()
	if issueDiv == nil {
		return nil, fmt.Errorf("no np:issue division in %s", metsFile)
	}
	mods, err := idx.descriptiveMetadata(issueDiv.DmdID)
	if err != nil {
		return nil, err
	}

	iss := issue{BatchID: lc.batch.ID}
	iss.Volume = mods.detailNumber("volume")
	iss.Number = mods.detailNumber("issue")
	editionStr := mods.detailNumber("edition")
	iss.Edition, err = strconv.Atoi(editionStr)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse edition from '%s' in %s", ErrIssueParse, editionStr, metsFile)
	}
	iss.EditionLabel = mods.detailCaption("edition")

	dateStr := mods.dateIssued()
	iss.DateIssued, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: could not parse date issued from '%s' in %s", ErrIssueParse, dateStr, metsFile)
	}

	lccn := mods.identifier("lccn")
	var t title
	err = svc.GDB.Where("lccn=?", lccn).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no title with lccn %s for %s", ErrTitleNotFound, lccn, metsFile)
		}
		return nil, err
	}
	iss.TitleID = t.ID
	iss.Title = t

	if err = svc.GDB.Create(&iss).Error; err != nil {
		return nil, err
	}
	log.Printf("INFO: saved issue %s %s ed-%d", t.LCCN, iss.DateIssued.Format("2006-01-02"), iss.Edition)

	for _, n := range mods.allNotes() {
		note := issueNote{IssueID: iss.ID, Type: n.Type, Label: n.Label, Text: n.Text}
		if err = svc.GDB.Create(&note).Error; err != nil {
			return nil, err
		}
		iss.Notes = append(iss.Notes, note)
	}

	for _, pd := range collectPages(issueDiv, "", nil) {
		pageErr := svc.loadPage(lc, idx, pd, &iss)
		// the page counter reflects attempts, not successes
		lc.pagesProcessed++
		if pageErr != nil {
			log.Printf("ERROR: skipping page in %s: %s", metsFile, pageErr.Error())
		}
	}

	return &iss, nil
}
