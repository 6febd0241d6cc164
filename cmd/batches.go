package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-xmlfmt/xmlfmt"
	"gorm.io/gorm"
)

// batchFileAliases are the legacy names a batch manifest has shipped under,
// probed in priority order. When none exist the loader falls back to batch.xml
// without checking for it; the miss surfaces later when the manifest is opened.
var batchFileAliases = []string{"batch_1.xml", "BATCH_1.xml", "batchfile_1.xml", "batch_2.xml", "BATCH_2.xml", "batch.xml"}

var batchNameRegex = regexp.MustCompile(`^batch_\w+_\w+_ver\d\d`)

type loadOptions struct {
	strict     bool
	processOCR bool
	email      string
}

// normalizeBatchName strips trailing separators and any leading path from a raw
// batch identifier, then validates the batch_<org>_<name>_verNN form
func normalizeBatchName(name string) (string, error) {
	name = strings.TrimRight(name, "/")
	name = path.Base(name)
	if !batchNameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: unrecognized format for batch name %s", ErrInvalidBatchName, name)
	}
	return name, nil
}

func findBatchFile(batchDir string) string {
	for _, alias := range batchFileAliases {
		if pathExists(path.Join(batchDir, alias)) {
			return alias
		}
	}
	return "batch.xml"
}

func (svc *ServiceContext) batchDir(batchName string) string {
	return path.Join(svc.StorageDir, batchName)
}

// sanityCheckBatch validates the batch directory exists and records which
// manifest filename alias this batch uses
func (svc *ServiceContext) sanityCheckBatch(b *batch) error {
	dir := svc.batchDir(b.Name)
	if !pathExists(dir) {
		return fmt.Errorf("%w: batch does not exist at %s", ErrBatchNotFound, dir)
	}
	b.ManifestFilename = findBatchFile(dir)
	return nil
}

func (svc *ServiceContext) createBatch(batchName string) (*batch, error) {
	var existing int64
	err := svc.GDB.Model(&batch{}).Where("name=?", batchName).Count(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing != 0 {
		return nil, fmt.Errorf("%w: batch %s already loaded", ErrBatchAlreadyLoaded, batchName)
	}

	// the second underscore-delimited segment of the batch name is the awardee org code
	orgCode := strings.SplitN(batchName, "_", 4)[1]
	var aw awardee
	err = svc.GDB.Where("org_code=?", orgCode).First(&aw).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no awardee for org code %s", ErrAwardeeNotFound, orgCode)
		}
		return nil, err
	}

	newBatch := batch{Name: batchName, AwardeeID: aw.ID, Awardee: aw}
	err = svc.GDB.Create(&newBatch).Error
	if err != nil {
		return nil, err
	}
	return &newBatch, nil
}

// loadBatch loads the named batch and returns its record. With strict false, a
// batch that is already loaded is returned immediately as a no-op. Any failure
// after the starting-load event is wrapped in ErrBatchLoadFailed and recorded
// in the audit trail; the batch record may be left partially populated.
func (svc *ServiceContext) loadBatch(name string, opts loadOptions) (*batch, error) {
	batchName, err := normalizeBatchName(name)
	if err != nil {
		return nil, err
	}

	if !opts.strict {
		var existing batch
		err = svc.GDB.Where("name=?", batchName).First(&existing).Error
		if err == nil {
			log.Printf("INFO: batch already loaded: %s", batchName)
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	log.Printf("INFO: loading batch %s", batchName)
	svc.logBatchEvent(batchName, "starting load")

	lc := &loadContext{startedAt: time.Now(), processOCR: opts.processOCR}
	b, loadErr := svc.doLoadBatch(lc, batchName)
	if loadErr != nil {
		msg := fmt.Sprintf("unable to load batch: %s", loadErr.Error())
		log.Printf("ERROR: %s", msg)
		svc.logBatchEvent(batchName, msg)
		return b, fmt.Errorf("%w: %w", ErrBatchLoadFailed, loadErr)
	}
	return b, nil
}

func (svc *ServiceContext) doLoadBatch(lc *loadContext, batchName string) (*batch, error) {
	b, err := svc.createBatch(batchName)
	if err != nil {
		return nil, err
	}
	lc.batch = b
	lc.batchDir = svc.batchDir(batchName)

	if err = svc.sanityCheckBatch(b); err != nil {
		return b, err
	}

	manifest, err := parseBatchManifest(path.Join(lc.batchDir, b.ManifestFilename))
	if err != nil {
		return b, err
	}

	for _, r := range manifest.Reels {
		number := strings.TrimSpace(r.Number)
		if _, err = svc.findOrCreateReel(lc, number, false); err != nil {
			return b, err
		}
	}

	for _, issueRef := range manifest.Issues {
		metsFile := path.Join(lc.batchDir, strings.TrimSpace(issueRef.Path))
		_, issueErr := svc.loadIssue(lc, metsFile)
		if issueErr != nil {
			// an unparseable issue value is logged and skipped; everything
			// else aborts the whole load
			if errors.Is(issueErr, ErrIssueParse) {
				log.Printf("ERROR: %s", issueErr.Error())
				continue
			}
			return b, issueErr
		}
		lc.issuesProcessed++
		lc.issueTimes = append(lc.issueTimes, issueTiming{elapsed: time.Since(lc.startedAt), pages: lc.pagesProcessed})
	}

	if lc.processOCR {
		if err = svc.Solr.commit(); err != nil {
			return b, err
		}
	}

	b.IssueCount = lc.issuesProcessed
	b.PageCount = lc.pagesProcessed
	if err = svc.GDB.Save(b).Error; err != nil {
		return b, err
	}

	svc.logBatchEvent(batchName, fmt.Sprintf("processed %d issues", lc.issuesProcessed))
	lc.logLoadRate()
	return b, nil
}

// purgeBatch deletes every record owned by the named batch and retracts its
// indexed documents. Children are deleted before parents, one page at a time,
// to bound peak memory on large batches.
func (svc *ServiceContext) purgeBatch(batchName string) error {
	svc.logBatchEvent(batchName, "starting purge")
	err := svc.doPurgeBatch(batchName)
	if err != nil {
		msg := fmt.Sprintf("purge failed: %s", err.Error())
		log.Printf("ERROR: %s", msg)
		svc.logBatchEvent(batchName, msg)
		return fmt.Errorf("%w: %w", ErrPurgeFailed, err)
	}
	svc.logBatchEvent(batchName, "purged")
	return nil
}

func (svc *ServiceContext) doPurgeBatch(batchName string) error {
	var b batch
	err := svc.GDB.Where("name=?", batchName).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrBatchNotFound, batchName)
		}
		return err
	}

	var issues []issue
	err = svc.GDB.Where("batch_id=?", b.ID).Find(&issues).Error
	if err != nil {
		return err
	}

	for _, iss := range issues {
		var pages []page
		err = svc.GDB.Where("issue_id=?", iss.ID).FindInBatches(&pages, 100, func(tx *gorm.DB, batchNum int) error {
			for _, p := range pages {
				if delErr := svc.deletePage(&p); delErr != nil {
					return delErr
				}
			}
			return nil
		}).Error
		if err != nil {
			return err
		}
		if err = svc.GDB.Where("issue_id=?", iss.ID).Delete(&issueNote{}).Error; err != nil {
			return err
		}
		if err = svc.GDB.Delete(&issue{}, iss.ID).Error; err != nil {
			return err
		}
	}

	if err = svc.GDB.Where("batch_id=?", b.ID).Delete(&reel{}).Error; err != nil {
		return err
	}
	if err = svc.GDB.Delete(&batch{}, b.ID).Error; err != nil {
		return err
	}

	if err = svc.Solr.deleteByQuery(fmt.Sprintf("batch:%q", b.Name)); err != nil {
		return err
	}
	return svc.Solr.commit()
}

func (svc *ServiceContext) deletePage(p *page) error {
	if err := svc.GDB.Where("page_id=?", p.ID).Delete(&pageNote{}).Error; err != nil {
		return err
	}
	if err := svc.GDB.Where("page_id=?", p.ID).Delete(&ocr{}).Error; err != nil {
		return err
	}
	return svc.GDB.Delete(&page{}, p.ID).Error
}

type batchLoadRequest struct {
	Strict bool   `json:"strict"`
	Email  string `json:"email"`
}

// startBatchLoad kicks off a batch load in the background and returns
// immediately; progress is tracked through the batch event audit trail
func (svc *ServiceContext) startBatchLoad(c *gin.Context) {
	rawName := c.Param("name")
	var req batchLoadRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("ERROR: unable to parse batch load request: %s", err.Error())
			c.String(http.StatusBadRequest, err.Error())
			return
		}
	}

	batchName, err := normalizeBatchName(rawName)
	if err != nil {
		log.Printf("ERROR: load request rejected: %s", err.Error())
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("INFO: received load request for batch %s; strict %t", batchName, req.Strict)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: panic recovered during load of batch %s: %v", batchName, r)
				debug.PrintStack()
			}
		}()
		b, loadErr := svc.loadBatch(batchName, loadOptions{strict: req.Strict, processOCR: svc.ProcessOCR, email: req.Email})
		if req.Email != "" {
			svc.sendLoadResultsEmail(req.Email, batchName, b, loadErr)
		}
	}()

	c.String(http.StatusOK, fmt.Sprintf("load of batch %s started", batchName))
}

func (svc *ServiceContext) startBatchPurge(c *gin.Context) {
	batchName := c.Param("name")
	email := c.Query("email")
	log.Printf("INFO: received purge request for batch %s", batchName)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: panic recovered during purge of batch %s: %v", batchName, r)
				debug.PrintStack()
			}
		}()
		purgeErr := svc.purgeBatch(batchName)
		if email != "" {
			svc.sendPurgeResultsEmail(email, batchName, purgeErr)
		}
	}()
	c.String(http.StatusOK, fmt.Sprintf("purge of batch %s started", batchName))
}

// getBatchManifest returns the batch manifest XML, pretty-printed for human inspection
func (svc *ServiceContext) getBatchManifest(c *gin.Context) {
	batchName, err := normalizeBatchName(c.Param("name"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	dir := svc.batchDir(batchName)
	if !pathExists(dir) {
		c.String(http.StatusNotFound, fmt.Sprintf("batch %s not found", batchName))
		return
	}
	manifestPath := path.Join(dir, findBatchFile(dir))
	xmlBytes, readErr := os.ReadFile(manifestPath)
	if readErr != nil {
		log.Printf("ERROR: unable to read manifest %s: %s", manifestPath, readErr.Error())
		c.String(http.StatusNotFound, readErr.Error())
		return
	}
	pretty := xmlfmt.FormatXML(string(xmlBytes), "", "   ")
	c.Data(http.StatusOK, "text/xml", []byte(pretty))
}
