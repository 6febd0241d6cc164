package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// loadContext tracks the state of one batch load or purge. Progress counters
// live here rather than on the service so overlapping or repeated loads in the
// same process cannot interfere with each other.
type loadContext struct {
	batch           *batch
	batchDir        string
	processOCR      bool
	issuesProcessed int
	pagesProcessed  int
	startedAt       time.Time
	issueTimes      []issueTiming
}

// issueTiming is one progress sample: cumulative elapsed time and cumulative
// page count captured after each issue completes
type issueTiming struct {
	elapsed time.Duration
	pages   int
}

// logBatchEvent appends an audit record for a batch load or purge milestone.
// A failure to write the event is logged but never fails the caller; the audit
// trail is best-effort diagnostics, not part of load correctness.
func (svc *ServiceContext) logBatchEvent(batchName string, message string) {
	log.Printf("INFO: [batch %s]: %s", batchName, message)
	evt := loadBatchEvent{BatchName: batchName, Message: message}
	err := svc.GDB.Create(&evt).Error
	if err != nil {
		log.Printf("ERROR: unable to log batch %s event [%s]: %s", batchName, message, err.Error())
	}
}

// logLoadRate writes a human-readable summary of per-issue load progress
func (lc *loadContext) logLoadRate() {
	if len(lc.issueTimes) == 0 {
		return
	}
	last := lc.issueTimes[len(lc.issueTimes)-1]
	secs := last.elapsed.Seconds()
	if secs <= 0 {
		return
	}
	log.Printf("INFO: [batch %s] loaded %d issues / %d pages in %.1f seconds (%.1f pages/min)",
		lc.batch.Name, lc.issuesProcessed, last.pages, secs, float64(last.pages)/secs*60.0)
}

// getBatchEvents returns the audit trail for a batch, oldest first
func (svc *ServiceContext) getBatchEvents(c *gin.Context) {
	name, err := normalizeBatchName(c.Param("name"))
	if err != nil {
		log.Printf("ERROR: events request for invalid batch name: %s", err.Error())
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	var events []loadBatchEvent
	dbErr := svc.GDB.Where("batch_name=?", name).Order("created_at asc").Find(&events).Error
	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			c.String(http.StatusNotFound, "not found")
		} else {
			c.String(http.StatusInternalServerError, dbErr.Error())
		}
		return
	}
	c.JSON(http.StatusOK, events)
}
