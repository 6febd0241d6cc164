package main

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// indexTitles pushes a search document for every title record to the index.
// Titles are provisioned outside this service; this is a full reindex that
// runs independently of batch loading.
func (svc *ServiceContext) indexTitles() error {
	log.Printf("INFO: indexing titles")
	var titles []title
	count := 0
	err := svc.GDB.FindInBatches(&titles, 500, func(tx *gorm.DB, batchNum int) error {
		for i := range titles {
			if addErr := svc.Solr.add(titles[i].solrDoc()); addErr != nil {
				return addErr
			}
			count++
		}
		return nil
	}).Error
	if err != nil {
		return err
	}
	if err = svc.Solr.commit(); err != nil {
		return err
	}
	log.Printf("INFO: finished indexing %d titles", count)
	return nil
}

func (svc *ServiceContext) startTitlesIndex(c *gin.Context) {
	log.Printf("INFO: received title indexing request")
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("ERROR: panic recovered during title indexing: %v", r)
				debug.PrintStack()
			}
		}()
		if err := svc.indexTitles(); err != nil {
			log.Printf("ERROR: title indexing failed: %s", err.Error())
		}
	}()
	c.String(http.StatusOK, "title indexing started")
}
