package main

import (
	"errors"

	"gorm.io/gorm"
)

// findOrCreateReel resolves a reel by (number, batch), creating it on first
// sight. Reels declared in the batch manifest are created up front; a reel
// first seen in page-level metadata is created on demand and flagged implicit.
// Repeated calls with the same number return the same record.
func (svc *ServiceContext) findOrCreateReel(lc *loadContext, number string, implicit bool) (*reel, error) {
	var r reel
	err := svc.GDB.Where("number=? and batch_id=?", number, lc.batch.ID).First(&r).Error
	if err == nil {
		return &r, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r = reel{Number: number, BatchID: lc.batch.ID, Implicit: implicit}
	if err = svc.GDB.Create(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}
