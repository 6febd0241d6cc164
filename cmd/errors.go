package main

import "errors"

// Failure categories for batch loading and purging. Callers distinguish them
// with errors.Is; most are wrapped in ErrBatchLoadFailed by the time they
// surface from loadBatch.
var (
	ErrInvalidBatchName       = errors.New("invalid batch name")
	ErrBatchNotFound          = errors.New("batch not found")
	ErrBatchAlreadyLoaded     = errors.New("batch already loaded")
	ErrAwardeeNotFound        = errors.New("awardee not found")
	ErrTitleNotFound          = errors.New("title not found")
	ErrMetadataNotFound       = errors.New("descriptive metadata not found")
	ErrIssueParse             = errors.New("issue parse error")
	ErrPageParse              = errors.New("page parse error")
	ErrMissingImageDimensions = errors.New("missing image dimensions")
	ErrBatchLoadFailed        = errors.New("batch load failed")
	ErrPurgeFailed            = errors.New("batch purge failed")
)
