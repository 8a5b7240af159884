package services

import "errors"

// Service-level sentinel errors. Controllers map these onto HTTP statuses.
var (
	ErrCycleNotFound         = errors.New("cycle not found")
	ErrInvalidTransition     = errors.New("invalid cycle status transition")
	ErrNoCycleInProgress     = errors.New("no in-progress cycle found for the requested type")
	ErrCycleAlreadyActive    = errors.New("an in-progress cycle of this type already exists")
	ErrDuplicateEvaluation   = errors.New("evaluation already exists for this pair and cycle")
	ErrEvaluationCycleClosed = errors.New("cycle is not accepting evaluations")
)
