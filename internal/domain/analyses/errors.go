package analyses

import (
	"errors"
	"fmt"
)

// Upper bounds on free-text submission fields, in characters. Every store
// schema is sized to hold them.
const (
	MaxTitleLen        = 100
	MaxDescriptionLen  = 250
	MaxReviewOwnerLen  = 100
	MaxReviewTypeLen   = 32
	MaxDocumentNameLen = 255
)

// Categories. Every concrete error below wraps exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrDependency = errors.New("dependency failure")
)

var (
	ErrTitleRequired       = fmt.Errorf("%w: please enter an analysis name", ErrValidation)
	ErrDescriptionTooShort = fmt.Errorf("%w: workload description needs to be at least 3 characters long", ErrValidation)
	ErrReviewOwnerTooShort = fmt.Errorf("%w: review owner needs to be at least 3 characters long", ErrValidation)
	ErrNoPillars           = fmt.Errorf("%w: please select at least one pillar", ErrValidation)
	ErrNoDocument          = fmt.Errorf("%w: please upload a document", ErrValidation)

	ErrTitleTooLong        = fmt.Errorf("%w: analysis name must be at most %d characters", ErrValidation, MaxTitleLen)
	ErrDescriptionTooLong  = fmt.Errorf("%w: workload description must be at most %d characters", ErrValidation, MaxDescriptionLen)
	ErrReviewOwnerTooLong  = fmt.Errorf("%w: review owner must be at most %d characters", ErrValidation, MaxReviewOwnerLen)
	ErrReviewTypeTooLong   = fmt.Errorf("%w: review type must be at most %d characters", ErrValidation, MaxReviewTypeLen)
	ErrDocumentNameTooLong = fmt.Errorf("%w: document name must be at most %d characters", ErrValidation, MaxDocumentNameLen)

	ErrDuplicateTitle    = fmt.Errorf("%w: workload with the same name already exists", ErrConflict)
	ErrDuplicateWorkload = fmt.Errorf("%w: workload with the same name already exists in the review tool", ErrConflict)

	ErrDuplicateCheck = fmt.Errorf("%w: could not check for duplicate workloads", ErrDependency)
	ErrUpload         = fmt.Errorf("%w: failed to upload document", ErrDependency)
	ErrStartAnalysis  = fmt.Errorf("%w: could not start analysis", ErrDependency)
)

// ErrNotFound is returned by lookups for an unknown analysis id.
var ErrNotFound = errors.New("analysis not found")
