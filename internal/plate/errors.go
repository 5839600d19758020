package plate

import "errors"

var (
	// ErrCameraUnavailable means the camera device could not be acquired or read.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrEstimationFailed means the estimator returned no usable result.
	ErrEstimationFailed = errors.New("could not estimate nutrition")

	// ErrAnalysisInFlight rejects a new capture while an estimation call is pending.
	ErrAnalysisInFlight = errors.New("an analysis is already in progress")

	// ErrDraftPending rejects a new capture while a draft awaits confirmation.
	ErrDraftPending = errors.New("a draft is awaiting confirmation")

	ErrNoDraft           = errors.New("no draft pending")
	ErrNotEditing        = errors.New("draft is not editing an existing entry")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidServings   = errors.New("servings out of range")
	ErrInvalidDraft      = errors.New("invalid draft")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnknownPreset     = errors.New("unknown water preset")
	ErrInvalidInput      = errors.New("invalid input")

	// ErrReportNotFound means no export exists for the requested day.
	ErrReportNotFound = errors.New("report not found")

	// ErrPassphraseRequired means an encrypted report was fetched without unlocking the key.
	ErrPassphraseRequired = errors.New("passphrase required")

	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrKeysExist       = errors.New("encryption keys already exist")
)
