package pipeline

import "errors"

var (
	// ErrExamNotFound means the referenced exam does not exist.
	ErrExamNotFound = errors.New("exam not found")

	// ErrGenerationFailed means the generative model returned no usable text.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidGeneratedFormat means the model output could not be parsed,
	// even after one repair attempt.
	ErrInvalidGeneratedFormat = errors.New("invalid generated format")

	// ErrPersistenceFailed means a storage write failed.
	ErrPersistenceFailed = errors.New("persistence failed")
)
