package session

import "errors"

// notInitializedError rejects generation outside the ready state.
type notInitializedError struct{ state State }

func (e notInitializedError) Error() string {
	if e.state == StateDisposed {
		return "Model not initialized (session disposed)"
	}
	return "Model not initialized"
}

// IsNotInitialized reports whether err rejected a call made outside the ready state.
func IsNotInitialized(err error) bool {
	var e notInitializedError
	return errors.As(err, &e)
}

// modelNotFoundError reports a model path that does not exist.
type modelNotFoundError struct{ path string }

func (e modelNotFoundError) Error() string { return "Model file not found at: " + e.path }

// ErrModelNotFound constructs a modelNotFoundError.
func ErrModelNotFound(path string) error { return modelNotFoundError{path: path} }

// IsModelNotFound reports whether err indicates a missing model file.
func IsModelNotFound(err error) bool {
	var e modelNotFoundError
	return errors.As(err, &e)
}

// initError wraps a failed engine construction or a rejected init request.
type initError struct{ err error }

func (e initError) Error() string { return "Failed to initialize model: " + e.err.Error() }
func (e initError) Unwrap() error { return e.err }

// IsInitError reports whether err is an initialization failure.
func IsInitError(err error) bool {
	var e initError
	return errors.As(err, &e)
}

var (
	errDisposed       = errors.New("session disposed")
	errInitInProgress = errors.New("initialization already in progress")
)

// generationError wraps an engine failure during generation. stream marks
// failures of the chunked replay path.
type generationError struct {
	err    error
	stream bool
}

func (e generationError) Error() string { return "Failed to generate text: " + e.err.Error() }
func (e generationError) Unwrap() error { return e.err }

// IsGenerationError reports whether err is a single-shot generation failure.
func IsGenerationError(err error) bool {
	var e generationError
	return errors.As(err, &e) && !e.stream
}

// IsStreamError reports whether err is a chunked replay failure.
func IsStreamError(err error) bool {
	var e generationError
	return errors.As(err, &e) && e.stream
}
