package renderer

import "fmt"

// ErrorKind tags every reportable failure a fallible renderer operation can
// return. Programmer errors (nil handles, wrong frame state) are not
// represented here - they panic, per the package's error-handling policy.
type ErrorKind int

const (
	ErrorNone ErrorKind = iota
	ErrorUnknown
	ErrorBackendNotSupported
	ErrorResourceCreationFailed
	ErrorInvalidHandle
	ErrorInvalidParameter
	ErrorShaderCompilationFailed
	ErrorOutOfMemory
	ErrorCommandRecordingFailed
	ErrorFramePreparationFailed
	ErrorPresentationFailed
	ErrorFrameInProgress
	ErrorDeviceError
	ErrorPipelineStateUpdateFailed
	ErrorFileNotFound
	ErrorResourceNotLoaded
)

var errorKindNames = [...]string{
	ErrorNone:                      "none",
	ErrorUnknown:                   "unknown error",
	ErrorBackendNotSupported:       "backend not supported",
	ErrorResourceCreationFailed:    "resource creation failed",
	ErrorInvalidHandle:             "invalid handle",
	ErrorInvalidParameter:          "invalid parameter",
	ErrorShaderCompilationFailed:   "shader compilation failed",
	ErrorOutOfMemory:               "out of memory",
	ErrorCommandRecordingFailed:    "command recording failed",
	ErrorFramePreparationFailed:    "frame preparation failed",
	ErrorPresentationFailed:        "presentation failed",
	ErrorFrameInProgress:           "frame already in progress",
	ErrorDeviceError:               "device error",
	ErrorPipelineStateUpdateFailed: "pipeline state update failed",
	ErrorFileNotFound:              "file not found",
	ErrorResourceNotLoaded:         "resource not loaded",
}

// String returns the stable human-readable name of the error kind.
func (k ErrorKind) String() string {
	if int(k) < 0 || int(k) >= len(errorKindNames) {
		return "invalid error kind"
	}
	return errorKindNames[k]
}

// RendererError wraps an ErrorKind with the underlying cause, if any.
// Every fallible public operation returns one of these (as error) rather
// than panicking or unwinding.
type RendererError struct {
	Kind ErrorKind
	Err  error
}

func (e *RendererError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RendererError) Unwrap() error {
	return e.Err
}

// NewError builds a *RendererError wrapping cause, or a bare kind if cause
// is nil.
func NewError(kind ErrorKind, cause error) *RendererError {
	return &RendererError{Kind: kind, Err: cause}
}

// KindOf extracts the ErrorKind from err if it is (or wraps) a
// *RendererError, otherwise returns ErrorUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	var rerr *RendererError
	if ok := asRendererError(err, &rerr); ok {
		return rerr.Kind
	}
	return ErrorUnknown
}

func asRendererError(err error, target **RendererError) bool {
	for err != nil {
		if rerr, ok := err.(*RendererError); ok {
			*target = rerr
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
