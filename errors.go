package apriltag

import "errors"

// Sentinel causes underlying the four error categories (spec.md §7).
// ConfigError/InputError/ResourceError wrap one of these; TransientReject
// conditions are never returned as errors — they are counted into the
// profiler via RejectReason and the candidate is silently dropped.
var (
	ErrNegativeThreads  = errors.New("apriltag: nthreads must be >= 1")
	ErrInvalidDecimate  = errors.New("apriltag: quad_decimate must be >= 1")
	ErrInvalidBorder    = errors.New("apriltag: border must be >= 0")
	ErrInvalidDedupEps  = errors.New("apriltag: dedup epsilon must be >= 0")
	ErrNilImage         = errors.New("apriltag: image is nil")
	ErrImageTooSmall    = errors.New("apriltag: image smaller than the minimum size for any registered family")
	ErrAllocationFailed = errors.New("apriltag: scratch allocation failed")
)

// ConfigError wraps a configuration problem returned synchronously from
// NewDetector or Config.Validate (spec.md §7: "unrecognised family,
// negative threads, decimate < 1").
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return "apriltag: config error: " + e.Err.Error() }
func (e *ConfigError) Unwrap() error  { return e.Err }

// InputError wraps a problem with the image passed to Detect (spec.md §7:
// "null image, image smaller than minimum"). Detect returns an empty
// DetectionList alongside this error.
type InputError struct{ Err error }

func (e *InputError) Error() string { return "apriltag: input error: " + e.Err.Error() }
func (e *InputError) Unwrap() error  { return e.Err }

// ResourceError wraps an allocation failure (spec.md §7): fatal, the call
// aborts with no partial results.
type ResourceError struct{ Err error }

func (e *ResourceError) Error() string { return "apriltag: resource error: " + e.Err.Error() }
func (e *ResourceError) Unwrap() error  { return e.Err }

// RejectReason names a per-candidate TransientReject cause (spec.md §7):
// never surfaced as an error, only counted into the profiler on every
// Detect call; Config.Debug additionally logs the per-reason totals.
type RejectReason string

const (
	RejectDegenerateQuad RejectReason = "degenerate_quad"
	RejectQuadFilter      RejectReason = "quad_filter"
	RejectDecodeFailed    RejectReason = "decode_failed"
)
