package renderer

import "github.com/pkg/errors"

var (
	// ErrSceneNotDefined is returned when no scene is supplied.
	ErrSceneNotDefined = errors.New("renderer: no scene defined")

	// ErrCameraNotDefined is returned when the scene carries no camera.
	ErrCameraNotDefined = errors.New("renderer: no camera defined")

	// ErrZeroResolution is returned when either frame dimension is zero.
	ErrZeroResolution = errors.New("renderer: frame dimensions must be non-zero")

	// ErrNoSamples is returned when the sample-per-pixel count is zero.
	ErrNoSamples = errors.New("renderer: samples per pixel must be non-zero")

	// ErrNoWorkers is returned when a render starts with neither local
	// nor remote workers attached.
	ErrNoWorkers = errors.New("renderer: no workers available")
)
