package provision

import (
	"errors"

	"appenv/internal/bundle"
	"appenv/internal/pipeline"
	"appenv/internal/stage"
)

// Error kinds, for use with errors.Is.
var (
	ErrConfiguration = bundle.ErrConfiguration
	ErrEnvironmentIO = stage.ErrEnvironmentIO
	ErrExternalTool  = pipeline.ErrExternalTool
	ErrSidecarLaunch = errors.New("sidecar launch failure")
)

// Kind names the category of a provisioning failure for reports.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrEnvironmentIO):
		return "environment-io"
	case errors.Is(err, ErrExternalTool):
		return "external-tool"
	case errors.Is(err, ErrSidecarLaunch):
		return "sidecar"
	default:
		return "unknown"
	}
}
