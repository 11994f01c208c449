package transform

import "errors"

var (
	ErrNoTransforms      = errors.New("no transforms supplied")
	ErrTransformsDiffer  = errors.New("transforms must be identical apart from output")
	ErrPluginUnavailable = errors.New("no factory available for plugin")
	ErrPluginInitFailed  = errors.New("plugin initialisation failed")
	ErrChannelCount      = errors.New("cannot provide enough channels to plugin")
	ErrNoOutputs         = errors.New("plugin has no outputs")
	ErrUnknownOutput     = errors.New("plugin has no output with the requested name")
)
