package module

import "errors"

// Sentinel kinds for module and registry errors.
var (
	ErrUnnamedModule  = errors.New("module has no name")
	ErrModuleNotFound = errors.New("module not registered")
	ErrMissingExplain = errors.New("module result has no explain text")
)
