package engine

import (
	"errors"

	"github.com/ivlev/animcompose/internal/composable"
	"github.com/ivlev/animcompose/internal/element"
	"github.com/ivlev/animcompose/internal/encoder"
)

var (
	// ErrPrecondition aborts a run before any work starts, e.g. on insufficient free space.
	ErrPrecondition = errors.New("precondition failure")
	ErrInvalidSpeed = errors.New("speed ratio must be positive")

	ErrResourceLoad      = element.ErrResourceLoad
	ErrUnknownDescriptor = composable.ErrUnknownDescriptor
	ErrEncode            = encoder.ErrEncode
)
