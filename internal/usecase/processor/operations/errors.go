package operations

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrNoDimensionConstraint = fmt.Errorf("%w: no dimension constraint supplied", ErrInvalidConfig)
	ErrOverconstrained       = fmt.Errorf("%w: overconstrained: would distort aspect ratio", ErrInvalidConfig)
	ErrNegativeDimension     = fmt.Errorf("%w: clamp dimension must be positive", ErrInvalidConfig)
	ErrEmptyWatermarkText    = fmt.Errorf("%w: empty watermark text", ErrInvalidConfig)

	ErrDecode     = errors.New("failed to decode image")
	ErrEmptyImage = fmt.Errorf("%w: empty image", ErrDecode)
)
