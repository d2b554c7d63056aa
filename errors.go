package texmod

import "errors"

var (
	// ErrGeometry is returned when pixel data does not match the declared
	// width and height. Nothing is mutated when it is reported.
	ErrGeometry = errors.New("texmod: pixel data does not match dimensions")

	// ErrUnsupportedFormat is returned for a PixelFormat the encoder cannot produce.
	ErrUnsupportedFormat = errors.New("texmod: unsupported pixel format")

	// ErrUnsupportedOutput is returned when the configured encoder cannot
	// serve the selected output kind.
	ErrUnsupportedOutput = errors.New("texmod: unsupported output kind")
)
