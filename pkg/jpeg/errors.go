package jpeg

import "errors"

// ErrFormat is the base error for a malformed or unsupported JPEG byte
// stream. All parse failures in this package wrap it, so callers can
// classify any failure with errors.Is(err, jpeg.ErrFormat).
var ErrFormat = errors.New("invalid jpeg structure")
