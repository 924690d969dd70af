package torrent

import "fmt"

// MalformedInputError is returned when the input is not a well-formed
// bencoded descriptor.
type MalformedInputError struct {
	Err error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed torrent: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// CodecError reports a failed text/binary conversion at Path.
type CodecError struct {
	Path  string
	Codec string
	Err   error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("convert %q with codec %s: %v", e.Path, e.Codec, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

// ConfigurationError reports a codec name the registry does not know.
type ConfigurationError struct {
	Codec string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported codec %q", e.Codec)
}

// StructuralMismatchError reports a descriptor whose piece table or file
// layout is inconsistent.
type StructuralMismatchError struct {
	Reason string
}

func (e *StructuralMismatchError) Error() string {
	return "structural mismatch: " + e.Reason
}

func structural(format string, args ...interface{}) error {
	return &StructuralMismatchError{Reason: fmt.Sprintf(format, args...)}
}
