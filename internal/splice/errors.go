package splice

import "fmt"

// DecodeError reports that the input could not be read as MP3 audio
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports that the output could not be encoded or written
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// RangeError is returned under OverflowError when the insertion point lies past the end of the input
type RangeError struct {
	InsertAtMs int64
	DurationMs int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("insertion point %d ms is beyond input duration %d ms", e.InsertAtMs, e.DurationMs)
}
