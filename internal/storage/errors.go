package storage

import "errors"

var (
	// ErrUnknownKind indicates an unrecognized storage kind tag.
	ErrUnknownKind = errors.New("unknown storage kind")

	// ErrUnknownFilterKey indicates a filter referencing a field that does
	// not exist on the record schema. All backends reject it uniformly.
	ErrUnknownFilterKey = errors.New("unknown filter key")
)
