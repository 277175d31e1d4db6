package dbvalue

import "errors"

// ErrCorrupt is returned (wrapped) when a byte slice handed to
// UnmarshalBinary is too short or internally inconsistent to be a valid
// encoding of the target type.
var ErrCorrupt = errors.New("dbvalue: corrupt encoding")
