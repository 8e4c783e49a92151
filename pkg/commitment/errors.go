package commitment

import "github.com/zeroxbridge/sequencer/pkg/errs"

// UnknownHashMethod reports an InvalidInput error for an unrecognized
// HashMethod value.
func UnknownHashMethod(method string) error {
	return errs.InvalidInput("unknown hash method %q", method)
}
