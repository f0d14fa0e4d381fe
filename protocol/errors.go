package protocol

import (
	"github.com/sabouaram/codexec/errtax"
)

// Codec-level failures, as enumerated by spec.md §4.L.
var (
	ErrBadMagic        = errtax.InvalidArgument.Errorf("bad magic")
	ErrBadChecksum     = errtax.InvalidArgument.Errorf("bad header checksum")
	ErrPayloadTooLarge = errtax.QuotaExceeded.Errorf("payload exceeds %d bytes", MaxPayload)
	ErrUnknownType     = errtax.InvalidArgument.Errorf("unknown message type")
	ErrTruncated       = errtax.Network.Errorf("truncated message")
)

// IoError wraps an underlying transport error (spec.md's Io(inner)
// failure mode) in the taxonomy's Network kind.
func IoError(err error) errtax.Error {
	if err == nil {
		return nil
	}
	return errtax.Network.Error(err)
}
