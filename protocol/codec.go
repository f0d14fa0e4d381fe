package protocol

import (
	libcbr "github.com/fxamacker/cbor/v2"
)

// Marshal encodes a typed payload value into its CBOR wire form, mirroring
// nabbar-golib/encoding/mux's choice of CBOR for compact structured
// payloads over a byte-oriented channel.
func Marshal(v interface{}) ([]byte, error) {
	b, err := libcbr.Marshal(v)
	if err != nil {
		return nil, errWrapMarshal(err)
	}
	return b, nil
}

// Unmarshal decodes a CBOR payload into v.
func Unmarshal(b []byte, v interface{}) error {
	if err := libcbr.Unmarshal(b, v); err != nil {
		return errWrapMarshal(err)
	}
	return nil
}

func errWrapMarshal(err error) error {
	return IoError(err)
}
