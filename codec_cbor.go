package dirwalk

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// cborHeader only decodes the object id of a directory record.
type cborHeader struct {
	ObjectID *int64 `cbor:"4,keyasint"`
}

var cborEncMode = mustCBOREncMode()

func mustCBOREncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func encodeCBOR(d *Directory) ([]byte, error) {
	p, err := cborEncMode.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("dirwalk: encode cbor record: %w", err)
	}
	return p, nil
}

func decodeCBORID(p []byte) (int64, error) {
	var h cborHeader
	if err := cbor.Unmarshal(p, &h); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if h.ObjectID == nil {
		return 0, fmt.Errorf("%w: cbor record without object id", ErrMalformed)
	}
	return *h.ObjectID, nil
}

func decodeCBOR(p []byte) (*Directory, error) {
	d := new(Directory)
	if err := cbor.Unmarshal(p, d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return d, nil
}
