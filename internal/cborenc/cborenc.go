// Package cborenc wraps github.com/fxamacker/cbor with the encoding profile
// used for backend input blobs and cache records.
//
// Encoding follows Core Deterministic Encoding (RFC 8949 §4.2.1) so that the
// same logical value always produces the same bytes; the blob contract
// depends on this. Decoding rejects duplicate map keys and indefinite-length
// items, and bounds container sizes well above anything the fixed predicate
// shape can produce.
package cborenc

import (
	"github.com/fxamacker/cbor/v2"
)

const maxContainerElements = 4096

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		InfConvert:    cbor.InfConvertFloat16,
		IndefLength:   cbor.IndefLengthForbidden,
		NaNConvert:    cbor.NaNConvert7e00,
		ShortestFloat: cbor.ShortestFloat16,
		Sort:          cbor.SortCoreDeterministic,
		TagsMd:        cbor.TagsForbidden,
	}.EncMode()
	if err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		IndefLength:      cbor.IndefLengthForbidden,
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		MaxArrayElements: maxContainerElements,
		MaxMapPairs:      maxContainerElements,
		TagsMd:           cbor.TagsForbidden,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Marshal encodes src deterministically.
func Marshal(src interface{}) ([]byte, error) {
	return encMode.Marshal(src)
}

// Unmarshal decodes CBOR in data into dst.
func Unmarshal(data []byte, dst interface{}) error {
	return decMode.Unmarshal(data, dst)
}
