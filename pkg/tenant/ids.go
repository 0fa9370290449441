package tenant

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// MaxIDLength is the longest principal or tenant id accepted, in bytes.
const MaxIDLength = 128

var (
	errEmptyID     = errors.New("identifier is empty")
	errIDTooLong   = fmt.Errorf("identifier exceeds %d bytes", MaxIDLength)
	errMalformedID = errors.New("identifier contains whitespace, control or invalid characters")
)

func checkID(id string) error {
	if id == "" {
		return errEmptyID
	}
	if len(id) > MaxIDLength {
		return errIDTooLong
	}
	if !utf8.ValidString(id) {
		return errMalformedID
	}
	for _, r := range id {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return errMalformedID
		}
	}
	return nil
}
