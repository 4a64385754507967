// Package accession derives and rewrites isolate accession numbers.
//
// An accession number has exactly three dash-separated segments:
// collection code, institution code, and the numeric isolate code
// (organism value + isolate id). All formatting and rewriting goes
// through the Accession value type so segment positions are named
// rather than indexed.
package accession

import (
	"fmt"
	"strconv"
	"strings"
)

// Separator joins the three accession segments.
const Separator = "-"

// ErrMalformed is returned when a stored accession string does not
// have exactly three segments.
type ErrMalformed struct {
	Value string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("malformed accession number %q: expected 3 segments", e.Value)
}

// Accession is the parsed form of an accession number.
type Accession struct {
	CollectionCode  string
	InstitutionCode string
	Code            int
}

// Code derives the numeric isolate code from the organism's code-space
// base and the isolate's row id.
func Code(organismValue, isolateID int) int {
	return organismValue + isolateID
}

// Format builds the accession string from its three components.
func Format(collectionCode, institutionCode string, code int) string {
	return strings.Join([]string{collectionCode, institutionCode, strconv.Itoa(code)}, Separator)
}

// Parse splits an accession string into its named segments. A wrong
// segment count or a non-numeric code segment fails with ErrMalformed.
func Parse(s string) (Accession, error) {
	parts := strings.Split(s, Separator)
	if len(parts) != 3 {
		return Accession{}, &ErrMalformed{Value: s}
	}
	code, err := strconv.Atoi(parts[2])
	if err != nil {
		return Accession{}, &ErrMalformed{Value: s}
	}
	return Accession{
		CollectionCode:  parts[0],
		InstitutionCode: parts[1],
		Code:            code,
	}, nil
}

// String formats the accession back into its wire form.
func (a Accession) String() string {
	return Format(a.CollectionCode, a.InstitutionCode, a.Code)
}

// WithCollectionCode returns a copy with the collection segment replaced.
func (a Accession) WithCollectionCode(code string) Accession {
	a.CollectionCode = code
	return a
}

// WithInstitutionCode returns a copy with the institution segment replaced.
func (a Accession) WithInstitutionCode(code string) Accession {
	a.InstitutionCode = code
	return a
}

// WithCode returns a copy with the numeric code segment replaced.
func (a Accession) WithCode(code int) Accession {
	a.Code = code
	return a
}
