// Copyright (c) 2020 The Radicle Registry developers

// Distributed under the GNU General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/gpl-3.0.html>

package registry

import (
	"errors"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
)

// IDMaxLength is the maximum byte length of registry identifiers.
const IDMaxLength = 32

// InordinateStringError indicates that a bounded string exceeded its
// maximum length at construction or decoding time.
type InordinateStringError struct {
	MaxLength int
}

func (e *InordinateStringError) Error() string {
	return fmt.Sprintf("string longer than maximum of %d bytes", e.MaxLength)
}

// InordinateVectorError indicates that a bounded byte vector exceeded its
// maximum length at construction or decoding time.
type InordinateVectorError struct {
	MaxLength int
}

func (e *InordinateVectorError) Error() string {
	return fmt.Sprintf("byte vector longer than maximum of %d bytes", e.MaxLength)
}

// ID names users and orgs in the registry. IDs live in one shared
// namespace: an ID claimed for a user cannot be claimed for an org and
// vice versa.
//
// A valid ID is 1 to 32 bytes of lowercase alphanumerics and hyphens,
// contains at least one letter and neither starts nor ends with a hyphen.
type ID struct {
	value string
}

var (
	_ rlp.Encoder = ID{}
	_ rlp.Decoder = (*ID)(nil)
)

// NewID validates s and wraps it into an ID.
func NewID(s string) (ID, error) {
	if err := validateIDString(s); err != nil {
		return ID{}, err
	}
	return ID{value: s}, nil
}

// MustNewID wraps s into an ID, panics if invalid.
func MustNewID(s string) ID {
	id, err := NewID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the raw identifier.
func (id ID) String() string {
	return id.value
}

// IsEmpty reports whether id is the zero value.
func (id ID) IsEmpty() bool {
	return id.value == ""
}

// EncodeRLP implements rlp.Encoder.
func (id ID) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, id.value)
}

// DecodeRLP implements rlp.Decoder. Decoding enforces the same bounds
// as construction, so an inordinate ID never enters the ledger.
func (id *ID) DecodeRLP(s *rlp.Stream) error {
	raw, err := s.Bytes()
	if err != nil {
		return err
	}
	parsed, err := NewID(string(raw))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := NewID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func validateIDString(s string) error {
	if len(s) > IDMaxLength {
		return &InordinateStringError{MaxLength: IDMaxLength}
	}
	if len(s) == 0 {
		return errors.New("id must not be empty")
	}
	if s[0] == '-' || s[len(s)-1] == '-' {
		return errors.New("id must not start or end with a hyphen")
	}
	hasLetter := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			hasLetter = true
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return fmt.Errorf("id contains invalid character %q", c)
		}
	}
	if !hasLetter {
		return errors.New("id must contain at least one letter")
	}
	return nil
}

// ProjectName names a project within its owning org. It obeys the same
// formation rules as ID but is only unique per org.
type ProjectName struct {
	value string
}

var (
	_ rlp.Encoder = ProjectName{}
	_ rlp.Decoder = (*ProjectName)(nil)
)

// NewProjectName validates s and wraps it into a ProjectName.
func NewProjectName(s string) (ProjectName, error) {
	if err := validateIDString(s); err != nil {
		return ProjectName{}, err
	}
	return ProjectName{value: s}, nil
}

// MustNewProjectName wraps s into a ProjectName, panics if invalid.
func MustNewProjectName(s string) ProjectName {
	n, err := NewProjectName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the raw name.
func (n ProjectName) String() string {
	return n.value
}

// EncodeRLP implements rlp.Encoder.
func (n ProjectName) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, n.value)
}

// DecodeRLP implements rlp.Decoder.
func (n *ProjectName) DecodeRLP(s *rlp.Stream) error {
	raw, err := s.Bytes()
	if err != nil {
		return err
	}
	parsed, err := NewProjectName(string(raw))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (n ProjectName) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (n *ProjectName) UnmarshalText(text []byte) error {
	parsed, err := NewProjectName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

// ProjectID uniquely identifies a project as the pair of its owning org
// and its name. Projects have no identity apart from their org.
type ProjectID struct {
	Org  ID
	Name ProjectName
}

// String implements stringer.
func (p ProjectID) String() string {
	return p.Org.String() + "/" + p.Name.String()
}
