package uuid

import (
	google_uuid "github.com/google/uuid"
)

// UUID wraps google/uuid so that gin can bind it from URI and query
// parameters, which needs the UnmarshalParam method.
type UUID struct {
	google_uuid.UUID
}

var Nil UUID

func New() UUID {
	return UUID{google_uuid.New()}
}

func NewString() string {
	return google_uuid.NewString()
}

// UnmarshalParam implements gin's BindUnmarshaler. An empty parameter
// binds to Nil so that optional query parameters work.
func (u *UUID) UnmarshalParam(p string) error {
	if p == "" {
		*u = Nil
		return nil
	}

	parsed, err := google_uuid.Parse(p)
	if err != nil {
		return err
	}

	*u = UUID{parsed}
	return nil
}
