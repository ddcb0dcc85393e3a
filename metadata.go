package covault

import "github.com/covault/covault/errors"

// Validate returns an error if the metadata content is invalid. Schema
// versioning starts at 1.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be greater than zero")
	}
	return nil
}

// Copy returns a deep copy of this metadata.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	return &Metadata{Schema: m.Schema}
}
