package model

// Metadata carries biological/authorship context alongside a Model. It is
// optional: a Document with a nil Metadata still round-trips correctly.
type Metadata struct {
	Author      string
	Description string
	Organism    string
	References  []string
}

// Document pairs a Model with its version and optional Metadata. It is the
// unit external collaborators (importers, persistence) hand to this module.
type Document struct {
	Model    *Model
	Version  string
	Metadata *Metadata
}

// NewDocument wraps m with an empty version and no metadata.
func NewDocument(m *Model) *Document {
	return &Document{Model: m}
}
