// Package costing classifies discovered AWS resources and estimates their
// cost over an analysis period. It is fed opaque resource records by a
// discovery collaborator and never calls AWS APIs itself.
package costing

// ResourceRecord is one discovered cloud resource as handed over by the
// discovery layer. Records are borrowed: this package only reads them and
// never mutates the metadata bag.
type ResourceRecord struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Type     string            `json:"type,omitempty"`
	Region   string            `json:"region,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Meta returns the metadata value for key, or "" when the bag is nil or the
// key is absent.
func (r ResourceRecord) Meta(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}
