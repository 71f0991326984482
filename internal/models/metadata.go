// Package models holds the data types that flow through a deployment run:
// image assets, token metadata and deployed contracts.
package models

import "strings"

// URIScheme prefixes every content id that ends up in metadata or token URIs.
const URIScheme = "ipfs://"

// DefaultTraitType is the single attribute every token carries.
const DefaultTraitType = "prestige"

// Attribute is one entry of the metadata attributes list.
type Attribute struct {
	TraitType string `json:"trait_type"`
}

// TokenMetadata is the JSON document uploaded for each token.
type TokenMetadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// MetadataTemplate is the prototype every TokenMetadata is cloned from.
// It is never mutated after construction.
type MetadataTemplate struct {
	name        string
	description string
	image       string
	attributes  []Attribute
}

// NewMetadataTemplate returns the prototype with empty name, description and
// image and a single attribute of the given trait type.
func NewMetadataTemplate(traitType string) MetadataTemplate {
	if traitType == "" {
		traitType = DefaultTraitType
	}
	return MetadataTemplate{attributes: []Attribute{{TraitType: traitType}}}
}

// Attributes returns a copy of the template attributes.
func (t MetadataTemplate) Attributes() []Attribute {
	out := make([]Attribute, len(t.attributes))
	copy(out, t.attributes)
	return out
}

// Clone builds an independent TokenMetadata with the given fields overridden.
// The attributes slice is copied so clones never alias each other.
func (t MetadataTemplate) Clone(name, description, image string) TokenMetadata {
	m := TokenMetadata{
		Name:        t.name,
		Description: t.description,
		Image:       t.image,
		Attributes:  t.Attributes(),
	}
	m.Name = name
	m.Description = description
	m.Image = image
	return m
}

// ContentURI wraps a content id with the storage scheme.
func ContentURI(contentID string) string {
	return URIScheme + contentID
}

// RenderDescription substitutes {name} in tmpl.
func RenderDescription(tmpl, name string) string {
	return strings.ReplaceAll(tmpl, "{name}", name)
}
