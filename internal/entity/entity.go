// Package entity defines the three OSM primitive kinds (spec.md §3). It is
// an internal package so both the columnar stores and the public osmix
// facade can share one definition without an import cycle; osmix re-exports
// these as type aliases.
package entity

import "github.com/conveyal/osmix-sub003/internal/tagstore"

// Tags is re-exported from tagstore so every package speaks the same type.
type Tags = tagstore.Tags

// Tag is a single (key, value) pair.
type Tag = tagstore.Tag

// Node is a point entity.
type Node struct {
	ID   int64
	Lon  float64
	Lat  float64
	Tags Tags
}

// MemberType discriminates the three kinds of relation member.
type MemberType uint8

const (
	MemberNode MemberType = iota
	MemberWay
	MemberRelation
)

func (m MemberType) String() string {
	switch m {
	case MemberNode:
		return "node"
	case MemberWay:
		return "way"
	case MemberRelation:
		return "relation"
	default:
		return "unknown"
	}
}

// Member is one entry of a relation's ordered member list.
type Member struct {
	Type MemberType
	Ref  int64
	Role string
}

// Way is an ordered list of node references.
type Way struct {
	ID   int64
	Refs []int64
	Tags Tags
}

// Relation is a tagged, ordered collection of members.
type Relation struct {
	ID      int64
	Members []Member
	Tags    Tags
}
