package osmix

import "github.com/conveyal/osmix-sub003/internal/entity"

// Node, Way, Relation, Tags, Tag, Member and MemberType are re-exported from
// internal/entity so callers never need to import an internal package; the
// alias keeps both packages speaking about one concrete type.
type (
	Node       = entity.Node
	Way        = entity.Way
	Relation   = entity.Relation
	Tags       = entity.Tags
	Tag        = entity.Tag
	Member     = entity.Member
	MemberType = entity.MemberType
)

const (
	MemberNode     = entity.MemberNode
	MemberWay      = entity.MemberWay
	MemberRelation = entity.MemberRelation
)
