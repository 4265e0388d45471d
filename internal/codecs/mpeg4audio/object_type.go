package mpeg4audio

// ObjectType is a MPEG-4 Audio object type.
type ObjectType int

// object types.
const (
	ObjectTypeAACMain ObjectType = 1
	ObjectTypeAACLC   ObjectType = 2
	ObjectTypeAACSSR  ObjectType = 3
	ObjectTypeAACLTP  ObjectType = 4
	ObjectTypeSBR     ObjectType = 5
	ObjectTypePS      ObjectType = 29
)
