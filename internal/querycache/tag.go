package querycache

// Tag labels cached data for invalidation. A tag without ID invalidates
// every entry providing that type; a tag with an ID only the entries
// providing exactly that tag.
type Tag struct {
	Type string
	ID   string
}

// TypeTag returns a tag matching every entry of typ.
func TypeTag(typ string) Tag { return Tag{Type: typ} }

// IDTag returns a tag for one entity.
func IDTag(typ, id string) Tag { return Tag{Type: typ, ID: id} }

// Invalidates reports whether invalidating t affects an entry providing p.
func (t Tag) Invalidates(p Tag) bool {
	if t.Type != p.Type {
		return false
	}
	return t.ID == "" || t.ID == p.ID
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

// Tags builds type tags, a shorthand for endpoint definitions.
func Tags(typs ...string) []Tag {
	out := make([]Tag, len(typs))
	for i, typ := range typs {
		out[i] = TypeTag(typ)
	}
	return out
}
