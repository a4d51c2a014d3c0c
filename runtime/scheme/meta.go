package scheme

// Object must be implemented by every type registered with the scheme. Registered objects
// are serialized to the wire, so each of them carries its group and kind along with the payload.
type Object interface {
	GroupKind() GroupKind
	SetGroupKind(gk *GroupKind)
}

// TypeMeta is embedded into contract structs to satisfy Object
type TypeMeta struct {
	Kind  string `json:"kind,omitempty"`
	Group string `json:"group,omitempty"`
}

func (t TypeMeta) GroupKind() GroupKind {
	return GroupKind{Group: Group(t.Group), Kind: t.Kind}
}

func (t *TypeMeta) SetGroupKind(gk *GroupKind) {
	t.Group = gk.Group.String()
	t.Kind = gk.Kind
}
