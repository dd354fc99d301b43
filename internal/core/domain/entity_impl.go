package domain

// Entity implementations.

var (
	_ Entity = Definition{}
	_ Entity = Source{}
	_ Entity = Object{}
	_ Entity = String{}
	_ Entity = Number{}
	_ Entity = Boolean{}
	_ Entity = Observation{}
	_ Entity = Set{}
	_ Entity = Hash{}
	_ Entity = Timestamp{}
	_ Entity = Duration{}
	_ Entity = Vocabulary{}
)

func (d Definition) EntityType() EntityType { return EntityTypeDefinition }
func (d Definition) EntityUUID() string { return d.UUID }
func (d Definition) EntityHash() []byte { return d.Hash }
func (d Definition) EntityOwner() string { return d.ParentUUID }
func (d Definition) EntityCreated() int64 { return d.Created }

func (s Source) EntityType() EntityType { return EntityTypeSource }
func (s Source) EntityUUID() string { return s.UUID }
func (s Source) EntityHash() []byte { return s.Hash }
func (s Source) EntityOwner() string { return s.ParentUUID }
func (s Source) EntityCreated() int64 { return s.Created }

func (o Object) EntityType() EntityType { return EntityTypeObject }
func (o Object) EntityUUID() string { return o.UUID }
func (o Object) EntityHash() []byte { return o.Hash }
func (o Object) EntityOwner() string { return o.ParentUUID }
func (o Object) EntityCreated() int64 { return o.Created }

func (s String) EntityType() EntityType { return EntityTypeString }
func (s String) EntityUUID() string { return s.UUID }
func (s String) EntityHash() []byte { return s.Hash }
func (s String) EntityOwner() string { return s.ObjectUUID }
func (s String) EntityCreated() int64 { return s.Created }

func (n Number) EntityType() EntityType { return EntityTypeNumber }
func (n Number) EntityUUID() string { return n.UUID }
func (n Number) EntityHash() []byte { return n.Hash }
func (n Number) EntityOwner() string { return n.ObjectUUID }
func (n Number) EntityCreated() int64 { return n.Created }

func (b Boolean) EntityType() EntityType { return EntityTypeBoolean }
func (b Boolean) EntityUUID() string { return b.UUID }
func (b Boolean) EntityHash() []byte { return b.Hash }
func (b Boolean) EntityOwner() string { return b.ObjectUUID }
func (b Boolean) EntityCreated() int64 { return b.Created }

func (o Observation) EntityType() EntityType { return EntityTypeObservation }
func (o Observation) EntityUUID() string { return o.UUID }
func (o Observation) EntityHash() []byte { return o.Hash }
func (o Observation) EntityOwner() string { return o.ObjectUUID }
func (o Observation) EntityCreated() int64 { return o.Created }

func (s Set) EntityType() EntityType { return EntityTypeSet }
func (s Set) EntityUUID() string { return s.UUID }
func (s Set) EntityHash() []byte { return s.Hash }
func (s Set) EntityOwner() string { return s.ObjectUUID }
func (s Set) EntityCreated() int64 { return s.Created }

func (h Hash) EntityType() EntityType { return EntityTypeHash }
func (h Hash) EntityUUID() string { return h.UUID }
func (h Hash) EntityHash() []byte { return h.Hash }
func (h Hash) EntityOwner() string { return h.ObjectUUID }
func (h Hash) EntityCreated() int64 { return h.Created }

func (t Timestamp) EntityType() EntityType { return EntityTypeTimestamp }
func (t Timestamp) EntityUUID() string { return t.UUID }
func (t Timestamp) EntityHash() []byte { return t.Hash }
func (t Timestamp) EntityOwner() string { return t.ObjectUUID }
func (t Timestamp) EntityCreated() int64 { return t.Created }

func (d Duration) EntityType() EntityType { return EntityTypeDuration }
func (d Duration) EntityUUID() string { return d.UUID }
func (d Duration) EntityHash() []byte { return d.Hash }
func (d Duration) EntityOwner() string { return d.ObjectUUID }
func (d Duration) EntityCreated() int64 { return d.Created }

func (v Vocabulary) EntityType() EntityType { return EntityTypeVocabulary }
func (v Vocabulary) EntityUUID() string { return v.UUID }
func (v Vocabulary) EntityHash() []byte { return v.Hash }
func (v Vocabulary) EntityOwner() string { return v.ObjectUUID }
func (v Vocabulary) EntityCreated() int64 { return v.Created }

// Derived fields a decoded entity may be missing.

func (d Definition) prepared(now int64) Definition {
	if len(d.Hash) == 0 {
		d.Hash = d.ComputeHash()
	}
	if d.Created == 0 {
		d.Created = now
	}
	return d
}

func (s Source) prepared(now int64) Source {
	if len(s.Hash) == 0 {
		s.Hash = s.ComputeHash()
	}
	if s.Created == 0 {
		s.Created = now
	}
	return s
}

func (o Object) prepared(now int64) Object {
	if len(o.Hash) == 0 {
		o.Hash = o.ComputeHash()
	}
	if o.Created == 0 {
		o.Created = now
	}
	return o
}

func (s String) prepared(now int64) String {
	if len(s.Hash) == 0 {
		s.Hash = s.ComputeHash()
	}
	if s.Created == 0 {
		s.Created = now
	}
	return s
}

func (n Number) prepared(now int64) Number {
	if len(n.Hash) == 0 {
		n.Hash = n.ComputeHash()
	}
	if n.Created == 0 {
		n.Created = now
	}
	return n
}

func (b Boolean) prepared(now int64) Boolean {
	if len(b.Hash) == 0 {
		b.Hash = b.ComputeHash()
	}
	if b.Created == 0 {
		b.Created = now
	}
	return b
}

func (o Observation) prepared(now int64) Observation {
	if len(o.Hash) == 0 {
		o.Hash = o.ComputeHash()
	}
	if o.Created == 0 {
		o.Created = now
	}
	return o
}

func (s Set) prepared(now int64) Set {
	if len(s.Hash) == 0 {
		s.Hash = s.ComputeHash()
	}
	if s.Created == 0 {
		s.Created = now
	}
	return s
}

func (h Hash) prepared(now int64) Hash {
	if len(h.Hash) == 0 {
		h.Hash = h.ComputeHash()
	}
	if h.Created == 0 {
		h.Created = now
	}
	return h
}

func (t Timestamp) prepared(now int64) Timestamp {
	if len(t.Hash) == 0 {
		t.Hash = t.ComputeHash()
	}
	if t.Created == 0 {
		t.Created = now
	}
	return t
}

func (d Duration) prepared(now int64) Duration {
	if len(d.Hash) == 0 {
		d.Hash = d.ComputeHash()
	}
	if d.Created == 0 {
		d.Created = now
	}
	return d
}

func (v Vocabulary) prepared(now int64) Vocabulary {
	if len(v.Hash) == 0 {
		v.Hash = v.ComputeHash()
	}
	if v.Created == 0 {
		v.Created = now
	}
	return v
}
