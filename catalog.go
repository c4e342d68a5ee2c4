package access

import (
	"fmt"
	"strings"
)

// Level is the kind of access a permission gates on an object.
type Level string

const (
	LevelReadOnly   Level = "read-only"
	LevelReadEdit   Level = "read-edit"
	LevelFullAccess Level = "full-access"
)

// Scope is the breadth of resources a grant covers. Own, team and all are
// ordered by breadth; unassigned applies only to ownerless resources and is
// not comparable on the same axis.
type Scope string

const (
	ScopeOwn        Scope = "own"
	ScopeTeam       Scope = "team"
	ScopeAll        Scope = "all"
	ScopeUnassigned Scope = "unassigned"
)

var levels = map[Level]struct{}{
	LevelReadOnly:   {},
	LevelReadEdit:   {},
	LevelFullAccess: {},
}

var scopes = map[Scope]struct{}{
	ScopeOwn:        {},
	ScopeTeam:       {},
	ScopeAll:        {},
	ScopeUnassigned: {},
}

// breadth orders own < team < all. Unassigned gets zero: it is evaluated
// independently, never as the broadest grant.
func breadth(s Scope) int {
	switch s {
	case ScopeOwn:
		return 1
	case ScopeTeam:
		return 2
	case ScopeAll:
		return 3
	}
	return 0
}

// Triple is one permission atom: a protected object, an access level and a
// scope. The canonical name is the single source of truth in storage; the
// triple is always derived from it, never persisted separately.
type Triple struct {
	Object string
	Level  Level
	Scope  Scope
}

// Name returns the canonical "{object}_{level}_{scope}" encoding.
func (t Triple) Name() string {
	return t.Object + "_" + string(t.Level) + "_" + string(t.Scope)
}

// ParseName decodes a canonical permission name. Object names never contain
// underscores, so a valid name splits into exactly three fields.
func ParseName(name string) (Triple, error) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 {
		return Triple{}, fmt.Errorf("%w: malformed permission name %q", ErrInvalidInput, name)
	}
	t := Triple{Object: parts[0], Level: Level(parts[1]), Scope: Scope(parts[2])}
	if t.Object == "" {
		return Triple{}, fmt.Errorf("%w: empty object in permission name %q", ErrInvalidInput, name)
	}
	if _, ok := levels[t.Level]; !ok {
		return Triple{}, fmt.Errorf("%w: unknown level %q in permission name %q", ErrInvalidInput, parts[1], name)
	}
	if _, ok := scopes[t.Scope]; !ok {
		return Triple{}, fmt.Errorf("%w: unknown scope %q in permission name %q", ErrInvalidInput, parts[2], name)
	}
	return t, nil
}

// LevelSpec lists the scopes an object supports at one level.
type LevelSpec struct {
	Level  Level
	Scopes []Scope
}

// SystemObjectSpec describes one protected object: its stable name, display
// label and the levels it exposes.
type SystemObjectSpec struct {
	Name   string
	Label  string
	Levels []LevelSpec
}

// Catalog is the compiled-in registry of protected objects. It is an
// immutable value handed to the service at construction; concurrent reads
// need no synchronization.
type Catalog struct {
	objects []SystemObjectSpec
	index   map[string]map[Level][]Scope
}

// NewCatalog builds a catalog from object specs.
func NewCatalog(specs ...SystemObjectSpec) Catalog {
	c := Catalog{
		objects: specs,
		index:   make(map[string]map[Level][]Scope, len(specs)),
	}
	for _, obj := range specs {
		byLevel := make(map[Level][]Scope, len(obj.Levels))
		for _, ls := range obj.Levels {
			byLevel[ls.Level] = ls.Scopes
		}
		c.index[obj.Name] = byLevel
	}
	return c
}

// Objects returns all object specs in declaration order.
func (c Catalog) Objects() []SystemObjectSpec {
	return c.objects
}

// ScopesFor returns the scopes valid for an object at a level. Unknown
// object/level pairs yield an empty result, which callers must treat as
// "unsupported", not "supported with no scopes".
func (c Catalog) ScopesFor(object string, level Level) []Scope {
	return c.index[object][level]
}

var allScopes = []Scope{ScopeOwn, ScopeTeam, ScopeAll, ScopeUnassigned}

func fullLevels() []LevelSpec {
	return []LevelSpec{
		{Level: LevelReadOnly, Scopes: allScopes},
		{Level: LevelReadEdit, Scopes: allScopes},
		{Level: LevelFullAccess, Scopes: allScopes},
	}
}

// DefaultCatalog is the CRM object catalog: every record-type the console
// manages. Activity objects (emails, meetings, calls) have no team sharing
// and no full-access delegation; they stay with their owner.
func DefaultCatalog() Catalog {
	activityLevels := []LevelSpec{
		{Level: LevelReadOnly, Scopes: []Scope{ScopeOwn, ScopeAll}},
		{Level: LevelReadEdit, Scopes: []Scope{ScopeOwn}},
	}
	return NewCatalog(
		SystemObjectSpec{Name: "contacts", Label: "Contacts", Levels: fullLevels()},
		SystemObjectSpec{Name: "companies", Label: "Companies", Levels: fullLevels()},
		SystemObjectSpec{Name: "deals", Label: "Deals", Levels: fullLevels()},
		SystemObjectSpec{Name: "tickets", Label: "Tickets", Levels: fullLevels()},
		SystemObjectSpec{Name: "tasks", Label: "Tasks", Levels: fullLevels()},
		SystemObjectSpec{Name: "emails", Label: "Emails", Levels: activityLevels},
		SystemObjectSpec{Name: "meetings", Label: "Meetings", Levels: activityLevels},
		SystemObjectSpec{Name: "calls", Label: "Calls", Levels: activityLevels},
	)
}
