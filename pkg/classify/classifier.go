package classify

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Kind tells whether a classifier partitions constraints or variables.
type Kind int

const (
	Conss Kind = iota
	Vars
)

// String returns "conss" or "vars".
func (k Kind) String() string {
	if k == Vars {
		return "vars"
	}
	return "conss"
}

// Role hints where the members of a class may be placed.
type Role int

const (
	// RoleAny leaves the decision to the detector.
	RoleAny Role = iota
	// RoleMaster marks constraints that belong in the master, or variables
	// that are master-only.
	RoleMaster
	// RoleBlock marks items that should stay inside blocks.
	RoleBlock
	// RoleLinking marks variables that should couple blocks.
	RoleLinking
)

var roleNames = [...]string{"any", "master", "block", "linking"}

// String returns the role name.
func (r Role) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// Classifier assigns every constraint (Kind Conss) or variable (Kind Vars)
// of an index to one class. ClassOf is indexed by item; the per-class slices
// are indexed by class id.
type Classifier struct {
	Kind              Kind
	Name              string
	ClassNames        []string
	ClassDescriptions []string
	Roles             []Role
	ClassOf           []int
}

// NClasses returns the number of classes.
func (c *Classifier) NClasses() int { return len(c.ClassNames) }

// NItems returns the number of classified items.
func (c *Classifier) NItems() int { return len(c.ClassOf) }

// Sizes returns the number of members per class.
func (c *Classifier) Sizes() []int {
	sizes := make([]int, c.NClasses())
	for _, k := range c.ClassOf {
		sizes[k]++
	}
	return sizes
}

// Members returns the ascending items of class k.
func (c *Classifier) Members(k int) []int {
	var out []int
	for i, cl := range c.ClassOf {
		if cl == k {
			out = append(out, i)
		}
	}
	return out
}

// String renders "name (kind, n classes)".
func (c *Classifier) String() string {
	return fmt.Sprintf("%s (%s, %d classes)", c.Name, c.Kind, c.NClasses())
}

// Reduce returns a classifier with at most limit classes. The limit-1 largest
// classes are kept (ties by lower class id) and all others merge into one
// class with role RoleAny. c itself is returned when it is small enough.
func (c *Classifier) Reduce(limit int) *Classifier {
	n := c.NClasses()
	if limit < 1 || n <= limit {
		return c
	}
	sizes := c.Sizes()
	order := make([]int, n)
	for k := range order {
		order[k] = k
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(sizes[b], sizes[a]) })

	keep := order[:limit-1]
	slices.Sort(keep)
	remap := make([]int, n)
	for k := range remap {
		remap[k] = limit - 1
	}
	out := &Classifier{Kind: c.Kind, Name: c.Name, ClassOf: make([]int, len(c.ClassOf))}
	var merged []string
	for i, k := range keep {
		remap[k] = i
		out.ClassNames = append(out.ClassNames, c.ClassNames[k])
		out.ClassDescriptions = append(out.ClassDescriptions, c.ClassDescriptions[k])
		out.Roles = append(out.Roles, c.Roles[k])
	}
	for _, k := range order[limit-1:] {
		merged = append(merged, c.ClassNames[k])
	}
	slices.Sort(merged)
	out.ClassNames = append(out.ClassNames, "merged")
	out.ClassDescriptions = append(out.ClassDescriptions, "merged classes: "+strings.Join(merged, ", "))
	out.Roles = append(out.Roles, RoleAny)
	for i, k := range c.ClassOf {
		out.ClassOf[i] = remap[k]
	}
	return out
}

// builder assigns class ids in order of first appearance of a key.
type builder struct {
	c    *Classifier
	byID map[string]int
}

func newBuilder(kind Kind, name string, n int) *builder {
	return &builder{
		c:    &Classifier{Kind: kind, Name: name, ClassOf: make([]int, n)},
		byID: make(map[string]int),
	}
}

func (b *builder) assign(item int, key, desc string, role Role) {
	k, ok := b.byID[key]
	if !ok {
		k = len(b.c.ClassNames)
		b.byID[key] = k
		b.c.ClassNames = append(b.c.ClassNames, key)
		b.c.ClassDescriptions = append(b.c.ClassDescriptions, desc)
		b.c.Roles = append(b.c.Roles, role)
	}
	b.c.ClassOf[item] = k
}
