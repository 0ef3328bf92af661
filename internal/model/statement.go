package model

import (
	"fmt"
	"strings"
)

// Statement is one equation statement from a catalog. Statements are created by
// the catalog loader and never mutated afterwards.
type Statement struct {
	ID       string            `json:"id" yaml:"id"`                               // Unique within the catalog
	Family   string            `json:"family" yaml:"family"`                       // Grouping tag (e.g., "thermodynamics")
	Left     string            `json:"left" yaml:"left"`                           // Left-hand expression text
	Right    string            `json:"right" yaml:"right"`                         // Right-hand expression text
	Relation Relation          `json:"relation" yaml:"relation"`                   // How left and right are related
	Symbols  map[string]Domain `json:"symbols,omitempty" yaml:"symbols,omitempty"` // Declared symbol domains
	Note     string            `json:"note,omitempty" yaml:"note,omitempty"`       // Free text, e.g. the regime a claim refers to
	Source   string            `json:"source,omitempty" yaml:"source,omitempty"`   // Where the statement came from
}

// DefaultFamily is used for statements that carry no family tag
const DefaultFamily = "uncategorized"

// Domain restricts the values a symbol may take
type Domain string

const (
	DomainComplex  Domain = "complex"
	DomainReal     Domain = "real"
	DomainPositive Domain = "positive"
)

// ParseDomain converts a domain name into a Domain
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complex":
		return DomainComplex, nil
	case "real":
		return DomainReal, nil
	case "positive", "real positive", "positive real":
		return DomainPositive, nil
	default:
		return "", fmt.Errorf("unknown symbol domain %q (want real, positive or complex)", s)
	}
}

// ReservedConstants cannot be declared as symbols
var ReservedConstants = []string{"i", "e", "pi", "π"}

// IsReservedConstant reports whether name is one of the fixed constants
func IsReservedConstant(name string) bool {
	for _, c := range ReservedConstants {
		if name == c {
			return true
		}
	}
	return false
}

// Relation is the declared relation between left and right
type Relation string

const (
	RelationIdentity   Relation = "identity"
	RelationAxiom      Relation = "axiom"
	RelationDefinition Relation = "definition"
	RelationLess       Relation = "<"
	RelationLessEq     Relation = "<="
	RelationGreater    Relation = ">"
	RelationGreaterEq  Relation = ">="
	RelationMuchLess   Relation = "<<"
	RelationMuchMore   Relation = ">>"
	RelationNotEqual   Relation = "!="
	RelationApprox     Relation = "~"
	RelationImplies    Relation = "implies"
)

// RelationKind groups relations by how the prover treats them
type RelationKind string

const (
	KindIdentity  RelationKind = "identity"  // Algebraic identity, proof attempted
	KindAxiom     RelationKind = "axiom"     // Accepted without proof
	KindAssertion RelationKind = "assertion" // Qualitative or regime claim
)

// ParseRelation converts relation text into a Relation. An empty string means identity.
func ParseRelation(s string) (Relation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "identity", "=", "==", "eq":
		return RelationIdentity, nil
	case "axiom":
		return RelationAxiom, nil
	case "definition", "def", ":=":
		return RelationDefinition, nil
	case "<", "lt":
		return RelationLess, nil
	case "<=", "le":
		return RelationLessEq, nil
	case ">", "gt":
		return RelationGreater, nil
	case ">=", "ge":
		return RelationGreaterEq, nil
	case "<<", "much_less":
		return RelationMuchLess, nil
	case ">>", "much_greater":
		return RelationMuchMore, nil
	case "!=", "ne":
		return RelationNotEqual, nil
	case "~", "approx":
		return RelationApprox, nil
	case "implies", "=>":
		return RelationImplies, nil
	default:
		return "", fmt.Errorf("unknown relation %q", s)
	}
}

// Kind returns the treatment class of the relation
func (r Relation) Kind() RelationKind {
	switch r {
	case RelationIdentity, "":
		return KindIdentity
	case RelationAxiom, RelationDefinition:
		return KindAxiom
	default:
		return KindAssertion
	}
}

// Catalog is an ordered, loaded set of statements
type Catalog struct {
	Name       string      `json:"name"`
	Path       string      `json:"path,omitempty"`
	Statements []Statement `json:"statements"`
}
