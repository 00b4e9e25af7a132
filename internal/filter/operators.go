package filter

import (
	"strings"

	"github.com/fetchview/fetchview/internal/metadata"
)

// TypeClass is a bitmask of attribute-type families an operator accepts.
type TypeClass uint8

const (
	ClassText TypeClass = 1 << iota
	ClassNumeric
	ClassDate
	ClassReference
	ClassBoolean
	ClassUUID

	ClassAll = ClassText | ClassNumeric | ClassDate | ClassReference | ClassBoolean | ClassUUID
)

// classOf buckets an attribute type into its operator family.
func classOf(t metadata.AttributeType) TypeClass {
	switch {
	case t.IsText():
		return ClassText
	case t.IsNumeric():
		return ClassNumeric
	case t.IsDate():
		return ClassDate
	case t.IsReference():
		return ClassReference
	case t == metadata.TypeBoolean:
		return ClassBoolean
	default:
		return ClassUUID
	}
}

// Kind selects the compilation strategy for an operator.
type Kind int

const (
	// KindCompare renders as infix comparison: path op value.
	KindCompare Kind = iota
	// KindNull renders as comparison against the null literal.
	KindNull
	// KindFunc renders as an OData string function: func(path,'value').
	KindFunc
	// KindBetween renders as a bracketed pair of comparisons.
	KindBetween
	// KindDateFunc renders as a fully qualified query function:
	// Namespace.Func(PropertyName='path'[,PropertyValue=n]).
	KindDateFunc
)

// Operator is one row of the operator table: the contract between a
// user-facing operator name and its value arity, legal attribute types, and
// wire rendering.
type Operator struct {
	Name    string   // canonical label
	Aliases []string // source-document spellings that map here
	Arity   int      // required values: 0, 1, or 2
	Types   TypeClass
	Kind    Kind
	// Target is the infix operator for KindCompare/KindNull, the function
	// name for KindFunc, or the query-function name for KindDateFunc.
	Target string
	// Negate wraps the rendered fragment in "not " (not-contains).
	Negate bool
	// IntValue forces numeric coercion of the value regardless of the
	// attribute type (the last-x-days family).
	IntValue bool
}

// LegalFor reports whether the operator accepts the given attribute type.
func (o Operator) LegalFor(t metadata.AttributeType) bool {
	return o.Types&classOf(t) != 0
}

// Table is the full operator table. Order is presentation order for
// operator pickers; lookup is by name or alias.
var Table = []Operator{
	{Name: "eq", Arity: 1, Types: ClassAll, Kind: KindCompare, Target: "eq"},
	{Name: "ne", Aliases: []string{"neq"}, Arity: 1, Types: ClassAll, Kind: KindCompare, Target: "ne"},
	{Name: "null", Arity: 0, Types: ClassAll, Kind: KindNull, Target: "eq"},
	{Name: "not-null", Aliases: []string{"notnull"}, Arity: 0, Types: ClassAll, Kind: KindNull, Target: "ne"},

	{Name: "contains", Aliases: []string{"like"}, Arity: 1, Types: ClassText, Kind: KindFunc, Target: "contains"},
	{Name: "not-contains", Aliases: []string{"not-like"}, Arity: 1, Types: ClassText, Kind: KindFunc, Target: "contains", Negate: true},
	{Name: "startswith", Aliases: []string{"begins-with"}, Arity: 1, Types: ClassText, Kind: KindFunc, Target: "startswith"},
	{Name: "endswith", Aliases: []string{"ends-with"}, Arity: 1, Types: ClassText, Kind: KindFunc, Target: "endswith"},

	{Name: "gt", Arity: 1, Types: ClassNumeric | ClassDate, Kind: KindCompare, Target: "gt"},
	{Name: "ge", Arity: 1, Types: ClassNumeric | ClassDate, Kind: KindCompare, Target: "ge"},
	{Name: "lt", Arity: 1, Types: ClassNumeric | ClassDate, Kind: KindCompare, Target: "lt"},
	{Name: "le", Arity: 1, Types: ClassNumeric | ClassDate, Kind: KindCompare, Target: "le"},
	{Name: "between", Arity: 2, Types: ClassNumeric | ClassDate, Kind: KindBetween},
	{Name: "not-between", Arity: 2, Types: ClassNumeric | ClassDate, Kind: KindBetween, Negate: true},

	{Name: "on", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "On"},
	{Name: "on-or-after", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "OnOrAfter"},
	{Name: "on-or-before", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "OnOrBefore"},

	{Name: "today", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "Today"},
	{Name: "yesterday", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "Yesterday"},
	{Name: "tomorrow", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "Tomorrow"},
	{Name: "this-week", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "ThisWeek"},
	{Name: "last-week", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "LastWeek"},
	{Name: "next-week", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "NextWeek"},
	{Name: "this-month", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "ThisMonth"},
	{Name: "last-month", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "LastMonth"},
	{Name: "next-month", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "NextMonth"},
	{Name: "this-year", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "ThisYear"},
	{Name: "last-year", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "LastYear"},
	{Name: "next-year", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "NextYear"},
	{Name: "this-quarter", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "ThisFiscalPeriod"},
	{Name: "last-quarter", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "LastFiscalPeriod"},
	{Name: "next-quarter", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "NextFiscalPeriod"},
	{Name: "this-fiscal-year", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "ThisFiscalYear"},
	{Name: "last-fiscal-year", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "LastFiscalYear"},
	{Name: "next-fiscal-year", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "NextFiscalYear"},
	{Name: "this-fiscal-period", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "ThisFiscalPeriod"},
	{Name: "last-fiscal-period", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "LastFiscalPeriod"},
	{Name: "next-fiscal-period", Arity: 0, Types: ClassDate, Kind: KindDateFunc, Target: "NextFiscalPeriod"},

	{Name: "last-x-days", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "LastXDays", IntValue: true},
	{Name: "next-x-days", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "NextXDays", IntValue: true},
	{Name: "older-than-x-days", Aliases: []string{"olderthan-x-days"}, Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "OlderThanXDays", IntValue: true},
	{Name: "last-x-weeks", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "LastXWeeks", IntValue: true},
	{Name: "next-x-weeks", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "NextXWeeks", IntValue: true},
	{Name: "older-than-x-weeks", Aliases: []string{"olderthan-x-weeks"}, Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "OlderThanXWeeks", IntValue: true},
	{Name: "last-x-months", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "LastXMonths", IntValue: true},
	{Name: "next-x-months", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "NextXMonths", IntValue: true},
	{Name: "older-than-x-months", Aliases: []string{"olderthan-x-months"}, Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "OlderThanXMonths", IntValue: true},
	{Name: "last-x-years", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "LastXYears", IntValue: true},
	{Name: "next-x-years", Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "NextXYears", IntValue: true},
	{Name: "older-than-x-years", Aliases: []string{"olderthan-x-years"}, Arity: 1, Types: ClassDate, Kind: KindDateFunc, Target: "OlderThanXYears", IntValue: true},
}

// FunctionNamespace qualifies KindDateFunc names on the wire.
const FunctionNamespace = "Microsoft.Dynamics.CRM"

var byName = func() map[string]*Operator {
	m := make(map[string]*Operator, len(Table)*2)
	for i := range Table {
		m[Table[i].Name] = &Table[i]
		for _, a := range Table[i].Aliases {
			m[a] = &Table[i]
		}
	}
	return m
}()

// OperatorFor looks up an operator by its canonical name or any source
// spelling, case-insensitively. The second result is false for operators
// outside the table; such conditions are dropped at compile time, never
// rendered as malformed fragments.
func OperatorFor(name string) (Operator, bool) {
	op, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Operator{}, false
	}
	return *op, true
}

// OperatorsFor returns every operator legal for an attribute type, in table
// order.
func OperatorsFor(t metadata.AttributeType) []Operator {
	var out []Operator
	for _, op := range Table {
		if op.LegalFor(t) {
			out = append(out, op)
		}
	}
	return out
}
