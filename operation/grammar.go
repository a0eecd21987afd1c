package operation

import (
	"fmt"

	"github.com/relux-works/opline/parsing"
)

// states is the command grammar:
//
//	request      := ws* address? (':' operation)? ('(' propertyList ')')?
//	                ('{' headers '}')? ws* ('>' outputTarget)?
//	address      := '/'? segment ('/' segment)* '/'?
//	segment      := nodeType ('=' nodeName)? | '.' | '..' | '.type'
//	propertyList := property (',' property)*
//	property     := '!'? name ('=' value)?
//
// Property values and headers are not typed here; their states only
// track quotes and brackets so that the right ',' or ')' ends them.
type states struct {
	request      *parsing.State
	address      *parsing.State
	nodeType     *parsing.State
	nodeName     *parsing.State
	quotedName   *parsing.State
	operation    *parsing.State
	propertyList *parsing.State
	property     *parsing.State
	value        *parsing.State
	headers      *parsing.State
	outputTarget *parsing.State
	expression   *parsing.State

	// nested regions inside values and headers
	quoted  *parsing.State
	brace   *parsing.State
	bracket *parsing.State
	paren   *parsing.State
}

// grammar is built once; states are never modified after construction.
var grammar = newGrammar()

func newGrammar() *states {
	g := &states{
		request:      parsing.NewState("request"),
		address:      parsing.NewState("address"),
		nodeType:     parsing.NewState("node-type"),
		nodeName:     parsing.NewState("node-name"),
		quotedName:   parsing.NewState("quoted-node-name"),
		operation:    parsing.NewState("operation"),
		propertyList: parsing.NewState("property-list"),
		property:     parsing.NewState("property"),
		value:        parsing.NewState("property-value"),
		headers:      parsing.NewState("headers"),
		outputTarget: parsing.NewState("output-target"),
		expression:   parsing.NewState("expression"),
		quoted:       parsing.NewState("quoted"),
		brace:        parsing.NewState("brace"),
		bracket:      parsing.NewState("bracket"),
		paren:        parsing.NewState("paren"),
	}

	expression := parsing.On("$", parsing.Push(g.expression)).Followed("{")
	space := func(do parsing.Transition) parsing.Rule { return parsing.OnClass(parsing.IsSpace, do) }

	// nested is shared by values and headers: quotes and brackets open
	// regions whose separators are not significant.
	nested := []parsing.Rule{
		parsing.On(`\`, parsing.EscapeNext()),
		parsing.On(`"`, parsing.Push(g.quoted)),
		parsing.On("{", parsing.Push(g.brace)),
		parsing.On("[", parsing.Push(g.bracket)),
		parsing.On("(", parsing.Push(g.paren)),
	}
	region := func(s *parsing.State, open, closer rune) {
		s.Rules = append([]parsing.Rule{parsing.On(string(closer), parsing.Pop())}, nested...)
		s.Unterminated = fmt.Sprintf("unclosed %q", open)
	}
	region(g.brace, '{', '}')
	region(g.bracket, '[', ']')
	region(g.paren, '(', ')')

	g.quoted.Rules = []parsing.Rule{
		parsing.On(`\`, parsing.EscapeNext()),
		parsing.On(`"`, parsing.Pop()),
	}
	g.quoted.Unterminated = "unterminated quoted string"

	g.expression.Rules = []parsing.Rule{
		expression,
		parsing.On("}", parsing.Pop()),
	}
	g.expression.Unterminated = "unclosed expression"

	g.request.Rules = []parsing.Rule{
		space(parsing.Stay()),
		parsing.On(":", parsing.Push(g.operation)),
		parsing.On("(", parsing.Push(g.propertyList)),
		parsing.On("{", parsing.Push(g.headers)),
		parsing.On(">", parsing.Push(g.outputTarget)),
		parsing.On(")}]", parsing.Reject(parsing.ErrStructural, "unbalanced closing bracket")),
	}
	g.request.Default = parsing.Delegate(g.address)

	g.address.Rules = []parsing.Rule{
		parsing.On("/", parsing.Stay()),
		parsing.On("=", parsing.Push(g.nodeName)),
		parsing.On(":({>)}]", parsing.Yield()),
		space(parsing.Yield()),
	}
	g.address.Default = parsing.Delegate(g.nodeType)

	g.nodeType.Rules = []parsing.Rule{
		expression,
		parsing.On("=/:({>)}]", parsing.Yield()),
		space(parsing.Yield()),
	}

	g.nodeName.Rules = []parsing.Rule{
		parsing.On(`"`, parsing.Push(g.quotedName)),
		parsing.On(`\`, parsing.EscapeNext()),
		parsing.On("=", parsing.Reject(parsing.ErrStructural, "unexpected '=' in node name")),
		expression,
		parsing.On("/:({>)}]", parsing.Yield()),
		space(parsing.Yield()),
	}

	g.quotedName.Rules = []parsing.Rule{
		parsing.On(`\`, parsing.EscapeNext()),
		parsing.On(`"`, parsing.Pop()),
	}
	g.quotedName.Unterminated = "unterminated quoted node name"

	g.operation.Rules = []parsing.Rule{
		expression,
		parsing.On("({>/:=)}]", parsing.Yield()),
		space(parsing.Yield()),
	}

	g.propertyList.Rules = []parsing.Rule{
		parsing.On(")", parsing.Pop()),
		parsing.On(",", parsing.Stay()),
		space(parsing.Ignore()),
	}
	g.propertyList.Default = parsing.Delegate(g.property)
	g.propertyList.Unterminated = "unclosed property list"

	g.property.Rules = []parsing.Rule{
		parsing.On("=", parsing.Push(g.value)),
		parsing.On(",)", parsing.Yield()),
		expression,
		space(parsing.Stay()),
	}

	g.value.Rules = append([]parsing.Rule{parsing.On(",)", parsing.Yield())}, nested...)

	g.headers.Rules = append([]parsing.Rule{parsing.On("}", parsing.Pop())}, nested...)
	g.headers.Unterminated = "unclosed header list"

	return g
}

// kindOf maps a name-token state to its token kind.
func (g *states) kindOf(s *parsing.State) (tokenKind, bool) {
	switch s {
	case g.nodeType:
		return tokenNodeType, true
	case g.nodeName:
		return tokenNodeName, true
	case g.operation:
		return tokenOperation, true
	case g.property:
		return tokenProperty, true
	}
	return 0, false
}

// isRegion reports whether s is a quote or bracket region of a value or
// header.
func (g *states) isRegion(s *parsing.State) bool {
	return s == g.quoted || s == g.brace || s == g.bracket || s == g.paren
}
