package mux

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// defaultVarPattern matches a single path segment.
const defaultVarPattern = `[^/]+`

// Errors returned by ParsePattern.
var (
	ErrUnbalancedGroup     = errors.New("mux: unbalanced optional group")
	ErrUnclosedPlaceholder = errors.New("mux: unclosed placeholder")
	ErrEmptyVarName        = errors.New("mux: empty placeholder name")
	ErrDuplicateVar        = errors.New("mux: duplicated route variable")
)

// PatternVar describes one placeholder of a route path pattern.
type PatternVar struct {
	// Name is the placeholder name.
	Name string

	// Pattern is the regular expression constraint, empty when the
	// placeholder has none.
	Pattern string

	// Optional is true when the placeholder sits inside an optional group.
	Optional bool
}

// Pattern is a parsed route path pattern.
//
// The syntax supports three constructs:
//
//	{name}          placeholder matching one path segment
//	{name<regex>}   placeholder constrained by a regular expression
//	( ... )         optional group, may be nested
//
// For example "/posts(/{page<\d+>})/{slug}" matches both "/posts/hello"
// and "/posts/2/hello".
type Pattern struct {
	raw      string
	template string
	vars     []PatternVar
	re       *regexp.Regexp
	groups   []string
}

// ParsePattern parses a route path pattern. The returned pattern can
// match request paths and report the normalized template.
func ParsePattern(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw}

	var (
		tpl   strings.Builder
		expr  strings.Builder
		depth int
		seen  = make(map[string]bool)
	)

	expr.WriteString("^")

	for i := 0; i < len(raw); {
		switch c := raw[i]; c {
		case '(':
			depth++
			expr.WriteString("(?:")
			i++
		case ')':
			if depth == 0 {
				return nil, fmt.Errorf("%w in %q at offset %d", ErrUnbalancedGroup, raw, i)
			}
			depth--
			expr.WriteString(")?")
			i++
		case '{':
			v, next, err := parsePlaceholder(raw, i)
			if err != nil {
				return nil, err
			}
			if seen[v.Name] {
				return nil, fmt.Errorf("%w %q in %q", ErrDuplicateVar, v.Name, raw)
			}
			seen[v.Name] = true
			v.Optional = depth > 0

			varPattern := v.Pattern
			if varPattern == "" {
				varPattern = defaultVarPattern
			} else if _, err := regexp.Compile(varPattern); err != nil {
				return nil, fmt.Errorf("mux: invalid pattern for %q: %w", v.Name, err)
			}

			group := "v" + strconv.Itoa(len(p.vars))
			p.groups = append(p.groups, group)
			p.vars = append(p.vars, v)

			tpl.WriteString("{" + v.Name + "}")
			expr.WriteString("(?P<" + group + ">" + varPattern + ")")
			i = next
		default:
			j := i
			for j < len(raw) && raw[j] != '(' && raw[j] != ')' && raw[j] != '{' {
				j++
			}
			tpl.WriteString(raw[i:j])
			expr.WriteString(regexp.QuoteMeta(raw[i:j]))
			i = j
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w in %q", ErrUnbalancedGroup, raw)
	}

	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("mux: compile %q: %w", raw, err)
	}

	p.template = tpl.String()
	p.re = re

	return p, nil
}

// parsePlaceholder reads a placeholder starting at raw[start] == '{' and
// returns the offset right after its closing brace.
func parsePlaceholder(raw string, start int) (PatternVar, int, error) {
	var v PatternVar

	i := start + 1
	for i < len(raw) && raw[i] != '}' && raw[i] != '<' {
		i++
	}
	if i >= len(raw) {
		return v, 0, fmt.Errorf("%w in %q at offset %d", ErrUnclosedPlaceholder, raw, start)
	}

	v.Name = strings.TrimSpace(raw[start+1 : i])
	if v.Name == "" {
		return v, 0, fmt.Errorf("%w in %q at offset %d", ErrEmptyVarName, raw, start)
	}

	if raw[i] == '}' {
		return v, i + 1, nil
	}

	// The constraint may itself contain braces, so it ends at ">}".
	end := strings.Index(raw[i+1:], ">}")
	if end < 0 {
		return v, 0, fmt.Errorf("%w in %q at offset %d", ErrUnclosedPlaceholder, raw, start)
	}

	v.Pattern = raw[i+1 : i+1+end]

	return v, i + 1 + end + 2, nil
}

// Raw returns the pattern as it was registered.
func (p *Pattern) Raw() string {
	return p.raw
}

// Template returns the path with optional markers and constraints
// removed, leaving only {name} tokens. "/foo(/{a<\d+>})/{b}" becomes
// "/foo/{a}/{b}".
func (p *Pattern) Template() string {
	return p.template
}

// Vars returns the placeholders in order of first occurrence.
func (p *Pattern) Vars() []PatternVar {
	out := make([]PatternVar, len(p.vars))
	copy(out, p.vars)
	return out
}

// Match reports whether path matches the pattern and returns the values
// of the placeholders that took part in the match.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatchIndex(path)
	if m == nil {
		return nil, false
	}

	if len(p.vars) == 0 {
		return nil, true
	}

	vars := make(map[string]string, len(p.vars))
	for i, group := range p.groups {
		idx := p.re.SubexpIndex(group)
		if idx < 0 || m[2*idx] < 0 {
			continue
		}
		vars[p.vars[i].Name] = path[m[2*idx]:m[2*idx+1]]
	}

	return vars, true
}
