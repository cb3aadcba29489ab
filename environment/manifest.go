package environment

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Dependency is a single requirement line of a dependency manifest, e.g.
// "requests==2.31.0" or "aiohttp>=3.9".
type Dependency struct {
	Name     string
	Operator string
	Version  string
}

func (d *Dependency) String() string {
	return d.Name + d.Operator + d.Version
}

// Token codes
const (
	whitespaceCode = iota
	nameCode
	operatorCode
	versionCode
)

// Token definitions
var (
	whitespaceToken = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	nameToken       = parsly.NewToken(nameCode, "Name", newNameMatcher())
	operatorToken   = parsly.NewToken(operatorCode, "Operator", newOperatorMatcher())
	versionToken    = parsly.NewToken(versionCode, "Version", newVersionMatcher())
)

func newNameMatcher() parsly.Matcher     { return &nameMatcher{} }
func newOperatorMatcher() parsly.Matcher { return &operatorMatcher{} }
func newVersionMatcher() parsly.Matcher  { return &versionMatcher{} }

// nameMatcher matches a package name: a letter followed by letters, digits,
// '.', '_' or '-'.
type nameMatcher struct{}

func (m *nameMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && !isDigit(input[pos]) {
		return 0
	}
	matched := 1
	for i := pos + 1; i < size; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '.' || c == '_' || c == '-' {
			matched++
			continue
		}
		break
	}
	return matched
}

// operatorMatcher matches a version constraint operator.
type operatorMatcher struct{}

func (m *operatorMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	switch input[pos] {
	case '=':
		if pos+1 < size && input[pos+1] == '=' {
			return 2
		}
		return 0
	case '~':
		if pos+1 < size && input[pos+1] == '=' {
			return 2
		}
		return 0
	case '>', '<':
		if pos+1 < size && input[pos+1] == '=' {
			return 2
		}
		return 1
	}
	return 0
}

// versionMatcher matches a version spec: digits, letters, '.', '*', '+',
// '!', '-' and '_'.
type versionMatcher struct{}

func (m *versionMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize
	if pos >= size {
		return 0
	}
	matched := 0
	for i := pos; i < size; i++ {
		c := input[i]
		if isLetter(c) || isDigit(c) || c == '.' || c == '*' || c == '+' || c == '!' || c == '-' || c == '_' {
			matched++
			continue
		}
		break
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ParseDependency parses a single requirement line in the format:
// name[operator version]
func ParseDependency(input []byte) (*Dependency, error) {
	cursor := parsly.NewCursor("", input, 0)
	dependency := &Dependency{}

	matched := cursor.MatchAfterOptional(whitespaceToken, nameToken)
	if matched.Code != nameToken.Code {
		return nil, cursor.NewError(nameToken)
	}
	dependency.Name = matched.Text(cursor)

	matched = cursor.MatchAfterOptional(whitespaceToken, operatorToken)
	if matched.Code != operatorToken.Code {
		// A bare name pins no version; nothing may follow it.
		if cursor.Pos < cursor.InputSize {
			return nil, cursor.NewError(operatorToken)
		}
		return dependency, nil
	}
	dependency.Operator = matched.Text(cursor)

	matched = cursor.MatchAfterOptional(whitespaceToken, versionToken)
	if matched.Code != versionToken.Code {
		return nil, cursor.NewError(versionToken)
	}
	dependency.Version = matched.Text(cursor)

	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("unexpected trailing content at position %v in %q", cursor.Pos, input)
	}
	return dependency, nil
}

// ParseManifest parses a dependency manifest: one requirement per line,
// blank lines and '#' comments ignored. A syntactically invalid line fails
// the whole manifest.
func ParseManifest(data []byte) ([]*Dependency, error) {
	var ret []*Dependency
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, " #"); idx != -1 {
			line = strings.TrimSpace(line[:idx])
		}
		dependency, err := ParseDependency([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("invalid manifest line %v: %w", i+1, err)
		}
		ret = append(ret, dependency)
	}
	return ret, nil
}
