// Package namepool hands out pseudonymous display names and derives the
// tenant aliases built from them.
package namepool

import (
	"errors"
	"strings"
	"unicode"

	"github.com/okian/teamforge/internal/domain/model"
)

// ErrPoolExhausted is returned by Next when every name has been used.
var ErrPoolExhausted = errors.New("name pool exhausted")

// Pool is an ordered list of pseudonyms with used-name bookkeeping. Names
// are handed out in the order they were added.
type Pool struct {
	names []model.Pseudonym
	used  map[string]struct{}
	next  int
}

// New creates a pool over names.
func New(names []model.Pseudonym) *Pool {
	return &Pool{
		names: names,
		used:  make(map[string]struct{}),
	}
}

// MarkUsed records a full name as taken. Blank names are ignored.
func (p *Pool) MarkUsed(fullName string) {
	if fullName == "" {
		return
	}
	p.used[fullName] = struct{}{}
}

// Next returns the next name that has not been used and marks it used.
func (p *Pool) Next() (model.Pseudonym, error) {
	for p.next < len(p.names) {
		name := p.names[p.next]
		p.next++
		if _, taken := p.used[name.FullName]; taken {
			continue
		}
		p.used[name.FullName] = struct{}{}
		return name, nil
	}
	return model.Pseudonym{}, ErrPoolExhausted
}

// Remaining counts names still available.
func (p *Pool) Remaining() int {
	n := 0
	for _, name := range p.names[p.next:] {
		if _, taken := p.used[name.FullName]; !taken {
			n++
		}
	}
	return n
}

// Size returns the number of names loaded.
func (p *Pool) Size() int { return len(p.names) }

// Alias builds a tenant alias: the alphanumeric characters of the first name
// followed by the first alphanumeric character of the last name. When the
// last name has none, the alias is the cleaned first name alone.
func Alias(name model.Pseudonym) string {
	first := alnum(name.FirstName)
	last := alnum(name.LastName)
	if last == "" {
		return first
	}
	r := []rune(last)
	return first + string(r[0])
}

// PrincipalName returns alias@domain.
func PrincipalName(alias, domain string) string {
	return alias + "@" + domain
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
