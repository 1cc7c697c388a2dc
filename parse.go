// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// A Connection connects a part's pin to a wire in its host chip.
//
type Connection struct {
	Pin  string // pin name in the part's namespace
	Wire string // wire name in the host chip's namespace
}

// BusPinName returns the pin name for the i-th line of a bus.
//
func BusPinName(bus string, i int) string {
	return bus + "[" + strconv.Itoa(i) + "]"
}

// IO expands an input or output specification string into individual pin
// names. Buses are declared with their size:
//
//	IO("a, b[3]") // returns []string{"a", "b[0]", "b[1]", "b[2]"}
//
// IO panics if the specification is invalid.
//
func IO(spec string) []string {
	pins, err := parseIO(spec)
	if err != nil {
		panic(err)
	}
	return pins
}

func parseIO(spec string) ([]string, error) {
	var out []string
	for _, it := range split(spec, ',') {
		if it.s == "" {
			if strings.TrimSpace(spec) == "" {
				return nil, nil
			}
			return nil, parseError(spec, it.pos, "expected pin name")
		}
		name, idx, err := splitIndex(spec, it)
		if err != nil {
			return nil, err
		}
		if idx == "" {
			out = append(out, name)
			continue
		}
		size, err := strconv.Atoi(idx)
		if err != nil || size <= 0 {
			return nil, parseError(spec, it.pos, "invalid bus size "+strconv.Quote(idx))
		}
		for i := 0; i < size; i++ {
			out = append(out, BusPinName(name, i))
		}
	}
	return out, nil
}

// ParseConnections parses a connection string of the form:
//
//	"a=wireA, b[0..3]=bus[4..7], c[0..1]=false, d=bus[0]"
//
// Ranges are expanded into individual connections. If the right hand side is a
// single wire, every pin of the left hand side is connected to it. If the left
// hand side is a single pin, it is connected to every wire of the right hand
// side (output fan-out).
//
func ParseConnections(s string) ([]Connection, error) {
	var conns []Connection
	for _, it := range split(s, ',') {
		if it.s == "" {
			if strings.TrimSpace(s) == "" {
				return nil, nil
			}
			return nil, parseError(s, it.pos, "expected connection")
		}
		i := strings.IndexByte(it.s, '=')
		if i < 0 {
			return nil, parseError(s, it.pos, "expected '=' in connection")
		}
		lhs, err := expandRange(s, item{strings.TrimSpace(it.s[:i]), it.pos})
		if err != nil {
			return nil, err
		}
		rhs, err := expandRange(s, item{strings.TrimSpace(it.s[i+1:]), it.pos + i + 1})
		if err != nil {
			return nil, err
		}
		switch {
		case len(lhs) == len(rhs):
			for k := range lhs {
				conns = append(conns, Connection{lhs[k], rhs[k]})
			}
		case len(rhs) == 1:
			for _, p := range lhs {
				conns = append(conns, Connection{p, rhs[0]})
			}
		case len(lhs) == 1:
			for _, w := range rhs {
				conns = append(conns, Connection{lhs[0], w})
			}
		default:
			return nil, parseError(s, it.pos, "pin count mismatch in "+strconv.Quote(it.s))
		}
	}
	return conns, nil
}

type item struct {
	s   string
	pos int
}

// split splits s around sep and trims each item. Positions are byte offsets of
// the trimmed items in s.
//
func split(s string, sep byte) []item {
	var items []item
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != sep {
			continue
		}
		f := s[start:i]
		lead := len(f) - len(strings.TrimLeftFunc(f, unicode.IsSpace))
		items = append(items, item{strings.TrimSpace(f), start + lead})
		start = i + 1
	}
	return items
}

// splitIndex splits "name[idx]" into "name" and "idx".
//
func splitIndex(in string, it item) (name string, idx string, err error) {
	i := strings.IndexByte(it.s, '[')
	if i < 0 {
		name = it.s
	} else {
		if !strings.HasSuffix(it.s, "]") {
			return "", "", parseError(in, it.pos+len(it.s), "missing closing ']'")
		}
		name, idx = strings.TrimSpace(it.s[:i]), strings.TrimSpace(it.s[i+1:len(it.s)-1])
		if idx == "" {
			return "", "", parseError(in, it.pos+i+1, "empty index")
		}
	}
	if !isIdent(name) {
		return "", "", parseError(in, it.pos, "invalid pin name "+strconv.Quote(name))
	}
	return name, idx, nil
}

// expandRange expands "bus[2..4]" into bus[2], bus[3] and bus[4]. Plain pin
// names and single indices are returned as is.
//
func expandRange(in string, it item) ([]string, error) {
	name, idx, err := splitIndex(in, it)
	if err != nil {
		return nil, err
	}
	if idx == "" {
		return []string{name}, nil
	}
	i := strings.Index(idx, "..")
	if i < 0 {
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return nil, parseError(in, it.pos, "invalid index "+strconv.Quote(idx))
		}
		return []string{BusPinName(name, n)}, nil
	}
	start, err := strconv.Atoi(strings.TrimSpace(idx[:i]))
	if err != nil || start < 0 {
		return nil, parseError(in, it.pos, "invalid range start in "+strconv.Quote(idx))
	}
	end, err := strconv.Atoi(strings.TrimSpace(idx[i+2:]))
	if err != nil || end < start {
		return nil, parseError(in, it.pos, "invalid range end in "+strconv.Quote(idx))
	}
	r := make([]string, 0, end-start+1)
	for n := start; n <= end; n++ {
		r = append(r, BusPinName(name, n))
	}
	return r, nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !(unicode.IsLetter(r) || r == '_' || i > 0 && unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
