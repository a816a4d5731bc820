package gfxtest

import (
	"fmt"
	"regexp"
	"strings"
)

// Member is one field of a GLSL struct or uniform block with its std140
// byte offset.
type Member struct {
	Type   string
	Name   string
	Offset int
}

var memberRE = regexp.MustCompile(`^(\w+)\s+(\w+)\s*;$`)

// base alignment and size of the scalar, vector and matrix types used by
// the shading program.
var std140Types = map[string]struct{ align, size int }{
	"float": {4, 4},
	"int":   {4, 4},
	"uint":  {4, 4},
	"bool":  {4, 4},
	"vec2":  {8, 8},
	"vec3":  {16, 12},
	"vec4":  {16, 16},
	"mat3":  {16, 48},
	"mat4":  {16, 64},
}

// Std140Layout finds the declaration starting with header in src, such as
// "uniform materialBuffer" or "struct PointLight", and lays out its
// members by the std140 rules. size is rounded up to a vec4 as for a
// struct or block. Arrays and nested structs are not supported.
func Std140Layout(src, header string) (members []Member, size int, err error) {
	start := strings.Index(src, header)
	if start < 0 {
		return nil, 0, fmt.Errorf("no %q in source", header)
	}
	open := strings.Index(src[start:], "{")
	end := strings.Index(src[start:], "}")
	if open < 0 || end < open {
		return nil, 0, fmt.Errorf("%q has no body", header)
	}

	offset := 0
	for _, line := range strings.Split(src[start+open+1:start+end], "\n") {
		if i := strings.Index(line, "//"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := memberRE.FindStringSubmatch(line)
		if m == nil {
			return nil, 0, fmt.Errorf("%q: cannot parse member %q", header, line)
		}
		t, ok := std140Types[m[1]]
		if !ok {
			return nil, 0, fmt.Errorf("%q: unsupported type %q", header, m[1])
		}
		offset = roundUp(offset, t.align)
		members = append(members, Member{Type: m[1], Name: m[2], Offset: offset})
		offset += t.size
	}
	return members, roundUp(offset, 16), nil
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}
