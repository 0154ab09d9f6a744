/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package ast parses JavaScript and TypeScript module sources and extracts
// the information the graph builder needs: triple-slash reference comments,
// static and dynamic import descriptors, and inline type-hint comments.
package ast

import (
	"fmt"
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"bennypowers.dev/grafo/media"
)

// Position is a zero-based line and character offset in a source file.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a span of source text between two positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Diagnostic describes a parse failure in a module source.
type Diagnostic struct {
	Specifier string
	Range     Range
	Message   string
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s at %s:%d:%d", d.Message, d.Specifier, d.Range.Start.Line+1, d.Range.Start.Character+1)
}

// ReferenceKind distinguishes path and types triple-slash references.
type ReferenceKind int

const (
	// PathReference is a /// <reference path="..." /> comment.
	PathReference ReferenceKind = iota
	// TypesReference is a /// <reference types="..." /> comment.
	TypesReference
)

// Reference is a triple-slash reference comment found in a module.
type Reference struct {
	Kind      ReferenceKind
	Specifier string
	Range     Range
}

// DependencyDescriptor is a structural import or re-export found in the
// module body. TypesSpecifier carries an inline type-hint comment
// (@deno-types or @ts-types) attached to the same import, if any.
type DependencyDescriptor struct {
	Specifier      string
	Range          Range
	IsDynamic      bool
	TypesSpecifier string
	TypesRange     Range
}

// ParsedModule is the result of successfully parsing a module source.
type ParsedModule struct {
	Specifier string
	Source    string
	MediaType media.Type

	references  []Reference
	descriptors []DependencyDescriptor
}

// TypeScriptReferences returns the module's triple-slash reference comments
// in document order.
func (p *ParsedModule) TypeScriptReferences() []Reference {
	return p.references
}

// DependencyDescriptors returns the module's structural imports in document
// order.
func (p *ParsedModule) DependencyDescriptors() []DependencyDescriptor {
	return p.descriptors
}

// RangeFromSpan converts a byte-offset span into a displayable range.
func (p *ParsedModule) RangeFromSpan(start, end uint) Range {
	return Range{
		Start: positionAt(p.Source, start),
		End:   positionAt(p.Source, end),
	}
}

func positionAt(source string, offset uint) Position {
	if offset > uint(len(source)) {
		offset = uint(len(source))
	}
	prefix := source[:offset]
	line := strings.Count(prefix, "\n")
	character := int(offset)
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		character = int(offset) - i - 1
	}
	return Position{Line: line, Character: character}
}

var (
	referenceRe = regexp.MustCompile(`^///\s*<reference\s+(path|types)\s*=\s*["']([^"']*)["']`)
	typesHintRe = regexp.MustCompile(`^//\s*@(?:deno|ts)-types\s*=\s*["']([^"']+)["']`)
)

// Parse parses a module source according to its media type.
// JSON modules carry no dependencies and are accepted without parsing.
// A *Diagnostic error is returned when the source will not parse.
func Parse(specifier string, source string, mediaType media.Type) (*ParsedModule, error) {
	parsed := &ParsedModule{
		Specifier: specifier,
		Source:    source,
		MediaType: mediaType,
	}

	if mediaType == media.Json {
		return parsed, nil
	}

	qm, err := GetQueryManager()
	if err != nil {
		return nil, &Diagnostic{Specifier: specifier, Message: err.Error()}
	}

	language := "typescript"
	if mediaType == media.Jsx || mediaType == media.Tsx {
		language = "tsx"
	}

	var parser *ts.Parser
	if language == "tsx" {
		parser = getTSXParser()
		defer putTSXParser(parser)
	} else {
		parser = getTSParser()
		defer putTSParser(parser)
	}

	content := []byte(source)
	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, &Diagnostic{Specifier: specifier, Message: "failed to parse module"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if errNode := findErrorNode(root); errNode != nil {
		return nil, &Diagnostic{
			Specifier: specifier,
			Range:     nodeRange(errNode),
			Message:   "unexpected token",
		}
	}

	parsed.references = analyzeReferences(parsed, root, content)

	query, err := qm.Query(language, "imports")
	if err != nil {
		return nil, &Diagnostic{Specifier: specifier, Message: err.Error()}
	}
	parsed.descriptors = analyzeDependencies(query, root, content)

	return parsed, nil
}

// findErrorNode returns the first ERROR or MISSING node in the tree, if any.
func findErrorNode(node *ts.Node) *ts.Node {
	if !node.HasError() {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := findErrorNode(node.Child(i)); found != nil {
			return found
		}
	}
	return node
}

// analyzeReferences scans top-level comments for triple-slash references.
func analyzeReferences(parsed *ParsedModule, root *ts.Node, content []byte) []Reference {
	var references []Reference
	for i := uint(0); i < root.NamedChildCount(); i++ {
		node := root.NamedChild(i)
		if node.Kind() != "comment" {
			continue
		}
		text := node.Utf8Text(content)
		m := referenceRe.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		kind := PathReference
		if text[m[2]:m[3]] == "types" {
			kind = TypesReference
		}
		start := node.StartByte() + uint(m[4])
		end := node.StartByte() + uint(m[5])
		references = append(references, Reference{
			Kind:      kind,
			Specifier: text[m[4]:m[5]],
			Range:     parsed.RangeFromSpan(start, end),
		})
	}
	return references
}

// analyzeDependencies extracts import and re-export descriptors via the
// imports query, attaching any inline type-hint comment that immediately
// precedes the statement.
func analyzeDependencies(query *ts.Query, root *ts.Node, content []byte) []DependencyDescriptor {
	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	var descriptors []DependencyDescriptor
	matches := cursor.Matches(query, root, content)
	captureNames := query.CaptureNames()

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		var spec, stmt *ts.Node
		var isDynamic bool
		for i := range match.Captures {
			capture := &match.Captures[i]
			switch captureNames[capture.Index] {
			case "import.spec", "reexport.spec":
				spec = &capture.Node
			case "dynamicImport.spec":
				spec = &capture.Node
				isDynamic = true
			case "import.stmt", "reexport.stmt", "dynamicImport.stmt":
				stmt = &capture.Node
			}
		}
		if spec == nil {
			continue
		}

		descriptor := DependencyDescriptor{
			Specifier: spec.Utf8Text(content),
			Range:     nodeRange(spec),
			IsDynamic: isDynamic,
		}

		if stmt != nil {
			if hint := precedingComment(stmt); hint != nil {
				text := hint.Utf8Text(content)
				if m := typesHintRe.FindStringSubmatch(text); m != nil {
					descriptor.TypesSpecifier = m[1]
					descriptor.TypesRange = nodeRange(hint)
				}
			}
		}

		descriptors = append(descriptors, descriptor)
	}

	return descriptors
}

// precedingComment finds the comment immediately before a statement.
// Dynamic imports sit nested inside expressions, so the search walks up
// until an ancestor has a preceding sibling.
func precedingComment(node *ts.Node) *ts.Node {
	for n := node; n != nil; n = n.Parent() {
		if prev := n.PrevSibling(); prev != nil {
			if prev.Kind() == "comment" {
				return prev
			}
			return nil
		}
	}
	return nil
}

func nodeRange(node *ts.Node) Range {
	start := node.StartPosition()
	end := node.EndPosition()
	return Range{
		Start: Position{Line: int(start.Row), Character: int(start.Column)},
		End:   Position{Line: int(end.Row), Character: int(end.Column)},
	}
}
