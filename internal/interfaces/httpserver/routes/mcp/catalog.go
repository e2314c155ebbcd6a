package mcp

import (
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
)

// ToolDescriptor is one entry of the public tool catalog.
type ToolDescriptor struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Catalog lists the tools this server exposes, with JSON schemas derived from
// the same argument structs the MCP handlers decode into.
func Catalog() []ToolDescriptor {
	return []ToolDescriptor{
		{Name: ToolKeySearch, Description: toolDescriptions[ToolKeySearch], InputSchema: inputSchema(SearchArgs{})},
		{Name: ToolKeyFetch, Description: toolDescriptions[ToolKeyFetch], InputSchema: inputSchema(FetchArgs{})},
		{Name: ToolKeyCrawl, Description: toolDescriptions[ToolKeyCrawl], InputSchema: inputSchema(CrawlArgs{})},
	}
}

func inputSchema(args any) *jsonschema.Schema {
	reflector := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(args)
	schema.Version = ""

	// The jsonschema tag carries a plain description for the MCP SDK; copy
	// it onto each property.
	t := reflect.TypeOf(args)
	for i := range t.NumField() {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		description := field.Tag.Get("jsonschema")
		if name == "" || name == "-" || description == "" || schema.Properties == nil {
			continue
		}
		if prop, ok := schema.Properties.Get(name); ok && prop != nil {
			prop.Description = description
		}
	}
	return schema
}
