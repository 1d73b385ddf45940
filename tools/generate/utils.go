package generate

import (
	"encoding/json"

	"github.com/tobsdb/reldb/internal/parser"
	"github.com/tobsdb/reldb/internal/props"
	"github.com/tobsdb/reldb/internal/types"
	"github.com/tobsdb/reldb/pkg"
)

type (
	ParsedTable struct {
		Name   string        `json:"name"`
		Fields []ParsedField `json:"fields"`
		Key    []string      `json:"key"`
	}

	ParsedField struct {
		Name       string                           `json:"name"`
		Domain     types.Domain                     `json:"domain"`
		Properties pkg.Map[props.FieldProp, string] `json:"properties"`
	}
)

func schemaDestructure(s *parser.Schema) []ParsedTable {
	res := []ParsedTable{}
	for _, k := range s.Tables.Sorted {
		t := s.Tables.Get(k)
		fields := []ParsedField{}
		for _, fk := range t.Fields.Sorted {
			f := t.Fields.Get(fk)
			fields = append(fields,
				ParsedField{f.Name, f.Domain, f.Properties})
		}
		res = append(res,
			ParsedTable{t.Name, fields, t.Key()})
	}

	return res
}

// SchemaToJson describes every table of s, in declaration order.
func SchemaToJson(s *parser.Schema) ([]byte, error) {
	return json.MarshalIndent(schemaDestructure(s), "", "  ")
}
