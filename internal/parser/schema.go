// Package parser reads the $TABLE schema language:
//
//	$TABLE Student {
//	    id      Integer key(primary)
//	    name    String
//	}
//	$TABLE Transcript {
//	    studId  Integer key(primary) relation(Student.id)
//	    crsCode String  key(primary)
//	}
//
// Every field marked key(primary) is part of the table's key, in declaration
// order. relation(T.f) declares a foreign key onto field f of table T.
package parser

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/tobsdb/reldb/internal/props"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/internal/types"
	"github.com/tobsdb/reldb/pkg"
)

type Field struct {
	Name       string
	Domain     types.Domain
	Properties map[props.FieldProp]string
}

func (f *Field) IsKey() bool {
	return f.Properties[props.FieldPropKey] == props.KeyPropPrimary
}

// Relation returns the table and field f references.
func (f *Field) Relation() (string, string, bool) {
	relation, ok := f.Properties[props.FieldPropRelation]
	if !ok {
		return "", "", false
	}
	rel_table, rel_field, err := props.ParseRelationPropSafe(relation)
	return rel_table, rel_field, err == nil
}

type Table struct {
	Name   string
	Fields *pkg.InsertSortMap[string, *Field]
}

func (t *Table) Key() []string {
	return pkg.Filter(t.Fields.Sorted, func(name string) bool {
		return t.Fields.Get(name).IsKey()
	})
}

// ForeignKey is the group of fields of one table referencing the same table.
type ForeignKey struct {
	Fields    []string
	RefTable  string
	RefFields []string
}

// ForeignKeys groups t's relations by referenced table, in declaration order.
func (t *Table) ForeignKeys() []ForeignKey {
	fks := []ForeignKey{}
	idx := map[string]int{}
	for _, name := range t.Fields.Sorted {
		rel_table, rel_field, ok := t.Fields.Get(name).Relation()
		if !ok {
			continue
		}
		i, exists := idx[rel_table]
		if !exists {
			i = len(fks)
			idx[rel_table] = i
			fks = append(fks, ForeignKey{RefTable: rel_table})
		}
		fks[i].Fields = append(fks[i].Fields, name)
		fks[i].RefFields = append(fks[i].RefFields, rel_field)
	}
	return fks
}

// Schema converts t into a table schema.
func (t *Table) Schema() (*table.Schema, error) {
	domains := make([]types.Domain, t.Fields.Len())
	for i, name := range t.Fields.Sorted {
		domains[i] = t.Fields.Get(name).Domain
	}
	return table.NewSchema(t.Fields.Sorted, domains, t.Key())
}

type Schema struct {
	Tables *pkg.InsertSortMap[string, *Table]
}

func ParseSchema(schema_data string) (*Schema, error) {
	schema := Schema{Tables: pkg.NewInsertSortMap[string, *Table]()}

	scanner := bufio.NewScanner(strings.NewReader(schema_data))
	line_idx := 0

	var current_table *Table

	for scanner.Scan() {
		line_idx++
		line := strings.TrimSpace(scanner.Text())

		// Ignore empty lines & comments
		if len(line) == 0 || strings.HasPrefix(line, "//") {
			continue
		}

		state, data, err := LineParser(line)
		if err != nil {
			return nil, ParseLineError(line_idx, err.Error())
		}

		switch state {
		case ParserStateTableStart:
			if current_table != nil {
				return nil, ParseLineError(line_idx, fmt.Sprintf("Table %s is not closed", current_table.Name))
			}
			if schema.Tables.Has(data.Name) {
				return nil, ParseLineError(line_idx, fmt.Sprintf("Duplicate table %s", data.Name))
			}
			current_table = &Table{Name: data.Name, Fields: pkg.NewInsertSortMap[string, *Field]()}
		case ParserStateTableEnd:
			if current_table == nil {
				return nil, ParseLineError(line_idx, "Unexpected }")
			}
			if current_table.Fields.Len() == 0 {
				return nil, ParseLineError(line_idx, fmt.Sprintf("Table %s has no fields", current_table.Name))
			}
			if len(current_table.Key()) == 0 {
				return nil, ParseLineError(line_idx, fmt.Sprintf("Table %s has no primary key", current_table.Name))
			}
			schema.Tables.Push(current_table.Name, current_table)
			current_table = nil
		case ParserStateNewField:
			if current_table == nil {
				return nil, ParseLineError(line_idx, fmt.Sprintf("Field %s is outside a table", data.Name))
			}
			if current_table.Fields.Has(data.Name) {
				return nil, ParseLineError(line_idx, fmt.Sprintf("Duplicate field %s", data.Name))
			}
			current_table.Fields.Push(data.Name, &Field{
				Name:       data.Name,
				Domain:     data.Domain,
				Properties: data.Properties,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current_table != nil {
		return nil, fmt.Errorf("Table %s is not closed", current_table.Name)
	}

	if err := ValidateSchemaRelations(&schema); err != nil {
		return nil, err
	}
	return &schema, nil
}

func ParseLineError(line int, reason string) error {
	return fmt.Errorf("Error parsing line %d: %s", line, reason)
}

// ValidateSchemaRelations checks that every relation points at an existing
// field of another table with the same domain.
func ValidateSchemaRelations(schema *Schema) error {
	for _, table_key := range schema.Tables.Sorted {
		t := schema.Tables.Get(table_key)
		for _, field_key := range t.Fields.Sorted {
			field := t.Fields.Get(field_key)
			rel_table_name, rel_field_name, is_relation := field.Relation()
			if !is_relation {
				continue
			}

			invalidRelationError := ThrowInvalidRelationError(table_key, rel_table_name, field_key)

			if rel_table_name == table_key {
				return invalidRelationError("a table cannot reference itself")
			}
			if !schema.Tables.Has(rel_table_name) {
				return invalidRelationError(fmt.Sprintf("\"%s\" is not a valid table", rel_table_name))
			}
			rel_table := schema.Tables.Get(rel_table_name)
			if !rel_table.Fields.Has(rel_field_name) {
				return invalidRelationError(
					fmt.Sprintf("\"%s\" is not a valid field on table %s", rel_field_name, rel_table_name),
				)
			}
			if rel_table.Fields.Get(rel_field_name).Domain != field.Domain {
				return invalidRelationError("field types must match")
			}
		}
	}
	return nil
}

func ThrowInvalidRelationError(table_name, rel_table_name, field_name string) func(string) error {
	return func(reason string) error {
		return fmt.Errorf(
			"Invalid relation between %s and %s in field %s; %s",
			table_name, rel_table_name, field_name, reason,
		)
	}
}

// Order lists the tables so that every table comes after the tables it
// references.
func (s *Schema) Order() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	order := []string{}

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("Relation cycle through table %s", name)
		case done:
			return nil
		}
		state[name] = visiting
		for _, fk := range s.Tables.Get(name).ForeignKeys() {
			if err := visit(fk.RefTable); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range s.Tables.Sorted {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Build creates an empty table for every declared table.
func (s *Schema) Build(ctx *table.Context) (map[string]*table.Table, error) {
	tables := make(map[string]*table.Table, s.Tables.Len())
	for _, name := range s.Tables.Sorted {
		ts, err := s.Tables.Get(name).Schema()
		if err != nil {
			return nil, fmt.Errorf("Table %s: %s", name, err)
		}
		tables[name] = table.New(ctx, name, ts)
	}
	return tables, nil
}
