package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tobsdb/reldb/internal/props"
	"github.com/tobsdb/reldb/internal/types"
	"github.com/tobsdb/reldb/pkg"
)

type LineParserState int

const (
	ParserStateTableStart LineParserState = iota
	ParserStateTableEnd
	ParserStateNewField
	ParserStateIdle
)

type ParserData struct {
	Name       string
	Domain     types.Domain
	Properties map[props.FieldProp]string
}

const (
	table_prefix     = "$TABLE "
	table_prefix_len = len(table_prefix)
)

var (
	name_regexp = regexp.MustCompile(`^\w+$`)
	prop_regexp = regexp.MustCompile(`(\w+)\(([^)]*)\)`)
)

func LineParser(line string) (LineParserState, *ParserData, error) {
	if strings.HasPrefix(line, table_prefix) {
		line := strings.TrimSpace(line[table_prefix_len:])
		if !strings.HasSuffix(line, "{") {
			return ParserStateIdle, nil, errors.New("Invalid line")
		}
		name := strings.TrimSpace(strings.TrimSuffix(line, "{"))
		if len(name) == 0 {
			return ParserStateIdle, nil, errors.New("Invalid line")
		}
		if strings.ContainsAny(name, " \t") {
			return ParserStateIdle, nil, errors.New("Table name cannot include space")
		}
		if !name_regexp.MatchString(name) {
			return ParserStateIdle, nil, errors.New("Table name contains invalid characters")
		}
		return ParserStateTableStart, &ParserData{Name: name}, nil
	} else if line == "}" {
		return ParserStateTableEnd, nil, nil
	}

	splits := pkg.Fields(line)
	if len(splits) == 0 || strings.HasPrefix(line, "$") {
		return ParserStateIdle, nil, errors.New("Invalid line")
	}
	if !name_regexp.MatchString(splits[0]) {
		return ParserStateIdle, nil, errors.New("Field name contains invalid characters")
	}
	if len(splits) < 2 {
		return ParserStateIdle, nil, fmt.Errorf("Field %s does not have a type", splits[0])
	}
	domain, err := types.ParseDomain(splits[1])
	if err != nil {
		return ParserStateIdle, nil, err
	}

	field_props, err := parseRawFieldProps(strings.Join(splits[2:], " "))
	if err != nil {
		return ParserStateIdle, nil, err
	}

	return ParserStateNewField, &ParserData{
		Name:       splits[0],
		Domain:     domain,
		Properties: field_props,
	}, nil
}

func parseRawFieldProps(raw string) (map[props.FieldProp]string, error) {
	field_props := make(map[props.FieldProp]string)

	matches := prop_regexp.FindAllStringSubmatch(raw, -1)
	if leftover := strings.TrimSpace(prop_regexp.ReplaceAllString(raw, "")); len(leftover) > 0 {
		return nil, fmt.Errorf("Invalid field prop: %s", leftover)
	}

	for _, m := range matches {
		prop, value := props.FieldProp(m[1]), strings.TrimSpace(m[2])
		if !prop.IsValid() {
			return nil, fmt.Errorf("Invalid field prop: %s", prop)
		}
		if len(value) == 0 {
			return nil, fmt.Errorf("No value for prop: %s", prop)
		}
		if _, exists := field_props[prop]; exists {
			return nil, fmt.Errorf("Duplicate field prop: %s", prop)
		}

		switch prop {
		case props.FieldPropKey:
			if err := props.ParseKeyPropSafe(value); err != nil {
				return nil, err
			}
		case props.FieldPropRelation:
			if _, _, err := props.ParseRelationPropSafe(value); err != nil {
				return nil, err
			}
		}
		field_props[prop] = value
	}

	return field_props, nil
}
