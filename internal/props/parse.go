package props

import (
	"fmt"
	"strings"
)

func ParseRelationPropSafe(relation string) (string, string, error) {
	parsed_rel := strings.Split(relation, ".")
	if len(parsed_rel) != 2 {
		return "", "", fmt.Errorf("Invalid syntax: relation(%s)", relation)
	}
	table, field := strings.TrimSpace(parsed_rel[0]), strings.TrimSpace(parsed_rel[1])
	if len(table) == 0 || len(field) == 0 {
		return "", "", fmt.Errorf("Invalid syntax: relation(%s)", relation)
	}
	return table, field, nil
}

func ParseKeyPropSafe(value string) error {
	if strings.TrimSpace(value) != KeyPropPrimary {
		return fmt.Errorf("key(%s) is not a valid prop; only key(%s) is supported", value, KeyPropPrimary)
	}
	return nil
}
