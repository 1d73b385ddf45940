package parser_test

import (
	"testing"

	. "github.com/tobsdb/reldb/internal/parser"
	"github.com/tobsdb/reldb/internal/props"
	"github.com/tobsdb/reldb/internal/types"
	"gotest.tools/assert"
)

const REGISTRATION_SCHEMA = `
// student registration
$TABLE Student {
    id      Integer key(primary)
    name    String
    address String
    status  String
}

$TABLE Professor {
    id     Integer key(primary)
    name   String
    deptId String
}

$TABLE Course {
    crsCode String key(primary)
    deptId  String
    crsName String
    descr   String
}

$TABLE Teaching {
    crsCode  String  key(primary) relation(Course.crsCode)
    semester String  key(primary)
    profId   Integer relation(Professor.id)
}

$TABLE Transcript {
    studId   Integer key(primary) relation(Student.id)
    crsCode  String  key(primary) relation(Teaching.crsCode)
    semester String  key(primary) relation(Teaching.semester)
    grade    Char
}
`

func TestLineParser(t *testing.T) {
	t.Run("table declaration", func(t *testing.T) {
		state, data, err := LineParser("$TABLE a {")

		assert.NilError(t, err)
		assert.Equal(t, state, ParserStateTableStart)
		assert.Equal(t, data.Name, "a")
	})

	t.Run("table missing name", func(t *testing.T) {
		state, _, err := LineParser("$TABLE {")

		assert.ErrorContains(t, err, "Invalid line")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table declaration missing opening bracket", func(t *testing.T) {
		state, _, err := LineParser("$TABLE a")

		assert.ErrorContains(t, err, "Invalid line")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table name with space", func(t *testing.T) {
		state, _, err := LineParser("$TABLE a b {")

		assert.ErrorContains(t, err, "Table name cannot include space")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table name invalid character", func(t *testing.T) {
		state, _, err := LineParser("$TABLE a-b {")

		assert.ErrorContains(t, err, "Table name contains invalid characters")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("table declaration end", func(t *testing.T) {
		state, _, err := LineParser("}")

		assert.NilError(t, err)
		assert.Equal(t, state, ParserStateTableEnd)
	})

	t.Run("field declaration", func(t *testing.T) {
		state, data, err := LineParser("a Int key(primary) relation(b.c)")

		assert.NilError(t, err)
		assert.Equal(t, state, ParserStateNewField)
		assert.Equal(t, data.Name, "a")
		assert.Equal(t, data.Domain, types.DomainInteger)
		assert.Equal(t, data.Properties[props.FieldPropKey], "primary")
		assert.Equal(t, data.Properties[props.FieldPropRelation], "b.c")
	})

	t.Run("field name invalid character", func(t *testing.T) {
		state, _, err := LineParser("a-b Int")

		assert.ErrorContains(t, err, "Field name contains invalid characters")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("field declaration without type", func(t *testing.T) {
		state, _, err := LineParser("a")

		assert.ErrorContains(t, err, "Field a does not have a type")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("field declaration with unknown type", func(t *testing.T) {
		state, _, err := LineParser("a Number")

		assert.ErrorContains(t, err, "Invalid domain: Number")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("unknown field prop", func(t *testing.T) {
		state, _, err := LineParser("a Int x(true)")

		assert.ErrorContains(t, err, "Invalid field prop: x")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("junk after type", func(t *testing.T) {
		_, _, err := LineParser("a Int primary")
		assert.ErrorContains(t, err, "Invalid field prop: primary")
	})

	t.Run("field prop with no value", func(t *testing.T) {
		state, _, err := LineParser("a Int key()")

		assert.ErrorContains(t, err, "No value for prop: key")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("invalid field prop value", func(t *testing.T) {
		state, _, err := LineParser("a Int key(unique)")

		assert.ErrorContains(t, err, "key(unique) is not a valid prop")
		assert.Equal(t, state, ParserStateIdle)
	})

	t.Run("invalid relation", func(t *testing.T) {
		_, _, err := LineParser("a Int relation(b)")
		assert.ErrorContains(t, err, "Invalid syntax: relation(b)")
	})
}

func TestParseSchema(t *testing.T) {
	t.Run("registration", func(t *testing.T) {
		schema, err := ParseSchema(REGISTRATION_SCHEMA)
		assert.NilError(t, err)
		assert.DeepEqual(t, schema.Tables.Sorted,
			[]string{"Student", "Professor", "Course", "Teaching", "Transcript"})

		transcript := schema.Tables.Get("Transcript")
		assert.DeepEqual(t, transcript.Key(), []string{"studId", "crsCode", "semester"})
		assert.DeepEqual(t, transcript.ForeignKeys(), []ForeignKey{
			{Fields: []string{"studId"}, RefTable: "Student", RefFields: []string{"id"}},
			{Fields: []string{"crsCode", "semester"}, RefTable: "Teaching", RefFields: []string{"crsCode", "semester"}},
		})

		ts, err := transcript.Schema()
		assert.NilError(t, err)
		assert.DeepEqual(t, ts.Names(), []string{"studId", "crsCode", "semester", "grade"})
		assert.Equal(t, ts.Attributes[3].Domain, types.DomainCharacter)
	})

	t.Run("order", func(t *testing.T) {
		schema, err := ParseSchema(REGISTRATION_SCHEMA)
		assert.NilError(t, err)
		order, err := schema.Order()
		assert.NilError(t, err)
		pos := map[string]int{}
		for i, name := range order {
			pos[name] = i
		}
		assert.Equal(t, len(order), 5)
		assert.Assert(t, pos["Course"] < pos["Teaching"])
		assert.Assert(t, pos["Professor"] < pos["Teaching"])
		assert.Assert(t, pos["Teaching"] < pos["Transcript"])
		assert.Assert(t, pos["Student"] < pos["Transcript"])
	})

	t.Run("cycle", func(t *testing.T) {
		schema, err := ParseSchema(`
$TABLE a {
    id Int key(primary)
    b  Int relation(b.id)
}
$TABLE b {
    id Int key(primary)
    a  Int relation(a.id)
}`)
		assert.NilError(t, err)
		_, err = schema.Order()
		assert.ErrorContains(t, err, "Relation cycle")
	})

	t.Run("build", func(t *testing.T) {
		schema, err := ParseSchema(REGISTRATION_SCHEMA)
		assert.NilError(t, err)
		tables, err := schema.Build(nil)
		assert.NilError(t, err)
		assert.Equal(t, len(tables), 5)
		assert.DeepEqual(t, tables["Teaching"].Schema.Key, []string{"crsCode", "semester"})
		assert.Assert(t, tables["Student"].Indexed())
	})

	for name, c := range map[string]struct{ schema, err string }{
		"duplicate table": {"$TABLE a {\n id Int key(primary)\n}\n$TABLE a {\n id Int key(primary)\n}", "Duplicate table a"},
		"duplicate field": {"$TABLE a {\n id Int key(primary)\n id Int\n}", "Duplicate field id"},
		"no key":          {"$TABLE a {\n id Int\n}", "Table a has no primary key"},
		"no fields":       {"$TABLE a {\n}", "Table a has no fields"},
		"not closed":      {"$TABLE a {\n id Int key(primary)", "Table a is not closed"},
		"stray field":     {"id Int key(primary)", "Field id is outside a table"},
		"unknown table":   {"$TABLE a {\n id Int key(primary) relation(b.id)\n}", "\"b\" is not a valid table"},
		"unknown field":   {"$TABLE a {\n id Int key(primary)\n}\n$TABLE b {\n x Int key(primary) relation(a.y)\n}", "\"y\" is not a valid field on table a"},
		"domain mismatch": {"$TABLE a {\n id Int key(primary)\n}\n$TABLE b {\n x String key(primary) relation(a.id)\n}", "field types must match"},
		"self reference":  {"$TABLE a {\n id Int key(primary) relation(a.id)\n}", "cannot reference itself"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSchema(c.schema)
			assert.ErrorContains(t, err, c.err)
		})
	}
}
