package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tobsdb/reldb/internal/parser"
	"github.com/tobsdb/reldb/internal/snapshot"
	"github.com/tobsdb/reldb/internal/table"
	"github.com/tobsdb/reldb/pkg"
	"github.com/tobsdb/reldb/tools/generate"
)

const DEFAULT_SCHEMA = `
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
    grade    Character
}
`

// parseSizes reads "Student=200,Transcript=500". Tables not named get n tuples.
func parseSizes(schema *parser.Schema, sizes string, n int) (map[string]int, error) {
	counts := map[string]int{}
	for _, name := range schema.Tables.Sorted {
		counts[name] = n
	}
	if sizes == "" {
		return counts, nil
	}
	for _, pair := range strings.Split(sizes, ",") {
		name, count, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("Invalid size %q: expected table=count", pair)
		}
		c, err := strconv.Atoi(count)
		if err != nil {
			return nil, fmt.Errorf("Invalid size %q: %s", pair, err)
		}
		counts[name] = c
	}
	return counts, nil
}

func exit(err error) {
	fmt.Println(err)
	os.Exit(1)
}

func main() {
	var path, schema_data, sizes, log_level string
	var n, repeat int
	var seed int64
	var describe bool

	flag.StringVar(&path, "path", "", "Path to schema file")
	flag.StringVar(&schema_data, "schema", "", "Schema string. Preferred over -path")
	flag.StringVar(&sizes, "sizes", "", "Tuple counts per table, e.g. Student=200,Transcript=500")
	flag.IntVar(&n, "n", 1000, "Tuple count for tables not named in -sizes")
	flag.IntVar(&repeat, "r", 5, "Runs per operator; the fastest is reported")
	flag.Int64Var(&seed, "seed", 42, "Seed for the tuple generator")
	flag.BoolVar(&describe, "describe", false, "Print the parsed schema as json and exit")
	flag.StringVar(&log_level, "log", "error", "log level: none, error, info, debug")

	flag.Parse()
	pkg.SetLogLevel(pkg.ParseLogLevel(log_level))

	if schema_data == "" {
		schema_data = DEFAULT_SCHEMA
		if path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				exit(err)
			}
			schema_data = string(data)
		}
	}

	schema, err := parser.ParseSchema(schema_data)
	if err != nil {
		exit(err)
	}

	if describe {
		data, err := generate.SchemaToJson(schema)
		if err != nil {
			exit(err)
		}
		fmt.Println(string(data))
		return
	}

	counts, err := parseSizes(schema, sizes, n)
	if err != nil {
		exit(err)
	}

	dir, err := os.MkdirTemp("", "reldb-bench")
	if err != nil {
		exit(err)
	}
	defer os.RemoveAll(dir)
	ctx := table.NewContext(snapshot.NewStore(dir), pkg.Logr().WithName("bench"))

	b, err := newBench(ctx, schema, seed, counts)
	if err != nil {
		exit(err)
	}
	b.repeat = repeat
	b.run(os.Stdout)
}
