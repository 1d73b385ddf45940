package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/tobsdb/reldb/internal/types"
)

const print_col_width = 15

func (t *Table) printRule(w io.Writer) {
	fmt.Fprintf(w, "|-%s-|\n", strings.Repeat("-", print_col_width*t.Schema.Arity()))
}

// Print writes t as a fixed width text table.
func (t *Table) Print(w io.Writer) {
	fmt.Fprintf(w, "\n Table %s\n", t.Name)
	t.printRule(w)
	fmt.Fprint(w, "| ")
	for _, a := range t.Schema.Attributes {
		fmt.Fprintf(w, "%*s", print_col_width, a.Name)
	}
	fmt.Fprintln(w, " |")
	t.printRule(w)
	for _, tup := range t.tuples {
		fmt.Fprint(w, "| ")
		for _, v := range tup {
			fmt.Fprintf(w, "%*s", print_col_width, types.Format(v))
		}
		fmt.Fprintln(w, " |")
	}
	t.printRule(w)
}

// PrintIndex writes the index entries in key order.
func (t *Table) PrintIndex(w io.Writer) {
	fmt.Fprintf(w, "\n Index for %s\n", t.Name)
	fmt.Fprintln(w, "-------------------")
	if t.index != nil {
		t.index.Each(func(key KeyType, tup Tuple) {
			fmt.Fprintf(w, "%s -> %s\n", key, tup)
		})
	}
	fmt.Fprintln(w, "-------------------")
}
