package handles

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/devinit/internal/devtable"
)

// WriteTable renders records as a commented handle table, one array per
// component in ascending handle order:
//
//	/* 6 : /soc/peripheral@50000000/spi@a000:
//	 * Direct Dependencies:
//	 *    - /soc/peripheral@50000000/gpio@842800
//	 * Supported:
//	 *    - /soc/peripheral@50000000/spi@a000/gc9a01@0
//	 */
//	const device_handle_t devicehdl_6[] = { 2, DEVICE_HANDLE_SEP, DEVICE_HANDLE_SEP, 8, DEVICE_HANDLE_ENDS };
func WriteTable(w io.Writer, table *devtable.Table, records Records, layout Layout) error {
	bw := bufio.NewWriter(w)
	for i, id := range records.IDs() {
		name, err := table.NameOf(id)
		if err != nil {
			return err
		}
		r := records[id]

		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "/* %d : %s:\n", id, name)
		if err := writeSection(bw, table, "Direct Dependencies", r.Requires); err != nil {
			return err
		}
		if err := writeSection(bw, table, "Supported", r.Supports); err != nil {
			return err
		}
		bw.WriteString(" */\n")

		tokens := r.Encode(layout)
		parts := make([]string, len(tokens))
		for j, tok := range tokens {
			parts[j] = TokenName(tok)
		}
		fmt.Fprintf(bw, "const device_handle_t devicehdl_%d[] = { %s };\n", id, strings.Join(parts, ", "))
	}
	return bw.Flush()
}

func writeSection(w io.Writer, table *devtable.Table, title string, ids []devtable.ID) error {
	if len(ids) == 0 {
		return nil
	}
	fmt.Fprintf(w, " * %s:\n", title)
	for _, id := range ids {
		name, err := table.NameOf(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, " *    - %s\n", name)
	}
	return nil
}
