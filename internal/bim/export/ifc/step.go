package ifc

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ref is a STEP instance name (#n).
type ref int

func (r ref) String() string { return "#" + strconv.Itoa(int(r)) }

// stepFile accumulates DATA section instances in creation order.
type stepFile struct {
	lines []string
}

func (f *stepFile) add(entity string, attrs ...string) ref {
	r := ref(len(f.lines) + 1)
	f.lines = append(f.lines, fmt.Sprintf("%s=%s(%s);", r, entity, strings.Join(attrs, ",")))
	return r
}

func (f *stepFile) writeTo(w io.Writer, header []string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("ISO-10303-21;\nHEADER;\n")
	for _, h := range header {
		bw.WriteString(h)
		bw.WriteByte('\n')
	}
	bw.WriteString("ENDSEC;\nDATA;\n")
	for _, l := range f.lines {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	bw.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	return bw.Flush()
}

const unset = "$"

// flt formats a STEP REAL, which always carries a decimal point.
func flt(v float64) string {
	if v == 0 || math.Abs(v) < 1e-12 {
		return "0."
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += "."
	}
	return s
}

func integer(v int) string { return strconv.Itoa(v) }

func enum(v string) string { return "." + v + "." }

// str formats a STEP STRING. Apostrophes and backslashes are doubled and
// characters outside printable ASCII use the \X2\ hex encoding.
func str(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch {
		case r == '\'':
			b.WriteString("''")
		case r == '\\':
			b.WriteString(`\\`)
		case r >= 0x20 && r < 0x7f:
			b.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\X2\%04X\X0\`, r)
		default:
			fmt.Fprintf(&b, `\X4\%08X\X0\`, r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func list(items ...string) string { return "(" + strings.Join(items, ",") + ")" }

func refs(rs ...ref) string {
	items := make([]string, len(rs))
	for i, r := range rs {
		items[i] = r.String()
	}
	return list(items...)
}

func reals(vs ...float64) string {
	items := make([]string, len(vs))
	for i, v := range vs {
		items[i] = flt(v)
	}
	return list(items...)
}
