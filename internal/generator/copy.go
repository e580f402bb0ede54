package generator

import (
	"bytes"
	"strconv"
)

// CopyColumns is the fixed column order of the bulk-copy stream. It must
// match the field order of Record.
var CopyColumns = []string{
	"username", "email", "first_name", "last_name", "age",
	"salary", "is_active", "created_at", "department", "score",
}

// copyTimeLayout is the timestamp format accepted by the COPY text protocol.
const copyTimeLayout = "2006-01-02 15:04:05"

// AppendCopyLine encodes one record as a tab-separated COPY text line and
// appends it, newline-terminated, to buf. Booleans are encoded as t/f.
func AppendCopyLine(buf *bytes.Buffer, r Record) {
	buf.WriteString(escapeCopyField(r.Username))
	buf.WriteByte('\t')
	buf.WriteString(escapeCopyField(r.Email))
	buf.WriteByte('\t')
	buf.WriteString(escapeCopyField(r.FirstName))
	buf.WriteByte('\t')
	buf.WriteString(escapeCopyField(r.LastName))
	buf.WriteByte('\t')
	buf.WriteString(strconv.Itoa(r.Age))
	buf.WriteByte('\t')
	buf.WriteString(strconv.FormatFloat(r.Salary, 'f', 2, 64))
	buf.WriteByte('\t')
	if r.IsActive {
		buf.WriteByte('t')
	} else {
		buf.WriteByte('f')
	}
	buf.WriteByte('\t')
	buf.WriteString(r.CreatedAt.Format(copyTimeLayout))
	buf.WriteByte('\t')
	buf.WriteString(escapeCopyField(r.Department))
	buf.WriteByte('\t')
	buf.WriteString(strconv.FormatFloat(r.Score, 'f', 2, 64))
	buf.WriteByte('\n')
}

// escapeCopyField is the single choke point for COPY text escaping.
//
// Escaping policy: none. Every string field the generator emits is drawn
// from a strictly alphanumeric alphabet (departments contain no tabs or
// newlines either), so delimiter collisions cannot occur. A field type that
// can carry tabs, newlines or backslashes must grow real escaping here
// before it is added to the stream.
func escapeCopyField(s string) string {
	return s
}
