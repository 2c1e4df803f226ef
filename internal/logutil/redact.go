package logutil

import (
	"io"
	"regexp"
	"strings"
)

const (
	Redaction = "***"
)

type (
	// Redactor hides the values of sensitive fields in json log lines
	// before handing them to the underlying writer. Both json keys and
	// "field=value" pairs embedded in strings (messages, errors) are
	// redacted.
	Redactor struct {
		out     io.Writer
		pattern *regexp.Regexp
		inline  *regexp.Regexp
	}
)

// FilterDatum replaces the value of each field in a "k=v<sep>" message
// with redaction.
func FilterDatum(fields []string, redaction, message, separator string) string {
	if len(fields) == 0 {
		return message
	}
	re := regexp.MustCompile(`(` + alternatives(fields) + `)=(.*?)` + regexp.QuoteMeta(separator))
	return re.ReplaceAllString(message, "${1}="+strings.ReplaceAll(redaction, "$", "$$")+separator)
}

func NewRedactor(fields []string, out io.Writer) *Redactor {
	r := &Redactor{out: out}
	if len(fields) > 0 {
		// matches "field":"value" and "field":value (numbers, bools)
		r.pattern = regexp.MustCompile(`"(` + alternatives(fields) + `)":("(?:[^"\\]|\\.)*"|[^,}\s]+)`)
		// the value stops at the end of the enclosing json string
		r.inline = regexp.MustCompile(`\b(` + alternatives(fields) + `)=([^\s,;&"\\]+)`)
	}
	return r
}

func (r *Redactor) Write(p []byte) (int, error) {
	if r.pattern == nil {
		return r.out.Write(p)
	}
	redacted := r.pattern.ReplaceAll(p, []byte(`"${1}":"`+Redaction+`"`))
	redacted = r.inline.ReplaceAll(redacted, []byte(`${1}=`+Redaction))
	_, err := r.out.Write(redacted)
	if err != nil {
		return 0, err
	}
	// callers (zerolog) compare against the size they handed over
	return len(p), nil
}

func alternatives(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	return strings.Join(quoted, "|")
}
