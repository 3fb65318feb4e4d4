package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// PlainFormatter formats status as a single text line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
// A custom template is executed with the Status as its data.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid output template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// Format writes s as a line of text.
func (f *PlainFormatter) Format(w io.Writer, s Status) error {
	var sb strings.Builder

	if f.template != nil {
		if err := f.template.Execute(&sb, s); err != nil {
			return err
		}
	} else {
		sb.WriteString(s.Text())
		if s.Err != nil {
			sb.WriteString(" (" + s.Err.Error() + ")")
		}
	}

	if !strings.HasSuffix(sb.String(), "\n") {
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// templateFuncs returns helpers available to custom templates.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"glyph": func(r rune) string {
			if r == 0 {
				return ""
			}
			return string(r)
		},
		"ago": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
	}
}
