package output

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is the structured form of a Status used by the JSON and YAML
// formatters.
type Document struct {
	Name          string     `json:"name" yaml:"name"`
	Icon          string     `json:"icon" yaml:"icon"`
	Text          string     `json:"text" yaml:"text"`
	SecondaryText *string    `json:"secondary_text,omitempty" yaml:"secondary_text,omitempty"`
	Attention     string     `json:"attention" yaml:"attention"`
	Class         string     `json:"class" yaml:"class"`
	Level         *int       `json:"level,omitempty" yaml:"level,omitempty"`
	Error         string     `json:"error,omitempty" yaml:"error,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewDocument converts s into a Document.
func NewDocument(s Status) Document {
	d := Document{
		Name:          s.Name,
		Text:          s.Output.PrimaryText,
		SecondaryText: s.Output.SecondaryText,
		Attention:     s.Output.Attention.String(),
		Class:         s.Class(),
	}
	if s.Output.Icon != 0 {
		d.Icon = string(s.Output.Icon)
	}
	if s.HasLevel {
		level := s.Level
		d.Level = &level
	}
	if s.Err != nil {
		d.Error = s.Err.Error()
	}
	if !s.UpdatedAt.IsZero() {
		at := s.UpdatedAt
		d.UpdatedAt = &at
	}
	return d
}

// JSONFormatter formats status as a JSON document per line.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes s as a JSON object.
func (f *JSONFormatter) Format(w io.Writer, s Status) error {
	return json.NewEncoder(w).Encode(NewDocument(s))
}

// YAMLFormatter formats status as a YAML document.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes s as a YAML document, separated from the previous one by "---".
func (f *YAMLFormatter) Format(w io.Writer, s Status) error {
	data, err := yaml.Marshal(NewDocument(s))
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, "---\n"); err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
