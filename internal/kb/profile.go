package kb

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Section is the list of text lines stored under one key path of the
// free-form profile document.
type Section struct {
	Path  []string
	Lines []string
}

// Name returns the last key of the section path.
func (s Section) Name() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// Profile is the organisation profile with document key order preserved.
type Profile struct {
	Sections []Section
	// flat holds headings and text lines in document order.
	flat []string
}

// Section returns the lines of the first section whose name contains name,
// compared case-insensitively.
func (p Profile) Section(name string) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range p.Sections {
		if strings.Contains(strings.ToLower(s.Name()), name) {
			return s.Lines
		}
	}
	return nil
}

// Lines returns every heading and text line in document order.
func (p Profile) Lines() []string {
	out := make([]string, len(p.flat))
	copy(out, p.flat)
	return out
}

// Empty reports whether the profile carries no text.
func (p Profile) Empty() bool {
	return len(p.flat) == 0
}

func decodeProfile(raw json.RawMessage) (Profile, error) {
	var p Profile
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return p, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	index := make(map[string]int)
	if err := p.walk(dec, nil, index); err != nil {
		return Profile{}, eris.Wrap(err, "kb: decode client profile")
	}
	return p, nil
}

func (p *Profile) walk(dec *json.Decoder, path []string, index map[string]int) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				heading := strings.TrimSpace(key)
				if heading != "" && len(heading) < 120 && !strings.HasPrefix(heading, "_") {
					p.flat = append(p.flat, heading)
				}
				child := append(append([]string(nil), path...), strings.ToLower(heading))
				if err := p.walk(dec, child, index); err != nil {
					return err
				}
			}
		case '[':
			for dec.More() {
				if err := p.walk(dec, path, index); err != nil {
					return err
				}
			}
		}
		// Consume the closing delimiter.
		_, err := dec.Token()
		return err
	case string:
		p.addLine(path, t, index)
	case json.Number:
		p.addLine(path, t.String(), index)
	case bool:
		if t {
			p.addLine(path, "true", index)
		} else {
			p.addLine(path, "false", index)
		}
	}
	return nil
}

func (p *Profile) addLine(path []string, line string, index map[string]int) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	p.flat = append(p.flat, line)
	key := strings.Join(path, "\x00")
	i, ok := index[key]
	if !ok {
		i = len(p.Sections)
		index[key] = i
		p.Sections = append(p.Sections, Section{Path: path})
	}
	p.Sections[i].Lines = append(p.Sections[i].Lines, line)
}
