package registry

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Override adjusts or adds one metric. Unset attributes inherit from the
// built-in entry with the same canonical name.
type Override struct {
	Canonical       string    `yaml:"canonical"`
	Synonyms        []string  `yaml:"synonyms"`
	Scaling         Scaling   `yaml:"scaling"`
	ValueType       ValueType `yaml:"value_type"`
	AnnualPreferred *bool     `yaml:"annual_preferred"`
}

// LoadOverrides reads a YAML metrics file with a top-level "metrics" list.
func LoadOverrides(path string) ([]Override, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read overrides %s", path)
	}

	var wrapper struct {
		Metrics []Override `yaml:"metrics"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "registry: parse overrides")
	}

	for i, o := range wrapper.Metrics {
		if NormalizeKey(o.Canonical) == "" {
			return nil, eris.Errorf("registry: override %d has no canonical name", i)
		}
		switch o.Scaling {
		case "", ScalingRaw, ScalingThousands:
		default:
			return nil, eris.Errorf("registry: override %q has unknown scaling %q", o.Canonical, o.Scaling)
		}
		switch o.ValueType {
		case "", ValueCurrency, ValueRatio, ValuePerShare:
		default:
			return nil, eris.Errorf("registry: override %q has unknown value type %q", o.Canonical, o.ValueType)
		}
	}
	return wrapper.Metrics, nil
}

// Apply merges overrides onto base entries and returns the combined list.
func Apply(base []Entry, overrides []Override) []Entry {
	out := make([]Entry, len(base))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, e := range out {
		index[e.Key()] = i
	}

	for _, o := range overrides {
		key := NormalizeKey(o.Canonical)
		i, ok := index[key]
		if !ok {
			e := Entry{
				Canonical: o.Canonical,
				Synonyms:  o.Synonyms,
				Scaling:   o.Scaling,
				ValueType: o.ValueType,
			}
			if o.AnnualPreferred != nil {
				e.AnnualPreferred = *o.AnnualPreferred
			}
			index[key] = len(out)
			out = append(out, e)
			continue
		}

		e := out[i]
		e.Synonyms = unionStrings(e.Synonyms, o.Synonyms)
		if o.Scaling != "" {
			e.Scaling = o.Scaling
		}
		if o.ValueType != "" {
			e.ValueType = o.ValueType
		}
		if o.AnnualPreferred != nil {
			e.AnnualPreferred = *o.AnnualPreferred
		}
		out[i] = e
	}
	return out
}

// Load returns the default registry, extended by the overrides file at path
// when path is non-empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	overrides, err := LoadOverrides(path)
	if err != nil {
		return nil, err
	}
	return New(Apply(DefaultEntries(), overrides)), nil
}
