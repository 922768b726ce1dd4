package tilemap

import (
	"sort"
	"strconv"
)

const (
	// Property types
	// see doc.mapeditor.org/en/stable/reference/tmx-map-format/#properties
	PropString = "string"
	PropInt    = "int"
	PropBool   = "bool"
	PropFloat  = "float"
)

// Properties is a more straight forward []*Property (used by the raw XML)
// that handles types a bit more gracefully.
// A key holds exactly one type at a time.
type Properties struct {
	ints    map[string]int
	strings map[string]string
	bools   map[string]bool
	floats  map[string]float64
}

// NewProperties returns an empty properties
func NewProperties() *Properties {
	return &Properties{
		ints:    map[string]int{},
		strings: map[string]string{},
		bools:   map[string]bool{},
		floats:  map[string]float64{},
	}
}

// Merge properties `o` into this properties, values in `o` win.
func (p *Properties) Merge(o *Properties) *Properties {
	if o == nil {
		return p
	}
	for k, v := range o.ints {
		p.SetInt(k, v)
	}
	for k, v := range o.strings {
		p.SetString(k, v)
	}
	for k, v := range o.bools {
		p.SetBool(k, v)
	}
	for k, v := range o.floats {
		p.SetFloat(k, v)
	}
	return p
}

// Keys returns all set keys, sorted
func (p *Properties) Keys() []string {
	keys := []string{}
	for k := range p.ints {
		keys = append(keys, k)
	}
	for k := range p.strings {
		keys = append(keys, k)
	}
	for k := range p.bools {
		keys = append(keys, k)
	}
	for k := range p.floats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toList mutates our nicer properties wrapper back into []*Property understood
// by the XML encoder. Output is sorted by name so encoding is stable.
func (p *Properties) toList() []*Property {
	ps := []*Property{}
	for _, k := range p.Keys() {
		if v, ok := p.ints[k]; ok {
			ps = append(ps, &Property{Name: k, Value: strconv.Itoa(v), Type: PropInt})
		} else if v, ok := p.bools[k]; ok {
			ps = append(ps, &Property{Name: k, Value: strconv.FormatBool(v), Type: PropBool})
		} else if v, ok := p.floats[k]; ok {
			ps = append(ps, &Property{Name: k, Value: strconv.FormatFloat(v, 'g', -1, 64), Type: PropFloat})
		} else {
			ps = append(ps, &Property{Name: k, Value: p.strings[k], Type: PropString})
		}
	}
	return ps
}

// newPropertiesFromList turns the XML []Property into our nicer properties
// wrapper struct.
func newPropertiesFromList(in []*Property) *Properties {
	ps := NewProperties()

	for _, i := range in {
		switch i.Type {
		case PropInt:
			v, _ := strconv.ParseInt(i.Value, 10, 64)
			ps.SetInt(i.Name, int(v))
		case PropBool:
			ps.SetBool(i.Name, i.Value == "true")
		case PropFloat:
			v, _ := strconv.ParseFloat(i.Value, 64)
			ps.SetFloat(i.Name, v)
		default:
			// color, file, object etc are kept as plain strings
			ps.SetString(i.Name, i.Value)
		}
	}

	return ps
}

// ParseProperties guesses types for plain "key=value" style strings,
// as handed to us on the command line.
func ParseProperties(in map[string]string) *Properties {
	p := NewProperties()

	for k, v := range in {
		if v == "true" || v == "false" {
			p.SetBool(k, v == "true")
		} else if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			p.SetInt(k, int(i))
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			p.SetFloat(k, f)
		} else {
			p.SetString(k, v)
		}
	}

	return p
}

func (p *Properties) clear(key string) {
	delete(p.ints, key)
	delete(p.strings, key)
	delete(p.bools, key)
	delete(p.floats, key)
}

func (p *Properties) String(key string) (string, bool) {
	v, ok := p.strings[key]
	return v, ok
}

func (p *Properties) SetString(key, value string) {
	p.clear(key)
	p.strings[key] = value
}

func (p *Properties) Int(key string) (int, bool) {
	v, ok := p.ints[key]
	return v, ok
}

func (p *Properties) SetInt(key string, value int) {
	p.clear(key)
	p.ints[key] = value
}

func (p *Properties) Bool(key string) (bool, bool) {
	v, ok := p.bools[key]
	return v, ok
}

func (p *Properties) SetBool(key string, value bool) {
	p.clear(key)
	p.bools[key] = value
}

func (p *Properties) Float(key string) (float64, bool) {
	v, ok := p.floats[key]
	return v, ok
}

func (p *Properties) SetFloat(key string, value float64) {
	p.clear(key)
	p.floats[key] = value
}
