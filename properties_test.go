package tilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPropertiesTypes(t *testing.T) {
	p := NewProperties()
	p.SetInt("a", 1)
	p.SetString("a", "one")

	_, isInt := p.Int("a")
	s, isString := p.String("a")
	assert.False(t, isInt)
	assert.True(t, isString)
	assert.Equal(t, "one", s)

	p.SetFloat("b", 0.25)
	p.SetBool("c", true)
	assert.Equal(t, []string{"a", "b", "c"}, p.Keys())
}

func TestPropertiesMerge(t *testing.T) {
	p := NewProperties()
	p.SetInt("hp", 10)
	p.SetString("name", "door")

	o := NewProperties()
	o.SetBool("hp", false)
	o.SetFloat("weight", 1.5)

	p.Merge(o).Merge(nil)

	_, ok := p.Int("hp")
	assert.False(t, ok, "merged value replaces the old type")
	hp, _ := p.Bool("hp")
	assert.False(t, hp)
	w, _ := p.Float("weight")
	assert.Equal(t, 1.5, w)
	name, _ := p.String("name")
	assert.Equal(t, "door", name)
}

func TestPropertiesList(t *testing.T) {
	p := NewProperties()
	p.SetInt("n", 7)
	p.SetBool("b", true)
	p.SetFloat("f", 0.5)
	p.SetString("s", "x")

	list := p.toList()
	assert.Equal(t, []*Property{
		{Name: "b", Value: "true", Type: PropBool},
		{Name: "f", Value: "0.5", Type: PropFloat},
		{Name: "n", Value: "7", Type: PropInt},
		{Name: "s", Value: "x", Type: PropString},
	}, list)

	again := newPropertiesFromList(list)
	assert.Equal(t, p, again)
}

func TestParseProperties(t *testing.T) {
	p := ParseProperties(map[string]string{
		"solid": "true",
		"hp":    "12",
		"speed": "1.5",
		"name":  "gate",
	})

	solid, _ := p.Bool("solid")
	hp, _ := p.Int("hp")
	speed, _ := p.Float("speed")
	name, _ := p.String("name")
	assert.True(t, solid)
	assert.Equal(t, 12, hp)
	assert.Equal(t, 1.5, speed)
	assert.Equal(t, "gate", name)
}
