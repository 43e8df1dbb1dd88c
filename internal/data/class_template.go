package data

// NeutralAttribute is the base attribute value used for classes missing
// from the tree data.
const NeutralAttribute = 20

// ClassTemplate holds the base attributes of a character class.
type ClassTemplate struct {
	Name    string  `yaml:"name"`
	BaseStr float64 `yaml:"str"`
	BaseDex float64 `yaml:"dex"`
	BaseInt float64 `yaml:"int"`
}

// neutralClass is returned for unknown classes.
var neutralClass = ClassTemplate{
	Name:    "",
	BaseStr: NeutralAttribute,
	BaseDex: NeutralAttribute,
	BaseInt: NeutralAttribute,
}

// Class returns the template for name, or a neutral template and false when
// the class is unknown.
func (t *Tree) Class(name string) (ClassTemplate, bool) {
	if t != nil {
		if c, ok := t.classes[name]; ok {
			return *c, true
		}
	}
	c := neutralClass
	c.Name = name
	return c, false
}
