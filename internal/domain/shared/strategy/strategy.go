package strategy

// Strategy identifies a pluggable policy in a registry
type Strategy interface {
	Name() string
	Description() string
}

// Descriptor is embedded by strategies to satisfy Strategy
type Descriptor struct {
	name        string
	description string
}

// Describe builds a Descriptor. The name is the registry and config key.
func Describe(name, description string) Descriptor {
	return Descriptor{name: name, description: description}
}

func (d Descriptor) Name() string        { return d.name }
func (d Descriptor) Description() string { return d.description }
