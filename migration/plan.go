package migration

// Step is one unit to apply in one direction.
type Step struct {
	Unit      Unit
	Direction Direction
}

func (s Step) String() string {
	return s.Unit.Key().String() + " " + string(s.Direction)
}

// Plan is an ordered list of steps.
type Plan []Step

// Keys returns the key of every step.
func (p Plan) Keys() []Key {
	out := make([]Key, len(p))
	for i, s := range p {
		out[i] = s.Unit.Key()
	}
	return out
}

// Closure returns target and everything it depends on, transitively.
func (g *Graph) Closure(target Key) (map[Key]bool, error) {
	if _, ok := g.units[target]; !ok {
		return nil, &UnknownKeyError{Key: target}
	}
	closure := g.Ancestors(target)
	closure[target] = true
	return closure, nil
}

// Plan computes the steps that bring the applied set to exactly the closure
// of target. Applied units outside the closure go down first, dependents
// before their dependencies; then missing closure units go up in dependency
// order.
func (g *Graph) Plan(applied []Key, target Key) (Plan, error) {
	closure, err := g.Closure(target)
	if err != nil {
		return nil, err
	}
	isApplied := make(map[Key]bool, len(applied))
	for _, k := range applied {
		if _, ok := g.units[k]; !ok {
			return nil, &UnknownKeyError{Key: k}
		}
		isApplied[k] = true
	}

	var plan Plan
	for i := len(g.order) - 1; i >= 0; i-- {
		k := g.order[i]
		if isApplied[k] && !closure[k] {
			plan = append(plan, Step{Unit: g.units[k], Direction: Down})
		}
	}
	for _, k := range g.order {
		if closure[k] && !isApplied[k] {
			plan = append(plan, Step{Unit: g.units[k], Direction: Up})
		}
	}
	return plan, nil
}

// Resolve builds the graph for units and plans target against applied.
func Resolve(units []Unit, applied []Key, target Key) (Plan, error) {
	g, err := NewGraph(units)
	if err != nil {
		return nil, err
	}
	return g.Plan(applied, target)
}
