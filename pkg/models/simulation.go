package models

// Simulation is one entry of the kiosk's simulation list
type Simulation struct {
	ID      string `toml:"id" yaml:"id" json:"id"`
	Enabled *bool  `toml:"enabled,omitempty" yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled reports whether the simulation is shown; unset means enabled
func (s Simulation) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// SimulationRegistry keeps the configured simulations in display order
type SimulationRegistry struct {
	order []string
	sims  map[string]Simulation
}

// NewSimulationRegistry builds a registry from the configured list. Entries
// without an ID are skipped and a repeated ID keeps its first position but
// takes the later setting.
func NewSimulationRegistry(sims []Simulation) *SimulationRegistry {
	r := &SimulationRegistry{
		sims: make(map[string]Simulation, len(sims)),
	}
	for _, s := range sims {
		if s.ID == "" {
			continue
		}
		if _, exists := r.sims[s.ID]; !exists {
			r.order = append(r.order, s.ID)
		}
		r.sims[s.ID] = s
	}
	return r
}

// Get returns a simulation by ID
func (r *SimulationRegistry) Get(id string) (Simulation, bool) {
	s, exists := r.sims[id]
	return s, exists
}

// EnabledIDs returns the IDs of enabled simulations in configured order
func (r *SimulationRegistry) EnabledIDs() []string {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if r.sims[id].IsEnabled() {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of configured simulations
func (r *SimulationRegistry) Len() int {
	return len(r.order)
}
