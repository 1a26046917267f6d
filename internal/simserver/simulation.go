// ABOUTME: Small stochastic industrial-park model that produces step_update events
// ABOUTME: Three factories trade, get disrupted, and earn rewards until the episode ends

package simserver

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/2389/symbios-live/internal/wire"
)

const (
	DefaultMaxSteps       = 30
	DefaultDisruptionProb = 0.1

	memoryLen = 3
)

var resources = []string{"HEAT", "WATER", "BYPRODUCT", "ENERGY", "STORAGE", "CO2"}

type factory struct {
	id         string
	name       string
	kind       string
	output     string
	cash       float64
	reputation float64
	schedule   float64
	inventory  map[string]float64
	memory     []float64
}

type profile struct {
	name, kind, output string
	cash               float64
}

var parkProfiles = []profile{
	{"SteelCo", "producer", "HEAT", 50000},
	{"ChemCorp", "consumer", "WATER", 30000},
	{"CementWorks", "converter", "CO2", 40000},
}

// Simulation is the world behind the fake server. It is not safe for
// concurrent use.
type Simulation struct {
	rng            *rand.Rand
	maxSteps       int
	disruptionProb float64
	step           int
	factories      []*factory
}

// NewSimulation creates a park at step 0. rng drives every random choice so a
// fixed seed replays the same episode.
func NewSimulation(maxSteps int, disruptionProb float64, rng *rand.Rand) *Simulation {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	s := &Simulation{
		rng:            rng,
		maxSteps:       maxSteps,
		disruptionProb: disruptionProb,
	}
	s.Reset()
	return s
}

// Reset starts a new episode.
func (s *Simulation) Reset() {
	s.step = 0
	s.factories = make([]*factory, len(parkProfiles))
	for i, p := range parkProfiles {
		inv := make(map[string]float64, len(resources))
		for _, r := range resources {
			inv[r] = 0
		}
		s.factories[i] = &factory{
			id:         fmt.Sprintf("factory_%d", i),
			name:       p.name,
			kind:       p.kind,
			output:     p.output,
			cash:       p.cash,
			reputation: 1,
			schedule:   1,
			inventory:  inv,
			memory:     make([]float64, 0, memoryLen),
		}
	}
}

// Step advances the park one tick. The step after a finished episode starts
// a new one.
func (s *Simulation) Step() *wire.StepEvent {
	if s.step >= s.maxSteps {
		s.Reset()
	}
	s.step++

	disrupted := ""
	if s.rng.Float64() < s.disruptionProb {
		disrupted = s.factories[s.rng.IntN(len(s.factories))].id
	}

	rewards := make(map[string]float64, len(s.factories))
	disruptions := make(map[string]bool, len(s.factories))
	for i, f := range s.factories {
		hit := f.id == disrupted
		disruptions[f.id] = hit
		f.produce(hit, s.rng)

		if s.rng.Float64() > 0.5 {
			partner := s.rng.IntN(len(s.factories))
			if partner != i {
				f.trade(s.factories[partner], s.rng)
			}
			f.remember(float64(partner))
		}

		reward := s.rng.NormFloat64()*5 + 10 + 0.1*f.reputation - 0.01
		if hit {
			reward -= 5
		}
		reward = round(reward, 4)
		rewards[f.id] = reward
		f.cash = round(f.cash+reward*10, 2)
	}

	return &wire.StepEvent{
		StepIndex:   s.step,
		Agents:      s.agents(),
		Rewards:     rewards,
		Disruptions: disruptions,
		EpisodeDone: s.step >= s.maxSteps,
		Attention:   s.attention(),
		Narration:   s.narrate(disrupted),
	}
}

func (f *factory) produce(disrupted bool, rng *rand.Rand) {
	if disrupted {
		f.schedule = math.Max(0.2, f.schedule*0.5)
		f.reputation = math.Max(0, f.reputation-0.05)
	} else {
		f.schedule = math.Min(1, f.schedule+0.1)
		f.reputation = math.Min(1, f.reputation+0.01)
	}
	f.inventory[f.output] = math.Min(100, f.inventory[f.output]+10*f.schedule+rng.Float64()*5)
	f.inventory["ENERGY"] = math.Max(0, f.inventory["ENERGY"]+rng.Float64()*4-2)
}

// trade moves part of f's output to partner.
func (f *factory) trade(partner *factory, rng *rand.Rand) {
	qty := f.inventory[f.output] * (0.1 + 0.2*rng.Float64())
	f.inventory[f.output] -= qty
	partner.inventory[f.output] = math.Min(100, partner.inventory[f.output]+qty)
}

func (f *factory) remember(partner float64) {
	f.memory = append(f.memory, partner)
	if len(f.memory) > memoryLen {
		f.memory = f.memory[len(f.memory)-memoryLen:]
	}
}

func (s *Simulation) agents() []wire.AgentState {
	out := make([]wire.AgentState, len(s.factories))
	for i, f := range s.factories {
		inv := make(map[string]float64, len(f.inventory))
		for k, v := range f.inventory {
			inv[k] = round(v, 2)
		}
		out[i] = wire.AgentState{
			ID:                 f.id,
			DisplayName:        f.name,
			Type:               f.kind,
			Cash:               f.cash,
			Reputation:         round(f.reputation, 3),
			ProductionSchedule: round(f.schedule, 3),
			Inventory:          inv,
			AttentionMemory:    append([]float64(nil), f.memory...),
		}
	}
	return out
}

// attention returns one normalized weight row per factory over all factories.
func (s *Simulation) attention() map[string][][]float64 {
	out := make(map[string][][]float64, len(s.factories))
	for _, f := range s.factories {
		row := make([]float64, len(s.factories))
		var sum float64
		for j := range row {
			row[j] = s.rng.Float64() + 0.01
			sum += row[j]
		}
		for j := range row {
			row[j] = round(row[j]/sum, 3)
		}
		out[f.id] = [][]float64{row}
	}
	return out
}

var narrations = []string{
	"Resources are routed across the park through peer-to-peer trades.",
	"SteelCo offers surplus furnace heat to ChemCorp.",
	"CementWorks converts captured CO2 into feedstock.",
	"All three factories run a closed resource loop.",
	"ChemCorp's water demand is met by SteelCo coolant surplus.",
	"Reputation scores shift ahead of the next resource auction.",
}

func (s *Simulation) narrate(disrupted string) string {
	if disrupted != "" {
		for _, f := range s.factories {
			if f.id == disrupted {
				return fmt.Sprintf("Disruption at %s: production halved while flows are re-routed.", f.name)
			}
		}
	}
	if s.step >= s.maxSteps {
		return fmt.Sprintf("Episode complete after %d steps; best earner is %s.", s.step, s.leader())
	}
	return narrations[(s.step-1)%len(narrations)]
}

func (s *Simulation) leader() string {
	sorted := append([]*factory(nil), s.factories...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].cash > sorted[j].cash })
	return sorted[0].name
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
