package derive

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/inventory"
)

// Snapshot is a consistent read of one actor and its owned items.
//
// Items are in the host's stable order; that order decides which items are
// dropped first on overflow.
type Snapshot struct {
	Actor actor.Actor
	Items []inventory.Item
}

// ItemProposal is the per-item override the host should persist.
type ItemProposal struct {
	ItemID   string `yaml:"item_id" json:"item_id"`
	Dropped  bool   `yaml:"dropped" json:"dropped"`
	Equipped bool   `yaml:"equipped" json:"equipped"`
	// DamageRoll is set for weapons with configured damage dice.
	DamageRoll string `yaml:"damage_roll,omitempty" json:"damage_roll,omitempty"`
}

// Result is the derived state of one snapshot.
type Result struct {
	// Actor is a fresh value of the same variant as the input actor.
	Actor actor.Actor
	// Items is aligned with Snapshot.Items.
	Items []ItemProposal
	// Light is nil for actors whose light is not derived.
	Light    *inventory.Emission
	Warnings []string
}

// Apply returns a copy of snap with res written over it: the derived actor
// replaces the stored one and every item takes its proposed flags.
//
// Precondition: res was derived from snap.
// Postcondition: snap is not modified.
func Apply(snap Snapshot, res Result) Snapshot {
	out := Snapshot{Items: inventory.Clone(snap.Items)}
	if res.Actor != nil {
		out.Actor = res.Actor.Clone()
	} else if snap.Actor != nil {
		out.Actor = snap.Actor.Clone()
	}
	byID := make(map[string]ItemProposal, len(res.Items))
	for _, p := range res.Items {
		byID[p.ItemID] = p
	}
	for i := range out.Items {
		p, ok := byID[out.Items[i].ID]
		if !ok {
			continue
		}
		out.Items[i].Dropped = p.Dropped
		out.Items[i].Equipped = p.Equipped
	}
	return out
}

type snapshotJSON struct {
	Kind  actor.Kind       `json:"kind"`
	Actor json.RawMessage  `json:"actor"`
	Items []inventory.Item `json:"items"`
}

type snapshotYAML struct {
	Kind  actor.Kind       `yaml:"kind"`
	Actor yaml.Node        `yaml:"actor"`
	Items []inventory.Item `yaml:"items"`
}

type resultDoc struct {
	Kind     actor.Kind          `yaml:"kind" json:"kind"`
	Actor    actor.Actor         `yaml:"actor" json:"actor"`
	Items    []ItemProposal      `yaml:"items" json:"items"`
	Light    *inventory.Emission `yaml:"light,omitempty" json:"light,omitempty"`
	Warnings []string            `yaml:"warnings,omitempty" json:"warnings,omitempty"`
}

// MarshalJSON encodes the snapshot with its actor kind alongside the actor.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if s.Actor == nil {
		return nil, fmt.Errorf("snapshot has no actor")
	}
	raw, err := json.Marshal(s.Actor)
	if err != nil {
		return nil, fmt.Errorf("encoding actor: %w", err)
	}
	return json.Marshal(snapshotJSON{Kind: s.Actor.Kind(), Actor: raw, Items: s.Items})
}

// UnmarshalJSON decodes a snapshot written by MarshalJSON.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var doc snapshotJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	a, err := actor.New(doc.Kind)
	if err != nil {
		return err
	}
	if len(doc.Actor) > 0 {
		if err := json.Unmarshal(doc.Actor, a); err != nil {
			return fmt.Errorf("decoding %s: %w", doc.Kind, err)
		}
	}
	s.Actor = a
	s.Items = doc.Items
	return nil
}

// MarshalYAML encodes the snapshot with its actor kind alongside the actor.
func (s Snapshot) MarshalYAML() (any, error) {
	if s.Actor == nil {
		return nil, fmt.Errorf("snapshot has no actor")
	}
	var node yaml.Node
	if err := node.Encode(s.Actor); err != nil {
		return nil, fmt.Errorf("encoding actor: %w", err)
	}
	return snapshotYAML{Kind: s.Actor.Kind(), Actor: node, Items: s.Items}, nil
}

// UnmarshalYAML decodes a snapshot of the form {kind, actor, items}.
func (s *Snapshot) UnmarshalYAML(value *yaml.Node) error {
	var doc snapshotYAML
	if err := value.Decode(&doc); err != nil {
		return err
	}
	a, err := actor.New(doc.Kind)
	if err != nil {
		return err
	}
	if !doc.Actor.IsZero() {
		if err := doc.Actor.Decode(a); err != nil {
			return fmt.Errorf("decoding %s: %w", doc.Kind, err)
		}
	}
	s.Actor = a
	s.Items = doc.Items
	return nil
}

func (r Result) doc() resultDoc {
	d := resultDoc{Actor: r.Actor, Items: r.Items, Light: r.Light, Warnings: r.Warnings}
	if r.Actor != nil {
		d.Kind = r.Actor.Kind()
	}
	return d
}

// MarshalJSON encodes the result with its actor kind.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.doc())
}

// MarshalYAML encodes the result with its actor kind.
func (r Result) MarshalYAML() (any, error) {
	return r.doc(), nil
}

// UnmarshalJSON decodes a result written by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var doc struct {
		Kind     actor.Kind          `json:"kind"`
		Actor    json.RawMessage     `json:"actor"`
		Items    []ItemProposal      `json:"items"`
		Light    *inventory.Emission `json:"light"`
		Warnings []string            `json:"warnings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	a, err := actor.New(doc.Kind)
	if err != nil {
		return err
	}
	if len(doc.Actor) > 0 {
		if err := json.Unmarshal(doc.Actor, a); err != nil {
			return fmt.Errorf("decoding %s: %w", doc.Kind, err)
		}
	}
	*r = Result{Actor: a, Items: doc.Items, Light: doc.Light, Warnings: doc.Warnings}
	return nil
}
