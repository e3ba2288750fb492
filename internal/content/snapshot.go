// Package content loads actor snapshots from YAML files.
//
// A snapshot file holds one actor and the items it owns:
//
//	kind: character
//	actor:
//	  name: Wren
//	  abilities: {constitution: 2}
//	items:
//	  - {name: Rope, category: equipment, slots: 1}
//
// Actors and items without an id are given a random UUID.
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/knave/internal/game/derive"
)

// LoadSnapshotFromFile reads and validates a single snapshot YAML file.
//
// Precondition: path must point to a snapshot YAML file.
// Postcondition: Returns a validated Snapshot or a non-nil error.
func LoadSnapshotFromFile(path string) (derive.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return derive.Snapshot{}, fmt.Errorf("reading snapshot file %s: %w", path, err)
	}
	return LoadSnapshotFromBytes(data)
}

// LoadSnapshotFromBytes parses a snapshot, fills in missing IDs, and validates it.
//
// Precondition: data must be valid YAML conforming to the snapshot schema.
// Postcondition: Returns a Snapshot whose actor and items all have IDs, or a
// non-nil error.
func LoadSnapshotFromBytes(data []byte) (derive.Snapshot, error) {
	var snap derive.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return derive.Snapshot{}, fmt.Errorf("parsing snapshot YAML: %w", err)
	}
	if snap.Actor == nil {
		return derive.Snapshot{}, errors.New("parsing snapshot YAML: missing kind")
	}
	AssignIDs(snap)
	if err := Validate(snap); err != nil {
		return derive.Snapshot{}, fmt.Errorf("validating snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshotsFromDir loads every *.yaml and *.yml file in dir.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all snapshots in file-name order or the first error;
// actor IDs are unique across the result.
func LoadSnapshotsFromDir(dir string) ([]derive.Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot directory %s: %w", dir, err)
	}

	var snaps []derive.Snapshot
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		snap, err := LoadSnapshotFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading snapshot from %s: %w", name, err)
		}
		id := snap.Actor.Common().ID
		if prev, dup := seen[id]; dup {
			return nil, fmt.Errorf("actor id %s appears in both %s and %s", id, prev, name)
		}
		seen[id] = name
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// AssignIDs gives the actor and every item without an ID a new UUID, in place.
func AssignIDs(snap derive.Snapshot) {
	if base := snap.Actor.Common(); base.ID == "" {
		base.ID = uuid.NewString()
	}
	for i := range snap.Items {
		if snap.Items[i].ID == "" {
			snap.Items[i].ID = uuid.NewString()
		}
	}
}

// Validate checks every item and that item IDs are unique within the snapshot.
//
// Postcondition: Returns nil iff all items are valid; otherwise an error listing every violation.
func Validate(snap derive.Snapshot) error {
	var errs []error
	if snap.Actor.Common().ID == "" {
		errs = append(errs, errors.New("actor id must not be empty"))
	}
	seen := make(map[string]bool, len(snap.Items))
	for _, it := range snap.Items {
		if err := it.Validate(); err != nil {
			errs = append(errs, err)
		}
		if seen[it.ID] {
			errs = append(errs, fmt.Errorf("item id %q is not unique", it.ID))
		}
		seen[it.ID] = true
	}
	return errors.Join(errs...)
}
