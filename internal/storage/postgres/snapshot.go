package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/knave/internal/game/actor"
	"github.com/cory-johannsen/knave/internal/game/derive"
	"github.com/cory-johannsen/knave/internal/game/inventory"
)

// ErrActorNotFound is returned when no actor has the requested ID.
var ErrActorNotFound = errors.New("actor not found")

// ErrItemNotFound is returned when a proposal names an item the actor does not own.
var ErrItemNotFound = errors.New("item not found")

// SnapshotRepository stores actors and their ordered items.
//
// Actor and item attributes are stored as JSONB in the same shape the derive
// service speaks, so a stored row decodes straight back into the engine types.
type SnapshotRepository struct {
	db *pgxpool.Pool
}

// NewSnapshotRepository creates a SnapshotRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSnapshotRepository(db *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the actor and replaces its item list with snap.Items, in order.
//
// Precondition: snap.Actor is non-nil; the actor and every item have UUID IDs.
// Postcondition: Load(actor ID) returns an equivalent snapshot; nothing is
// written if any statement fails.
func (r *SnapshotRepository) Save(ctx context.Context, snap derive.Snapshot) error {
	if snap.Actor == nil {
		return derive.ErrNoActor
	}
	base := snap.Actor.Common()
	actorID, err := uuid.Parse(base.ID)
	if err != nil {
		return fmt.Errorf("actor id %q: %w", base.ID, err)
	}
	attrs, err := json.Marshal(snap.Actor)
	if err != nil {
		return fmt.Errorf("encoding actor: %w", err)
	}

	itemIDs := make([]string, len(snap.Items))
	itemAttrs := make([][]byte, len(snap.Items))
	for i, it := range snap.Items {
		if _, err := uuid.Parse(it.ID); err != nil {
			return fmt.Errorf("item id %q: %w", it.ID, err)
		}
		itemIDs[i] = it.ID
		if itemAttrs[i], err = json.Marshal(it); err != nil {
			return fmt.Errorf("encoding item %q: %w", it.ID, err)
		}
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO actors (id, kind, name, attributes, updated_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (id) DO UPDATE
			SET kind = EXCLUDED.kind, name = EXCLUDED.name,
			    attributes = EXCLUDED.attributes, updated_at = NOW()`,
			actorID, string(snap.Actor.Kind()), base.Name, attrs,
		); err != nil {
			return fmt.Errorf("upserting actor: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM items WHERE actor_id = $1 AND NOT (id = ANY($2::uuid[]))`,
			actorID, itemIDs,
		); err != nil {
			return fmt.Errorf("pruning items: %w", err)
		}

		batch := &pgx.Batch{}
		for i, it := range snap.Items {
			batch.Queue(`
				INSERT INTO items (id, actor_id, position, category, attributes)
				VALUES ($1::uuid, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE
				SET actor_id = EXCLUDED.actor_id, position = EXCLUDED.position,
				    category = EXCLUDED.category, attributes = EXCLUDED.attributes`,
				it.ID, actorID, i, string(it.Category), itemAttrs[i],
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upserting items: %w", err)
		}
		return nil
	})
}

// Load reads the actor and its items in stored order.
//
// Postcondition: Returns ErrActorNotFound when no actor has actorID.
func (r *SnapshotRepository) Load(ctx context.Context, actorID string) (derive.Snapshot, error) {
	id, err := uuid.Parse(actorID)
	if err != nil {
		return derive.Snapshot{}, fmt.Errorf("actor id %q: %w", actorID, err)
	}

	var (
		kind  string
		attrs []byte
	)
	err = r.db.QueryRow(ctx, `SELECT kind, attributes FROM actors WHERE id = $1`, id).Scan(&kind, &attrs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return derive.Snapshot{}, ErrActorNotFound
		}
		return derive.Snapshot{}, fmt.Errorf("loading actor: %w", err)
	}
	a, err := actor.New(actor.Kind(kind))
	if err != nil {
		return derive.Snapshot{}, err
	}
	if err := json.Unmarshal(attrs, a); err != nil {
		return derive.Snapshot{}, fmt.Errorf("decoding actor %s: %w", actorID, err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT attributes FROM items WHERE actor_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return derive.Snapshot{}, fmt.Errorf("loading items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (inventory.Item, error) {
		var raw []byte
		if err := row.Scan(&raw); err != nil {
			return inventory.Item{}, err
		}
		var it inventory.Item
		err := json.Unmarshal(raw, &it)
		return it, err
	})
	if err != nil {
		return derive.Snapshot{}, fmt.Errorf("scanning items: %w", err)
	}
	return derive.Snapshot{Actor: a, Items: items}, nil
}

// Apply writes a derivation result back: the derived actor replaces the
// stored attributes and every item takes its proposed dropped and equipped
// flags.
//
// Precondition: res was derived from the snapshot stored under actorID.
// Postcondition: either every write lands or none does; ErrActorNotFound or
// ErrItemNotFound when a row is missing.
func (r *SnapshotRepository) Apply(ctx context.Context, actorID string, res derive.Result) error {
	if res.Actor == nil {
		return derive.ErrNoActor
	}
	id, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("actor id %q: %w", actorID, err)
	}
	attrs, err := json.Marshal(res.Actor)
	if err != nil {
		return fmt.Errorf("encoding actor: %w", err)
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE actors SET attributes = $2, name = $3, updated_at = NOW()
			WHERE id = $1`,
			id, attrs, res.Actor.Common().Name,
		)
		if err != nil {
			return fmt.Errorf("updating actor: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrActorNotFound
		}

		batch := &pgx.Batch{}
		for _, p := range res.Items {
			batch.Queue(`
				UPDATE items
				SET attributes = attributes
				    || jsonb_build_object('dropped', $3::boolean, 'equipped', $4::boolean)
				WHERE id = $1::uuid AND actor_id = $2`,
				p.ItemID, id, p.Dropped, p.Equipped,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for _, p := range res.Items {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return fmt.Errorf("updating item %q: %w", p.ItemID, err)
			}
			if tag.RowsAffected() == 0 {
				_ = br.Close()
				return fmt.Errorf("%w: %s", ErrItemNotFound, p.ItemID)
			}
		}
		return br.Close()
	})
}
