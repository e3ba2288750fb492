// Package derivesvc exposes the derivation engine over gRPC.
//
// Requests and responses travel as google.protobuf.Struct values so that
// actor snapshots keep the same JSON shape used by the snapshot store.
package derivesvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/knave/internal/game/derive"
	"github.com/cory-johannsen/knave/internal/game/inventory"
	"github.com/cory-johannsen/knave/internal/game/rules"
	"github.com/cory-johannsen/knave/internal/observability"
	"github.com/cory-johannsen/knave/internal/storage/postgres"
)

// Store loads stored snapshots and persists derivation results.
type Store interface {
	Load(ctx context.Context, actorID string) (derive.Snapshot, error)
	Apply(ctx context.Context, actorID string, res derive.Result) error
}

// Orderer reorders items before encumbrance is computed.
type Orderer interface {
	Order(items []inventory.Item) ([]inventory.Item, error)
}

// Option configures a Service.
type Option func(*Service)

// WithStore enables DeriveStored.
func WithStore(store Store) Option {
	return func(s *Service) { s.store = store }
}

// WithDropOrder reorders every snapshot's items with o before deriving.
func WithDropOrder(o Orderer) Option {
	return func(s *Service) { s.orderer = o }
}

// Service implements DeriveServiceServer.
//
// Derive request:        {"snapshot": {...}, "settings": {...}}
// DeriveStored request:  {"actor_id": "...", "dry_run": false, "settings": {...}}
// Response:              {"result": {...}, "applied": bool}
//
// Settings in a request overlay the service defaults field by field.
type Service struct {
	composer *derive.Composer
	settings rules.Settings
	store    Store
	orderer  Orderer
	logger   *zap.Logger
}

// NewService creates a Service.
//
// Precondition: composer and logger are non-nil; settings is valid.
func NewService(composer *derive.Composer, settings rules.Settings, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{composer: composer, settings: settings, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type deriveRequest struct {
	Snapshot *derive.Snapshot `json:"snapshot"`
	Settings json.RawMessage  `json:"settings"`
}

type deriveStoredRequest struct {
	ActorID  string          `json:"actor_id"`
	DryRun   bool            `json:"dry_run"`
	Settings json.RawMessage `json:"settings"`
}

type response struct {
	Result  derive.Result `json:"result"`
	Applied bool          `json:"applied"`
}

// Derive derives the snapshot carried in the request.
func (s *Service) Derive(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req deriveRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	if req.Snapshot == nil || req.Snapshot.Actor == nil {
		return nil, status.Error(codes.InvalidArgument, "snapshot is required")
	}
	settings, err := s.resolveSettings(req.Settings)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "settings: %v", err)
	}
	res, err := s.derive(*req.Snapshot, settings)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "deriving: %v", err)
	}
	return encode(response{Result: res})
}

// DeriveStored loads a stored actor, derives it and, unless dry_run is set,
// writes the result back in one transaction.
func (s *Service) DeriveStored(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if s.store == nil {
		return nil, status.Error(codes.FailedPrecondition, "snapshot store is not configured")
	}
	var req deriveStoredRequest
	if err := decode(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	if _, err := uuid.Parse(req.ActorID); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "actor_id: %v", err)
	}
	settings, err := s.resolveSettings(req.Settings)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "settings: %v", err)
	}

	snap, err := s.store.Load(ctx, req.ActorID)
	if err != nil {
		return nil, storeError("loading snapshot", err)
	}
	res, err := s.derive(snap, settings)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "deriving: %v", err)
	}
	if req.DryRun {
		return encode(response{Result: res})
	}
	if err := s.store.Apply(ctx, req.ActorID, res); err != nil {
		return nil, storeError("applying result", err)
	}
	s.logger.Info("derived stored actor",
		zap.String("actor_id", req.ActorID),
		zap.Int("items", len(res.Items)),
	)
	return encode(response{Result: res, Applied: true})
}

func (s *Service) derive(snap derive.Snapshot, settings rules.Settings) (derive.Result, error) {
	actorID := ""
	if snap.Actor != nil {
		actorID = snap.Actor.Common().ID
	}
	res, err := OrderAndDerive(s.composer, s.orderer, snap, settings)
	if err != nil {
		return derive.Result{}, err
	}
	observability.Warnings(s.logger, actorID, res.Warnings)
	return res, nil
}

// OrderAndDerive ranks snap's items with o, when set, and derives the result.
// A failing script keeps the stored order and adds a warning to the result.
func OrderAndDerive(c *derive.Composer, o Orderer, snap derive.Snapshot, settings rules.Settings) (derive.Result, error) {
	var orderWarning string
	if o != nil {
		items, err := o.Order(snap.Items)
		if err != nil {
			orderWarning = fmt.Sprintf("drop order script failed, items kept in stored order: %v", err)
		}
		snap.Items = items
	}
	res, err := c.Derive(snap, settings)
	if err != nil {
		return derive.Result{}, err
	}
	if orderWarning != "" {
		res.Warnings = append(res.Warnings, orderWarning)
	}
	return res, nil
}

func (s *Service) resolveSettings(raw json.RawMessage) (rules.Settings, error) {
	settings := s.settings
	if len(raw) == 0 || string(raw) == "null" {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return rules.Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return rules.Settings{}, err
	}
	return settings, nil
}

func storeError(op string, err error) error {
	switch {
	case errors.Is(err, postgres.ErrActorNotFound), errors.Is(err, postgres.ErrItemNotFound):
		return status.Errorf(codes.NotFound, "%s: %v", op, err)
	case errors.Is(err, context.Canceled):
		return status.Errorf(codes.Canceled, "%s: %v", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Errorf(codes.DeadlineExceeded, "%s: %v", op, err)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

// decode converts a Struct into v through its JSON form.
func decode(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}
