package statestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/shapepro/internal/shape"
	"github.com/2beens/shapepro/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultKey = "shapepro_state"

// Store persists the whole application state as one JSON blob under a
// single key.
type Store struct {
	backend Backend
	key     string
}

func NewStore(backend Backend, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		backend: backend,
		key:     key,
	}
}

func (s *Store) Key() string {
	return s.key
}

func (s *Store) BackendName() string {
	return s.backend.Name()
}

// Load returns the persisted state. A missing or unreadable blob is not
// an error: the default state is returned in its place. The error is
// only set when the backend itself failed, the default state is
// returned in that case too.
func (s *Store) Load(ctx context.Context) (_ shape.State, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "statestore.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("state.key", s.key),
		attribute.String("state.backend", s.backend.Name()),
	)

	blob, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return shape.Empty(), fmt.Errorf("load state: %w", err)
	}
	if !found {
		log.Debugf("no state stored under [%s], starting fresh", s.key)
		return shape.Empty(), nil
	}

	state, err := decodeState(blob)
	if err != nil {
		log.Warnf("stored state under [%s] is corrupt, falling back to default: %s", s.key, err)
		span.SetAttributes(attribute.Bool("state.corrupt", true))
		return shape.Empty(), nil
	}

	return state, nil
}

func (s *Store) Save(ctx context.Context, state shape.State) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "statestore.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("state.key", s.key))

	blob, err := json.Marshal(state.Normalize())
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, blob); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "statestore.clear")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("state.key", s.key))

	if err := s.backend.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// decodeState accepts only a JSON object; anything else, and any value
// outside the closed enums, counts as corrupt.
func decodeState(blob []byte) (shape.State, error) {
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return shape.State{}, errors.New("not a json object")
	}

	var state shape.State
	if err := json.Unmarshal(trimmed, &state); err != nil {
		return shape.State{}, err
	}
	return state.Normalize(), nil
}
