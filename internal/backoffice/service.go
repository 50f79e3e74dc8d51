package backoffice

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"recrutement/backoffice-service/internal/config"
	"recrutement/backoffice-service/internal/events"
	"recrutement/backoffice-service/internal/model"
	"recrutement/backoffice-service/internal/store"
)

// ─── Service ─────────────────────────────────────────────────────────────────

// Service encapsulates all back-office business logic.
// It has no dependency on net/http; it can be used by any transport layer.
type Service struct {
	st    Stores
	pub   events.Publisher
	vocab *config.Vocabulary
	now   func() time.Time
}

// NewService returns a configured Service. A nil publisher drops events.
func NewService(st Stores, pub events.Publisher, vocab *config.Vocabulary) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{st: st, pub: pub, vocab: vocab, now: func() time.Time { return time.Now().UTC() }}
}

// Vocabulary returns the allowed values of the categorical columns.
func (s *Service) Vocabulary() *config.Vocabulary { return s.vocab }

func newID() string { return uuid.NewString() }

// stamp fills the id and timestamps of a record about to be inserted.
func (s *Service) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = newID()
	}
	now := s.now()
	*created = now
	*updated = now
}

// checkVocabulary validates categorical columns of table against the
// vocabulary. values maps column to value.
func (s *Service) checkVocabulary(table string, values map[string]string) error {
	if s.vocab == nil {
		return nil
	}
	var ve *ValidationError
	for col, v := range values {
		if s.vocab.Allows(table, col, v) {
			continue
		}
		if ve == nil {
			ve = &ValidationError{Fields: map[string]string{}}
		}
		ve.Fields[col] = "unknown value " + v
	}
	if ve == nil {
		return nil
	}
	ve.Msg = summarize(ve.Fields)
	return ve
}

// ─── Events ──────────────────────────────────────────────────────────────────

// changed publishes EVENT_RECORD_CHANGED (non-fatal).
func (s *Service) changed(ctx context.Context, table store.Table, id, op string) {
	s.publish(ctx, events.RecordChanged, events.Change{Table: table.Name, ID: id, Op: op})
}

func (s *Service) publish(ctx context.Context, typ string, data any) {
	e, err := events.Make(RequestIDFrom(ctx), typ, data)
	if err == nil {
		err = s.pub.Publish(ctx, e)
	}
	if err != nil {
		slog.Warn("publish event failed", "type", typ, "err", err)
	}
}

// ─── Notes attachment ────────────────────────────────────────────────────────

// notesBy loads every note once and groups them by the parent column picked
// by key. A failure is logged and yields no notes: records are still listed.
func (s *Service) notesBy(ctx context.Context, key func(model.Note) *string) map[string][]model.Note {
	notes, err := s.st.Notes.List(ctx)
	if err != nil {
		slog.Warn("load notes failed", "err", err)
		return nil
	}
	out := make(map[string][]model.Note)
	for _, n := range notes {
		if id := key(n); id != nil && *id != "" {
			out[*id] = append(out[*id], n)
		}
	}
	return out
}

// notesOf loads the notes of a single parent (non-fatal).
func (s *Service) notesOf(ctx context.Context, p Parent) []model.Note {
	notes, err := s.st.Notes.ListBy(ctx, p.column(), p.ID)
	if err != nil {
		slog.Warn("load notes failed", "parent", p.Kind, "id", p.ID, "err", err)
		return nil
	}
	return notes
}

// deleteNotesOf removes the notes of a deleted parent (non-fatal).
func (s *Service) deleteNotesOf(ctx context.Context, p Parent) {
	notes, err := s.st.Notes.ListBy(ctx, p.column(), p.ID)
	if err != nil {
		slog.Warn("load notes for deletion failed", "parent", p.Kind, "id", p.ID, "err", err)
		return
	}
	for _, n := range notes {
		if err := s.st.Notes.Delete(ctx, n.ID); err != nil {
			slog.Warn("delete note failed", "noteId", n.ID, "err", err)
			continue
		}
		s.changed(ctx, store.Notes, n.ID, events.OpDelete)
	}
}

func candidatID(n model.Note) *string      { return n.CandidatID }
func candidatureWPID(n model.Note) *string { return n.CandidatureWPID }
