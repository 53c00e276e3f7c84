package changefeed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgetme/pkg/domain"
	"budgetme/pkg/platform/sentinel"
)

// wireEvent is the JSON shape shared by the postgres, redis and kafka
// backends. Scoping ids are optional: a families insert has no user, a
// personal-goal change has no family.
type wireEvent struct {
	Table    string    `json:"table"`
	Op       string    `json:"op"`
	FamilyID string    `json:"family_id,omitempty"`
	UserID   string    `json:"user_id,omitempty"`
	RecordID string    `json:"record_id"`
	At       time.Time `json:"at"`
}

// EncodeEvent marshals an event into the wire payload.
func EncodeEvent(e Event) ([]byte, error) {
	w := wireEvent{
		Table:    string(e.Table),
		Op:       string(e.Op),
		RecordID: e.RecordID.String(),
		At:       e.At.UTC(),
	}
	if !e.FamilyID.IsZero() {
		w.FamilyID = e.FamilyID.String()
	}
	if (e.UserID != domain.UserID{}) {
		w.UserID = e.UserID.String()
	}
	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

// DecodeEvent unmarshals a wire payload. Structural problems wrap
// sentinel.ErrMalformed so receive loops can log and skip.
func DecodeEvent(payload []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(payload, &w); err != nil {
		return Event{}, fmt.Errorf("decode event: %v: %w", err, sentinel.ErrMalformed)
	}

	e := Event{Table: Table(w.Table), Op: Op(w.Op), At: w.At}
	switch e.Op {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return Event{}, fmt.Errorf("decode event: unknown op %q: %w", w.Op, sentinel.ErrMalformed)
	}

	rid, err := uuid.Parse(w.RecordID)
	if err != nil {
		return Event{}, fmt.Errorf("decode event: record id: %v: %w", err, sentinel.ErrMalformed)
	}
	e.RecordID = rid

	if w.FamilyID != "" {
		fid, err := domain.ParseFamilyID(w.FamilyID)
		if err != nil {
			return Event{}, fmt.Errorf("decode event: family id: %w", err)
		}
		e.FamilyID = fid
	}
	if w.UserID != "" {
		uid, err := domain.ParseUserID(w.UserID)
		if err != nil {
			return Event{}, fmt.Errorf("decode event: user id: %w", err)
		}
		e.UserID = uid
	}
	return e, nil
}
