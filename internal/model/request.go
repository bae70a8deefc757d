package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// RequestStatus is the wire label of a request state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

// Labels written by the first web client. Accepted on decode only.
var legacyStatuses = map[string]RequestStatus{
	"Aguardando Avaliação": StatusPending,
	"Aprovado":             StatusApproved,
	"Rejeitado":            StatusRejected,
}

// ErrRequestModerated is returned when a moderated request is asked to
// change state again.
var ErrRequestModerated = errors.New("request already moderated")

// RequestState is one of Pending, Approved, Rejected or Unrecognized.
type RequestState interface {
	Status() RequestStatus
	requestState()
}

// Pending is the initial state of every request.
type Pending struct{}

// Approved is terminal. The product cost was debited at ModeratedAt.
type Approved struct {
	ModeratedAt time.Time
}

// Rejected is terminal and always carries the admin's justification.
type Rejected struct {
	ModeratedAt   time.Time
	Justification string
}

// Unrecognized holds a status label this client does not know, such as
// one written by hand or by a newer client. It is kept verbatim and
// cannot be moderated.
type Unrecognized struct {
	Label         string
	ModeratedAt   time.Time
	Justification string
}

func (Pending) Status() RequestStatus        { return StatusPending }
func (Approved) Status() RequestStatus       { return StatusApproved }
func (Rejected) Status() RequestStatus       { return StatusRejected }
func (u Unrecognized) Status() RequestStatus { return RequestStatus(u.Label) }

func (Pending) requestState()      {}
func (Approved) requestState()     {}
func (Rejected) requestState()     {}
func (Unrecognized) requestState() {}

// Request is a user's redemption of a product.
type Request struct {
	ID        int
	UserID    int
	ProductID int
	CreatedAt time.Time
	State     RequestState
}

// Status returns the label of the current state.
func (r Request) Status() RequestStatus {
	if r.State == nil {
		return StatusPending
	}
	return r.State.Status()
}

// IsPending reports whether the request still awaits moderation.
func (r Request) IsPending() bool {
	return r.Status() == StatusPending
}

// ModeratedAt returns when the request was approved or rejected.
func (r Request) ModeratedAt() (time.Time, bool) {
	switch s := r.State.(type) {
	case Approved:
		return s.ModeratedAt, !s.ModeratedAt.IsZero()
	case Rejected:
		return s.ModeratedAt, !s.ModeratedAt.IsZero()
	case Unrecognized:
		return s.ModeratedAt, !s.ModeratedAt.IsZero()
	}
	return time.Time{}, false
}

// Approve moves a pending request to Approved.
func (r *Request) Approve(at time.Time) error {
	if !r.IsPending() {
		return ErrRequestModerated
	}
	r.State = Approved{ModeratedAt: at}
	return nil
}

// Reject moves a pending request to Rejected.
func (r *Request) Reject(at time.Time, justification string) error {
	if !r.IsPending() {
		return ErrRequestModerated
	}
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return errors.New("justification is required")
	}
	r.State = Rejected{ModeratedAt: at, Justification: justification}
	return nil
}

// requestWire is the flat JSON shape stored in the document.
type requestWire struct {
	ID            int        `json:"id"`
	UserID        int        `json:"userId"`
	ProductID     int        `json:"productId"`
	Status        string     `json:"status"`
	Justification string     `json:"justification,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	ModeratedAt   *time.Time `json:"moderatedAt,omitempty"`
}

// MarshalJSON flattens the state into status, justification and
// moderatedAt fields. A zero moderatedAt is omitted.
func (r Request) MarshalJSON() ([]byte, error) {
	w := requestWire{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Status:    string(r.Status()),
		CreatedAt: r.CreatedAt,
	}
	switch s := r.State.(type) {
	case Approved:
		w.ModeratedAt = timeOrNil(s.ModeratedAt)
	case Rejected:
		w.ModeratedAt = timeOrNil(s.ModeratedAt)
		w.Justification = s.Justification
	case Unrecognized:
		w.ModeratedAt = timeOrNil(s.ModeratedAt)
		w.Justification = s.Justification
	}
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds the state from the flat fields. Fields that do
// not belong to the decoded status are dropped. An unknown status is
// kept as Unrecognized; Document.Validate reports it.
func (r *Request) UnmarshalJSON(data []byte) error {
	var w requestWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	status := RequestStatus(w.Status)
	if legacy, ok := legacyStatuses[w.Status]; ok {
		status = legacy
	}

	var moderatedAt time.Time
	if w.ModeratedAt != nil {
		moderatedAt = *w.ModeratedAt
	}

	var state RequestState
	switch status {
	case StatusPending, "":
		state = Pending{}
	case StatusApproved:
		state = Approved{ModeratedAt: moderatedAt}
	case StatusRejected:
		state = Rejected{ModeratedAt: moderatedAt, Justification: w.Justification}
	default:
		state = Unrecognized{Label: w.Status, ModeratedAt: moderatedAt, Justification: w.Justification}
	}

	*r = Request{
		ID:        w.ID,
		UserID:    w.UserID,
		ProductID: w.ProductID,
		CreatedAt: w.CreatedAt,
		State:     state,
	}
	return nil
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
