package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTransitionsOnlyFromPending(t *testing.T) {
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	r := Request{ID: 1, State: Pending{}}
	require.NoError(t, r.Approve(at))
	assert.Equal(t, StatusApproved, r.Status())
	assert.ErrorIs(t, r.Approve(at), ErrRequestModerated)
	assert.ErrorIs(t, r.Reject(at, "late"), ErrRequestModerated)

	moderated, ok := r.ModeratedAt()
	require.True(t, ok)
	assert.Equal(t, at, moderated)
}

func TestRejectRequiresJustification(t *testing.T) {
	r := Request{ID: 1, State: Pending{}}
	require.Error(t, r.Reject(time.Now(), "   "))
	assert.True(t, r.IsPending())

	require.NoError(t, r.Reject(time.Now(), "  Out of stock "))
	rejected, ok := r.State.(Rejected)
	require.True(t, ok)
	assert.Equal(t, "Out of stock", rejected.Justification)
}

func TestRequestJSONIsFlat(t *testing.T) {
	at := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	r := Request{ID: 3, UserID: 2, ProductID: 1, CreatedAt: at, State: Rejected{ModeratedAt: at, Justification: "No"}}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "rejected", raw["status"])
	assert.Equal(t, "No", raw["justification"])
	assert.Equal(t, "2024-01-02T10:00:00Z", raw["moderatedAt"])

	var back Request
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestPendingRequestOmitsModerationFields(t *testing.T) {
	data, err := json.Marshal(Request{ID: 1, State: Pending{}})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "moderatedAt")
	assert.NotContains(t, string(data), "justification")
}

func TestRequestDecodesLegacyLabels(t *testing.T) {
	tests := []struct {
		label string
		want  RequestStatus
	}{
		{"Aguardando Avaliação", StatusPending},
		{"Aprovado", StatusApproved},
		{"Rejeitado", StatusRejected},
		{"", StatusPending},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			var r Request
			body := `{"id":1,"userId":2,"productId":3,"status":"` + tt.label + `","createdAt":"2024-01-01T00:00:00Z"}`
			require.NoError(t, json.Unmarshal([]byte(body), &r))
			assert.Equal(t, tt.want, r.Status())
		})
	}
}

func TestRequestKeepsUnknownStatus(t *testing.T) {
	body := `{"id":9,"userId":2,"productId":3,"status":"cancelled","justification":"moved","createdAt":"2024-01-01T00:00:00Z","moderatedAt":"2024-01-02T00:00:00Z"}`

	var r Request
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	assert.Equal(t, RequestStatus("cancelled"), r.Status())
	assert.False(t, r.IsPending())
	assert.ErrorIs(t, r.Approve(time.Now()), ErrRequestModerated)
	assert.ErrorIs(t, r.Reject(time.Now(), "no"), ErrRequestModerated)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, body, string(data))
}

func TestValidateReportsUnknownStatus(t *testing.T) {
	doc := NewDocument()
	u := doc.AddUser(User{Username: "admin", Role: RoleAdmin})
	p := doc.AddProduct(Product{Name: "Sticker", Points: 5})
	doc.Requests = append(doc.Requests, Request{ID: 1, UserID: u.ID, ProductID: p.ID, State: Unrecognized{Label: "lost"}})

	assert.ErrorContains(t, doc.Validate(), `request 1: unknown status "lost"`)
}

func TestLegacyModeratedRequestWithoutTimestamp(t *testing.T) {
	body := `{"id":4,"userId":2,"productId":3,"status":"Aprovado","createdAt":"2024-01-01T00:00:00Z"}`

	var r Request
	require.NoError(t, json.Unmarshal([]byte(body), &r))
	_, ok := r.ModeratedAt()
	assert.False(t, ok)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "moderatedAt")
	assert.JSONEq(t, `{"id":4,"userId":2,"productId":3,"status":"approved","createdAt":"2024-01-01T00:00:00Z"}`, string(data))
}

func TestApprovedDropsStrayJustification(t *testing.T) {
	var r Request
	body := `{"id":1,"status":"approved","justification":"ignored","moderatedAt":"2024-01-02T00:00:00Z"}`
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	_, ok := r.State.(Approved)
	assert.True(t, ok)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ignored")
}
