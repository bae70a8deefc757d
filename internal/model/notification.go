package model

import "time"

// Views a notification can link to.
const (
	LinkTasks             = "tasks"
	LinkCompletedTasks    = "completed-tasks"
	LinkProducts          = "products"
	LinkRequestedProducts = "requested-products"
	LinkRanking           = "ranking"
	LinkRequests          = "requests"
	LinkUsers             = "users"
)

// Notification is an inbox entry. The notification list doubles as the
// audit trail of every mutation.
type Notification struct {
	ID int `json:"id"`

	// UserID is the recipient. Nil marks a system notification that
	// is not addressed to anyone.
	UserID *int `json:"userId"`

	Message string `json:"message"`

	// Link names the view to open when the notification is selected.
	Link string `json:"link,omitempty"`

	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// For reports whether the notification is addressed to userID.
func (n Notification) For(userID int) bool {
	return n.UserID != nil && *n.UserID == userID
}
