package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	d := NewDocument()
	a := d.AddProduct(Product{Name: "Sticker", Points: 5})
	b := d.AddProduct(Product{Name: "Movie", Points: 30})
	require.Equal(t, 1, a.ID)
	require.Equal(t, 2, b.ID)

	require.True(t, d.RemoveProduct(b.ID))
	c := d.AddProduct(Product{Name: "Ice cream", Points: 10})
	assert.Equal(t, 3, c.ID)
}

func TestNextIDSurvivesHandEditedDocuments(t *testing.T) {
	d := NewDocument()
	d.Tasks = append(d.Tasks, Task{ID: 41, Name: "Imported"})

	task := d.AddTask(Task{Name: "New"})
	assert.Equal(t, 42, task.ID)
	assert.Equal(t, 42, d.Seq.Tasks)
}

func TestRemoveUserCascades(t *testing.T) {
	d := NewDocument()
	admin := d.AddUser(User{Username: "admin", Role: RoleAdmin})
	ana := d.AddUser(User{Username: "ana", Role: RoleCommon})
	p := d.AddProduct(Product{Name: "Sticker", Points: 5})
	d.AddTask(Task{Name: "Dishes", UserID: ana.ID, Day: Monday, Points: 10})
	d.AddTask(Task{Name: "Laundry", UserID: admin.ID, Day: Monday, Points: 10})
	d.AddRequest(Request{UserID: ana.ID, ProductID: p.ID})
	d.AddNotification(&ana.ID, "hi ana", "", time.Now())
	d.AddNotification(nil, "system", "", time.Now())

	require.True(t, d.RemoveUser(ana.ID))

	assert.Len(t, d.Users, 1)
	assert.Len(t, d.Tasks, 1)
	assert.Empty(t, d.Requests)
	require.Len(t, d.Notifications, 1)
	assert.Nil(t, d.Notifications[0].UserID)
	assert.NoError(t, d.Validate())
}

func TestRemoveProductCascadesRequests(t *testing.T) {
	d := NewDocument()
	u := d.AddUser(User{Username: "admin", Role: RoleAdmin})
	p := d.AddProduct(Product{Name: "Sticker", Points: 5})
	other := d.AddProduct(Product{Name: "Movie", Points: 30})
	d.AddRequest(Request{UserID: u.ID, ProductID: p.ID})
	d.AddRequest(Request{UserID: u.ID, ProductID: other.ID})

	require.True(t, d.RemoveProduct(p.ID))
	require.Len(t, d.Requests, 1)
	assert.Equal(t, other.ID, d.Requests[0].ProductID)
	assert.False(t, d.RemoveProduct(p.ID))
}

func TestAddNotificationCopiesRecipient(t *testing.T) {
	d := NewDocument()
	u := d.AddUser(User{Username: "admin", Role: RoleAdmin})
	ptr := &d.Users[0].ID

	n := d.AddNotification(ptr, "hello", LinkTasks, time.Now())
	d.Users[0].ID = 99

	require.NotNil(t, n.UserID)
	assert.Equal(t, u.ID, *n.UserID)
	assert.True(t, d.Notifications[0].For(u.ID))
	assert.False(t, d.Notifications[0].For(99))
}

func TestValidateReportsBrokenReferences(t *testing.T) {
	d := NewDocument()
	d.Users = append(d.Users, User{ID: 1, Username: "ana", Role: RoleCommon, CurrentPoints: -1})
	d.Tasks = append(d.Tasks, Task{ID: 1, UserID: 7})
	d.Requests = append(d.Requests, Request{ID: 1, UserID: 1, ProductID: 3, State: Pending{}})

	err := d.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no admin user")
	assert.Contains(t, err.Error(), "task 1: unknown user 7")
	assert.Contains(t, err.Error(), "request 1: unknown product 3")
	assert.Contains(t, err.Error(), "negative balance")
}

func TestDocumentEncodesEmptyArrays(t *testing.T) {
	var d Document
	d.Normalize()

	data, err := json.Marshal(&d)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"users":[]`)
	assert.Contains(t, string(data), `"notifications":[]`)
}

func TestUsernamesCompareCaseInsensitively(t *testing.T) {
	d := NewDocument()
	d.AddUser(User{Username: "Ana", Role: RoleCommon})

	u, ok := d.UserByName("  ana ")
	require.True(t, ok)
	assert.Equal(t, "Ana", u.Username)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay(" Monday ")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)

	_, err = ParseDay("someday")
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*60*60)
	now := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)

	end := EndOfDay(now)
	assert.Equal(t, 2024, end.Year())
	assert.Equal(t, 1, end.Day())
	assert.Equal(t, 23, end.Hour())
	assert.Equal(t, 59, end.Minute())

	sess := Session{ID: "s", UserID: 1, Expiry: end}
	assert.False(t, sess.Expired(now))
	assert.True(t, sess.Expired(end.Add(time.Nanosecond)))
}
