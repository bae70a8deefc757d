package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Sequences records the highest ID ever issued per collection so that
// IDs of deleted records are not handed out again.
type Sequences struct {
	Users         int `json:"users"`
	Tasks         int `json:"tasks"`
	Products      int `json:"products"`
	Requests      int `json:"requests"`
	Notifications int `json:"notifications"`
}

// Document is the whole database: every collection in one aggregate
// that is loaded and persisted wholesale.
type Document struct {
	Users         []User         `json:"users"`
	Tasks         []Task         `json:"tasks"`
	Products      []Product      `json:"products"`
	Requests      []Request      `json:"requests"`
	Notifications []Notification `json:"notifications"`
	Seq           Sequences      `json:"seq"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{
		Users:         []User{},
		Tasks:         []Task{},
		Products:      []Product{},
		Requests:      []Request{},
		Notifications: []Notification{},
	}
}

// nextID returns max(highest issued, highest present) + 1 and records it.
func nextID[T any](seq *int, items []T, id func(T) int) int {
	top := *seq
	for _, it := range items {
		top = max(top, id(it))
	}
	top++
	*seq = top
	return top
}

// --- Users ---

// User returns a pointer to the user with the given ID.
func (d *Document) User(id int) (*User, bool) {
	i := slices.IndexFunc(d.Users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Users[i], true
}

// UserByName finds a user by username.
func (d *Document) UserByName(username string) (*User, bool) {
	i := slices.IndexFunc(d.Users, func(u User) bool { return SameUsername(u.Username, username) })
	if i < 0 {
		return nil, false
	}
	return &d.Users[i], true
}

// AddUser assigns the next user ID and appends u.
func (d *Document) AddUser(u User) User {
	u.ID = nextID(&d.Seq.Users, d.Users, func(u User) int { return u.ID })
	d.Users = append(d.Users, u)
	return u
}

// AdminCount returns the number of users with the admin role.
func (d *Document) AdminCount() int {
	n := 0
	for _, u := range d.Users {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}

// RemoveUser deletes a user together with their tasks, requests and
// notifications.
func (d *Document) RemoveUser(id int) bool {
	before := len(d.Users)
	d.Users = slices.DeleteFunc(d.Users, func(u User) bool { return u.ID == id })
	if len(d.Users) == before {
		return false
	}
	d.Tasks = slices.DeleteFunc(d.Tasks, func(t Task) bool { return t.UserID == id })
	d.Requests = slices.DeleteFunc(d.Requests, func(r Request) bool { return r.UserID == id })
	d.Notifications = slices.DeleteFunc(d.Notifications, func(n Notification) bool { return n.For(id) })
	return true
}

// --- Tasks ---

// Task returns a pointer to the task with the given ID.
func (d *Document) Task(id int) (*Task, bool) {
	i := slices.IndexFunc(d.Tasks, func(t Task) bool { return t.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Tasks[i], true
}

// AddTask assigns the next task ID and appends t.
func (d *Document) AddTask(t Task) Task {
	t.ID = nextID(&d.Seq.Tasks, d.Tasks, func(t Task) int { return t.ID })
	d.Tasks = append(d.Tasks, t)
	return t
}

// RemoveTask deletes a task.
func (d *Document) RemoveTask(id int) bool {
	before := len(d.Tasks)
	d.Tasks = slices.DeleteFunc(d.Tasks, func(t Task) bool { return t.ID == id })
	return len(d.Tasks) != before
}

// --- Products ---

// Product returns a pointer to the product with the given ID.
func (d *Document) Product(id int) (*Product, bool) {
	i := slices.IndexFunc(d.Products, func(p Product) bool { return p.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Products[i], true
}

// AddProduct assigns the next product ID and appends p.
func (d *Document) AddProduct(p Product) Product {
	p.ID = nextID(&d.Seq.Products, d.Products, func(p Product) int { return p.ID })
	d.Products = append(d.Products, p)
	return p
}

// RemoveProduct deletes a product and every request for it.
func (d *Document) RemoveProduct(id int) bool {
	before := len(d.Products)
	d.Products = slices.DeleteFunc(d.Products, func(p Product) bool { return p.ID == id })
	if len(d.Products) == before {
		return false
	}
	d.Requests = slices.DeleteFunc(d.Requests, func(r Request) bool { return r.ProductID == id })
	return true
}

// --- Requests ---

// Request returns a pointer to the request with the given ID.
func (d *Document) Request(id int) (*Request, bool) {
	i := slices.IndexFunc(d.Requests, func(r Request) bool { return r.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Requests[i], true
}

// AddRequest assigns the next request ID and appends r in the pending
// state.
func (d *Document) AddRequest(r Request) Request {
	r.ID = nextID(&d.Seq.Requests, d.Requests, func(r Request) int { return r.ID })
	r.State = Pending{}
	d.Requests = append(d.Requests, r)
	return r
}

// RemoveRequest deletes a request.
func (d *Document) RemoveRequest(id int) bool {
	before := len(d.Requests)
	d.Requests = slices.DeleteFunc(d.Requests, func(r Request) bool { return r.ID == id })
	return len(d.Requests) != before
}

// --- Notifications ---

// Notification returns a pointer to the notification with the given ID.
func (d *Document) Notification(id int) (*Notification, bool) {
	i := slices.IndexFunc(d.Notifications, func(n Notification) bool { return n.ID == id })
	if i < 0 {
		return nil, false
	}
	return &d.Notifications[i], true
}

// AddNotification appends a notification for userID (nil for a system
// notification). The ID is copied, so userID may point into the document.
func (d *Document) AddNotification(userID *int, message, link string, at time.Time) Notification {
	n := Notification{
		Message:   message,
		Link:      link,
		CreatedAt: at,
	}
	if userID != nil {
		id := *userID
		n.UserID = &id
	}
	n.ID = nextID(&d.Seq.Notifications, d.Notifications, func(n Notification) int { return n.ID })
	d.Notifications = append(d.Notifications, n)
	return n
}

// Validate checks referential integrity and the admin invariant.
func (d *Document) Validate() error {
	var errs []error

	if len(d.Users) > 0 && d.AdminCount() == 0 {
		errs = append(errs, errors.New("no admin user"))
	}
	for _, t := range d.Tasks {
		if _, ok := d.User(t.UserID); !ok {
			errs = append(errs, fmt.Errorf("task %d: unknown user %d", t.ID, t.UserID))
		}
	}
	for _, r := range d.Requests {
		if _, ok := d.User(r.UserID); !ok {
			errs = append(errs, fmt.Errorf("request %d: unknown user %d", r.ID, r.UserID))
		}
		if _, ok := d.Product(r.ProductID); !ok {
			errs = append(errs, fmt.Errorf("request %d: unknown product %d", r.ID, r.ProductID))
		}
		if u, ok := r.State.(Unrecognized); ok {
			errs = append(errs, fmt.Errorf("request %d: unknown status %q", r.ID, u.Label))
		}
	}
	for _, u := range d.Users {
		if u.CurrentPoints < 0 {
			errs = append(errs, fmt.Errorf("user %d: negative balance %d", u.ID, u.CurrentPoints))
		}
	}

	return errors.Join(errs...)
}

// Normalize replaces nil collections with empty ones so the encoded
// document always carries arrays.
func (d *Document) Normalize() {
	if d.Users == nil {
		d.Users = []User{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Products == nil {
		d.Products = []Product{}
	}
	if d.Requests == nil {
		d.Requests = []Request{}
	}
	if d.Notifications == nil {
		d.Notifications = []Notification{}
	}
}
