// Package docstore keeps the in-memory snapshot of the document and
// propagates it to the local cache and the remote store.
//
// Every mutation follows the same discipline: load the latest remote
// document (falling back to the cache), change it, then persist it
// wholesale to the cache and, when writable, to the remote. Remote
// failures never abort an operation; they become notifications.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/remote"
	"github.com/nhle/task-rewards/internal/store"
)

// ErrUnreadableDocument marks a remote document that was fetched but
// could not be decoded. The store never overwrites it.
var ErrUnreadableDocument = errors.New("shared document is unreadable")

// Remote is the authoritative copy of the document.
type Remote interface {
	Fetch(ctx context.Context) ([]byte, error)
	Writable() bool
	Version(ctx context.Context) (string, error)
	Write(ctx context.Context, content []byte, message, sha string) (string, error)
}

// Viewer reports the signed-in user, if any.
type Viewer interface {
	CurrentUserID() (int, bool)
}

// Source tells where the current snapshot came from.
type Source int

const (
	SourceNone Source = iota
	SourceRemote
	SourceCache
	SourceEmpty
)

func (s Source) String() string {
	switch s {
	case SourceRemote:
		return "remote"
	case SourceCache:
		return "local cache"
	case SourceEmpty:
		return "empty document"
	}
	return "none"
}

// RemoteState is what the last fetch found at the remote.
type RemoteState int

const (
	// RemoteUnknown means the remote could not be reached.
	RemoteUnknown RemoteState = iota
	RemoteOK
	// RemoteMissing means no document is stored yet, or no document
	// URL is configured.
	RemoteMissing
	RemoteUnreadable
)

func (r RemoteState) String() string {
	switch r {
	case RemoteOK:
		return "ok"
	case RemoteMissing:
		return "missing"
	case RemoteUnreadable:
		return "unreadable"
	}
	return "unknown"
}

// Status summarizes the last sync with the remote.
type Status struct {
	Source     Source
	Remote     RemoteState
	LoadedAt   time.Time
	PersistErr error
	Writable   bool
}

// Store owns the in-memory document.
type Store struct {
	cache         store.Cache
	remote        Remote
	viewer        Viewer
	logger        *zap.Logger
	now           func() time.Time
	commitMessage string

	mu     sync.Mutex
	doc    *model.Document
	status Status
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCommitMessage sets the message attached to remote writes.
func WithCommitMessage(msg string) Option {
	return func(s *Store) {
		if msg != "" {
			s.commitMessage = msg
		}
	}
}

// New creates a Store. Until Load is called the document is empty.
func New(cache store.Cache, rc Remote, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		cache:         cache,
		remote:        rc,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
		commitMessage: "Update task rewards data",
		doc:           model.NewDocument(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetViewer installs the session lookup used to address system
// notifications. It is set after construction because the session
// manager itself needs the Store.
func (s *Store) SetViewer(v Viewer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = v
}

// Load replaces the snapshot with the remote document and mirrors it
// into the cache. When the remote cannot be read it falls back to the
// cache, then to an empty document, and records a notification. It only
// fails when ctx is already done.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc, err := s.fetchRemote(ctx)
	if err == nil {
		s.doc = doc
		s.status.Source = SourceRemote
		s.status.Remote = RemoteOK
		s.status.LoadedAt = s.now()
		s.mirrorLocked(ctx)
		return nil
	}

	switch {
	case errors.Is(err, ErrUnreadableDocument):
		s.status.Remote = RemoteUnreadable
	case remote.IsNotFound(err), errors.Is(err, remote.ErrNoDocumentURL):
		s.status.Remote = RemoteMissing
	default:
		s.status.Remote = RemoteUnknown
	}

	s.logger.Warn("remote fetch failed, using fallback", zap.Error(err))

	doc, source := s.loadCached(ctx)
	s.doc = doc
	s.status.Source = source
	s.status.LoadedAt = s.now()

	s.notifyLocked(s.viewerID(),
		fmt.Sprintf("Could not load the shared data (%v). Working from the %s.", err, source),
		"",
	)
	return nil
}

// fetchRemote downloads and decodes the remote document.
func (s *Store) fetchRemote(ctx context.Context) (*model.Document, error) {
	body, err := s.remote.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := s.decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}
	return doc, nil
}

// loadCached reads the cached document. A corrupt entry falls back to
// the newest readable history entry when the cache keeps one.
func (s *Store) loadCached(ctx context.Context) (*model.Document, Source) {
	raw, err := s.cache.Get(ctx, store.KeyDocument)
	switch {
	case err == nil:
		doc, derr := s.decode([]byte(raw))
		if derr == nil {
			return doc, SourceCache
		}
		s.logger.Warn("cached document unreadable", zap.Error(derr))
	case errors.Is(err, store.ErrNotFound):
		return model.NewDocument(), SourceEmpty
	default:
		s.logger.Warn("reading cached document", zap.Error(err))
	}

	if hr, ok := s.cache.(store.HistoryReader); ok {
		entries, herr := hr.History(ctx, store.KeyDocument, 0)
		if herr != nil {
			s.logger.Warn("reading cache history", zap.Error(herr))
		}
		for _, e := range entries {
			if e.Value == raw {
				continue
			}
			if doc, derr := s.decode([]byte(e.Value)); derr == nil {
				s.logger.Info("restored document from cache history", zap.Int64("entry", e.ID))
				return doc, SourceCache
			}
		}
	}

	return model.NewDocument(), SourceEmpty
}

// decode parses a document. Integrity problems are logged, not fatal:
// the shared document may have been edited by hand.
func (s *Store) decode(body []byte) (*model.Document, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty document")
	}

	var doc model.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	doc.Normalize()

	if err := doc.Validate(); err != nil {
		s.logger.Warn("document failed integrity checks", zap.Error(err))
	}
	return &doc, nil
}

// mirrorLocked copies the snapshot into the cache. Failures are logged.
func (s *Store) mirrorLocked(ctx context.Context) {
	data, err := json.Marshal(s.doc)
	if err != nil {
		s.logger.Error("encoding document", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, store.KeyDocument, string(data)); err != nil {
		s.logger.Warn("mirroring document to cache", zap.Error(err))
	}
}

// Persist writes the snapshot to the cache, then to the remote when a
// write credential is configured. A remote failure is recorded as a
// notification and is not returned; only a cache failure is.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := s.cache.Set(ctx, store.KeyDocument, string(data)); err != nil {
		return fmt.Errorf("writing local cache: %w", err)
	}

	s.status.Writable = s.remote.Writable()
	if !s.status.Writable {
		return nil
	}

	if s.status.Remote == RemoteUnreadable {
		s.status.PersistErr = ErrUnreadableDocument
		s.logger.Warn("shared document is unreadable, not overwriting it")
		s.notifyLocked(s.viewerID(),
			"Changes were saved on this device only; the shared copy could not be read and was left untouched.",
			"",
		)
		s.mirrorLocked(ctx)
		return nil
	}

	if err := s.push(ctx, data); err != nil {
		s.status.PersistErr = err
		s.logger.Warn("remote write failed, kept local copy only", zap.Error(err))

		s.notifyLocked(s.viewerID(),
			fmt.Sprintf("Changes were saved on this device only; the shared copy was not updated (%v).", err),
			"",
		)
		s.mirrorLocked(ctx)
		return nil
	}

	s.status.PersistErr = nil
	return nil
}

// push reads the current version token and conditionally replaces the
// remote document.
func (s *Store) push(ctx context.Context, data []byte) error {
	sha, err := s.remote.Version(ctx)
	if err != nil {
		return err
	}

	newSHA, err := s.remote.Write(ctx, data, s.commitMessage, sha)
	if err != nil {
		return err
	}

	s.logger.Debug("remote document updated",
		zap.String("previous_sha", sha),
		zap.String("sha", newSHA),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Mutate loads the latest document, runs fn on it and persists the
// result if fn changed anything, even when fn returns an error. This
// lets a rejected operation still record its notification.
func (s *Store) Mutate(ctx context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}

	before, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	fnErr := fn(s.doc)

	after, err := json.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	if !bytes.Equal(before, after) {
		if err := s.persistLocked(ctx); err != nil {
			return errors.Join(fnErr, err)
		}
	}
	return fnErr
}

// Seed loads the latest document and runs fn only when the remote is
// known to hold no users: it has no document yet, or its document has
// no users. The result is persisted. Seed reports whether fn ran.
func (s *Store) Seed(ctx context.Context, fn func(doc *model.Document) error) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return false, err
	}
	if len(s.doc.Users) > 0 {
		return false, nil
	}
	if s.status.Remote != RemoteOK && s.status.Remote != RemoteMissing {
		s.logger.Warn("not seeding the document", zap.Stringer("remote", s.status.Remote))
		return false, nil
	}

	if err := fn(s.doc); err != nil {
		return false, err
	}
	return true, s.persistLocked(ctx)
}

// View loads the latest document and runs fn on it without persisting.
// fn must not modify the document.
func (s *Store) View(ctx context.Context, fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	return fn(s.doc)
}

// Read runs fn on the current snapshot without touching the network.
func (s *Store) Read(fn func(doc *model.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() (*model.Document, error) {
	s.mu.Lock()
	data, err := json.Marshal(s.doc)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("copying document: %w", err)
	}
	return &doc, nil
}

// Status returns where the snapshot came from and the last write result.
func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Notify appends a notification to the snapshot without persisting it.
func (s *Store) Notify(userID *int, message, link string) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifyLocked(userID, message, link)
}

func (s *Store) notifyLocked(userID *int, message, link string) model.Notification {
	return s.doc.AddNotification(userID, message, link, s.now())
}

// viewerID returns the signed-in user's ID for addressing notifications,
// or nil when nobody is signed in.
func (s *Store) viewerID() *int {
	if s.viewer == nil {
		return nil
	}
	id, ok := s.viewer.CurrentUserID()
	if !ok {
		return nil
	}
	return &id
}
