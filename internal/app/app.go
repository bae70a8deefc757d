package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/auth"
	"github.com/nhle/task-rewards/internal/docstore"
	"github.com/nhle/task-rewards/internal/keys"
	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/internal/store"
	"github.com/nhle/task-rewards/internal/theme"
	"github.com/nhle/task-rewards/internal/ui/board"
)

// Deps are the collaborators the shell drives.
type Deps struct {
	Cache   store.Cache
	Docs    *docstore.Store
	Auth    *auth.Manager
	Service *rewards.Service
	Logger  *zap.Logger
	Out     io.Writer

	// PollInterval is how often the open inbox reloads the document.
	PollInterval time.Duration
}

// App is the interactive shell: a sign-in form followed by an action
// menu that loops until the user quits.
type App struct {
	cache  store.Cache
	docs   *docstore.Store
	auth   *auth.Manager
	svc    *rewards.Service
	logger *zap.Logger
	out    io.Writer
	poll   time.Duration

	keys   *keys.KeyMap
	prefs  theme.Preferences
	styles theme.Styles
	board  board.Board
}

// New creates the shell.
func New(d Deps) *App {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	a := &App{
		cache:  d.Cache,
		docs:   d.Docs,
		auth:   d.Auth,
		svc:    d.Service,
		logger: d.Logger,
		out:    d.Out,
		poll:   d.PollInterval,
		keys:   keys.DefaultKeyMap(),
	}
	a.applyPreferences(theme.DefaultPreferences())
	return a
}

// Run loads the display preferences and runs the sign-in / menu loop.
// It returns nil when the user quits or aborts a top-level form.
func (a *App) Run(ctx context.Context) error {
	prefs, err := theme.LoadPreferences(ctx, a.cache)
	if err != nil {
		a.logger.Warn("loading preferences", zap.Error(err))
	}
	a.applyPreferences(prefs)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if _, ok := a.auth.CurrentUserID(); !ok {
			if err := a.login(ctx); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				a.report(err)
			}
			continue
		}

		me, err := a.svc.Me(ctx)
		if errors.Is(err, rewards.ErrNotSignedIn) {
			// The account was removed elsewhere.
			if err := a.auth.Logout(ctx); err != nil {
				a.logger.Warn("clearing stale session", zap.Error(err))
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("loading current user: %w", err)
		}

		a.printf("\n%s\n", a.board.Summary(me, a.svc.UnreadCount()))
		a.warnIfOffline()

		act, err := a.chooseAction(me)
		if errors.Is(err, huh.ErrUserAborted) || act == actionQuit {
			return nil
		}
		if err != nil {
			return err
		}

		if err := a.dispatch(ctx, me, act); err != nil {
			if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, errNothingToPick) {
				continue
			}
			a.report(err)
		}
	}
}

func (a *App) login(ctx context.Context) error {
	username, password, err := a.loginForm()
	if err != nil {
		return err
	}
	u, err := a.auth.Login(ctx, username, password)
	if err != nil {
		return err
	}
	a.printf("%s\n", a.styles.Points.Render(fmt.Sprintf("Welcome, %s.", u.Username)))
	return nil
}

// warnIfOffline prints a reminder when the last remote write failed or
// the snapshot did not come from the remote.
func (a *App) warnIfOffline() {
	st := a.docs.Status()
	switch {
	case st.PersistErr != nil:
		a.printf("%s\n", a.styles.Error.Render("Offline: changes are saved on this device only."))
	case st.Source == docstore.SourceCache || st.Source == docstore.SourceEmpty:
		a.printf("%s\n", a.styles.Muted.Render("Showing the "+st.Source.String()+"; the shared copy could not be read."))
	}
}

func (a *App) applyPreferences(p theme.Preferences) {
	a.prefs = p
	a.styles = theme.NewStyles(p)
	a.board = board.New(a.styles)
}

// report prints an operation failure in a user-facing form.
func (a *App) report(err error) {
	a.printf("%s\n", a.styles.Error.Render(describeError(err)))
	if !rewards.IsValidation(err) && !errors.Is(err, auth.ErrInvalidCredentials) {
		a.logger.Warn("action failed", zap.Error(err))
	}
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// describeError maps domain errors to a short message.
func describeError(err error) string {
	var vErr *rewards.ValidationError
	switch {
	case errors.As(err, &vErr):
		return vErr.Reason
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Wrong username or password."
	case errors.Is(err, rewards.ErrForbidden):
		return "You are not allowed to do that."
	case errors.Is(err, rewards.ErrNotSignedIn):
		return "Please sign in again."
	case errors.Is(err, rewards.ErrNotFound):
		return "That item no longer exists."
	}
	return "Something went wrong: " + err.Error()
}

// owners maps user IDs to usernames for table rendering.
func owners(users []model.User) map[int]string {
	m := make(map[int]string, len(users))
	for _, u := range users {
		m[u.ID] = u.Username
	}
	return m
}
