package rewards

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/auth"
	"github.com/nhle/task-rewards/internal/model"
)

// UserInput holds the editable fields of an account. An empty Password
// on update keeps the current one; an empty Role keeps (or defaults to
// common).
type UserInput struct {
	Username string
	Password string
	Role     model.Role
}

// CreateUser adds an account (admin only). Usernames are unique.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (model.User, error) {
	var created model.User
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		actorID := actor.ID

		in.Username = strings.TrimSpace(in.Username)
		if in.Username == "" {
			return s.reject(doc, actorID, model.LinkUsers, "A username is required.")
		}
		if _, taken := doc.UserByName(in.Username); taken {
			return s.reject(doc, actorID, model.LinkUsers, "Username %q is already taken.", in.Username)
		}
		if in.Role == "" {
			in.Role = model.RoleCommon
		}
		if !in.Role.Valid() {
			return s.reject(doc, actorID, model.LinkUsers, "Unknown role %q.", in.Role)
		}
		if in.Password == "" {
			return s.reject(doc, actorID, model.LinkUsers, "User %q needs a password.", in.Username)
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return err
		}

		created = doc.AddUser(model.User{
			Username:     in.Username,
			PasswordHash: hash,
			Role:         in.Role,
		})
		doc.AddNotification(&actorID,
			fmt.Sprintf("User %q was created.", created.Username),
			model.LinkUsers, s.now(),
		)
		s.logger.Info("user created",
			zap.Int("user_id", created.ID),
			zap.String("role", string(created.Role)),
			zap.Int("admin_id", actorID),
		)
		return nil
	})
	return created, err
}

// UpdateUser edits an account (admin only). The last admin cannot be
// demoted.
func (s *Service) UpdateUser(ctx context.Context, userID int, in UserInput) (model.User, error) {
	var updated model.User
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		actorID := actor.ID

		u, ok := doc.User(userID)
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}

		in.Username = strings.TrimSpace(in.Username)
		if in.Username == "" {
			in.Username = u.Username
		}
		if other, taken := doc.UserByName(in.Username); taken && other.ID != userID {
			return s.reject(doc, actorID, model.LinkUsers, "Username %q is already taken.", in.Username)
		}
		if in.Role == "" {
			in.Role = u.Role
		}
		if !in.Role.Valid() {
			return s.reject(doc, actorID, model.LinkUsers, "Unknown role %q.", in.Role)
		}
		if u.IsAdmin() && in.Role != model.RoleAdmin && doc.AdminCount() == 1 {
			return s.reject(doc, actorID, model.LinkUsers, "%q is the last admin and must stay an admin.", u.Username)
		}

		if in.Password != "" {
			hash, err := auth.HashPassword(in.Password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		u.Username = in.Username
		u.Role = in.Role
		updated = *u

		s.logger.Info("user updated", zap.Int("user_id", userID), zap.Int("admin_id", actorID))
		return nil
	})
	return updated, err
}

// DeleteUser removes an account with its tasks, requests and
// notifications (admin only). The last admin cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, userID int) error {
	return s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		actorID := actor.ID

		u, ok := doc.User(userID)
		if !ok {
			return fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		if u.IsAdmin() && doc.AdminCount() == 1 {
			return s.reject(doc, actorID, model.LinkUsers, "%q is the last admin and cannot be deleted.", u.Username)
		}

		name := u.Username
		doc.RemoveUser(userID)

		var recipient *int
		if actorID != userID {
			recipient = &actorID
		}
		doc.AddNotification(recipient, fmt.Sprintf("User %q was deleted.", name), model.LinkUsers, s.now())
		s.logger.Info("user deleted", zap.Int("user_id", userID), zap.Int("admin_id", actorID))
		return nil
	})
}

// Users lists every account (admin only), by ID.
func (s *Service) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.docs.View(ctx, func(doc *model.Document) error {
		if _, err := s.admin(doc); err != nil {
			return err
		}
		users = slices.Clone(doc.Users)
		return nil
	})
	slices.SortFunc(users, func(a, b model.User) int { return a.ID - b.ID })
	return users, err
}

// userIDs returns the IDs of users matching keep, ascending.
func userIDs(doc *model.Document, keep func(model.User) bool) []int {
	var ids []int
	for _, u := range doc.Users {
		if keep(u) {
			ids = append(ids, u.ID)
		}
	}
	slices.Sort(ids)
	return ids
}
