package rewards

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/task-rewards/internal/model"
)

// TaskInput holds the editable fields of a task.
type TaskInput struct {
	Name   string
	Points int
	Day    string
	UserID int
}

// CompleteTask marks one of the caller's tasks as done and credits its
// points to both the lifetime total and the spendable balance. Tasks
// that belong to someone else or are already completed are left alone
// without an error.
func (s *Service) CompleteTask(ctx context.Context, taskID int) error {
	return s.docs.Mutate(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		t, ok := doc.Task(taskID)
		if !ok {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		if t.UserID != u.ID || t.Completed {
			s.logger.Debug("complete task ignored",
				zap.Int("task_id", taskID),
				zap.Int("user_id", u.ID),
				zap.Bool("completed", t.Completed),
			)
			return nil
		}

		now := s.now()
		t.Completed = true
		t.CompletedAt = &now
		u.TotalPoints += t.Points
		u.CurrentPoints += t.Points

		doc.AddNotification(&u.ID,
			fmt.Sprintf("You completed %q and earned %d points.", t.Name, t.Points),
			model.LinkCompletedTasks, now,
		)
		s.logger.Info("task completed",
			zap.Int("task_id", t.ID),
			zap.Int("user_id", u.ID),
			zap.Int("points", t.Points),
		)
		return nil
	})
}

// validateTask normalizes input and checks it against doc. Problems are
// reported to the admin identified by actorID.
func (s *Service) validateTask(doc *model.Document, actorID int, in *TaskInput) (model.Day, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return "", s.reject(doc, actorID, model.LinkTasks, "A task needs a name.")
	}
	if in.Points <= 0 {
		return "", s.reject(doc, actorID, model.LinkTasks, "Task %q must be worth at least 1 point.", in.Name)
	}
	day, err := model.ParseDay(in.Day)
	if err != nil {
		return "", s.reject(doc, actorID, model.LinkTasks, "Task %q has an unknown day %q.", in.Name, in.Day)
	}
	if _, ok := doc.User(in.UserID); !ok {
		return "", s.reject(doc, actorID, model.LinkTasks, "Task %q is assigned to an unknown user.", in.Name)
	}
	return day, nil
}

// CreateTask adds a task and notifies the assignee.
func (s *Service) CreateTask(ctx context.Context, in TaskInput) (model.Task, error) {
	var created model.Task
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		day, err := s.validateTask(doc, actor.ID, &in)
		if err != nil {
			return err
		}

		created = doc.AddTask(model.Task{
			Name:   in.Name,
			Points: in.Points,
			Day:    day,
			UserID: in.UserID,
		})
		doc.AddNotification(&created.UserID,
			fmt.Sprintf("New task assigned: %q on %s.", created.Name, created.Day),
			model.LinkTasks, s.now(),
		)
		s.logger.Info("task created", zap.Int("task_id", created.ID), zap.Int("user_id", created.UserID))
		return nil
	})
	return created, err
}

// UpdateTask edits a task. Completion state is kept. A reassigned task
// notifies its new assignee.
func (s *Service) UpdateTask(ctx context.Context, taskID int, in TaskInput) (model.Task, error) {
	var updated model.Task
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		actor, err := s.admin(doc)
		if err != nil {
			return err
		}
		t, ok := doc.Task(taskID)
		if !ok {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		day, err := s.validateTask(doc, actor.ID, &in)
		if err != nil {
			return err
		}

		reassigned := t.UserID != in.UserID
		t.Name = in.Name
		t.Points = in.Points
		t.Day = day
		t.UserID = in.UserID
		updated = *t

		if reassigned {
			doc.AddNotification(&updated.UserID,
				fmt.Sprintf("Task %q on %s is now yours.", updated.Name, updated.Day),
				model.LinkTasks, s.now(),
			)
		}
		s.logger.Info("task updated", zap.Int("task_id", taskID))
		return nil
	})
	return updated, err
}

// DeleteTask removes a task. Points already earned are kept.
func (s *Service) DeleteTask(ctx context.Context, taskID int) error {
	return s.docs.Mutate(ctx, func(doc *model.Document) error {
		if _, err := s.admin(doc); err != nil {
			return err
		}
		if !doc.RemoveTask(taskID) {
			return fmt.Errorf("task %d: %w", taskID, ErrNotFound)
		}
		s.logger.Info("task deleted", zap.Int("task_id", taskID))
		return nil
	})
}

// ResetWeek reopens every completed task for a new week. Earned points
// are kept.
func (s *Service) ResetWeek(ctx context.Context) (int, error) {
	reopened := 0
	err := s.docs.Mutate(ctx, func(doc *model.Document) error {
		if _, err := s.admin(doc); err != nil {
			return err
		}
		for i := range doc.Tasks {
			if doc.Tasks[i].Completed {
				doc.Tasks[i].Completed = false
				doc.Tasks[i].CompletedAt = nil
				reopened++
			}
		}
		if reopened > 0 {
			doc.AddNotification(nil,
				fmt.Sprintf("A new week started: %d tasks were reopened.", reopened),
				model.LinkTasks, s.now(),
			)
		}
		s.logger.Info("week reset", zap.Int("reopened", reopened))
		return nil
	})
	return reopened, err
}

// MyTasks lists the caller's tasks with the given completion state,
// ordered by weekday.
func (s *Service) MyTasks(ctx context.Context, completed bool) ([]model.Task, error) {
	var tasks []model.Task
	err := s.docs.View(ctx, func(doc *model.Document) error {
		u, err := s.caller(doc)
		if err != nil {
			return err
		}
		for _, t := range doc.Tasks {
			if t.UserID == u.ID && t.Completed == completed {
				tasks = append(tasks, t)
			}
		}
		return nil
	})
	sortTasks(tasks)
	return tasks, err
}

// Tasks lists every task (admin only), ordered by weekday.
func (s *Service) Tasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	err := s.docs.View(ctx, func(doc *model.Document) error {
		if _, err := s.admin(doc); err != nil {
			return err
		}
		tasks = slices.Clone(doc.Tasks)
		return nil
	})
	sortTasks(tasks)
	return tasks, err
}

func sortTasks(tasks []model.Task) {
	slices.SortStableFunc(tasks, func(a, b model.Task) int {
		if d := slices.Index(model.Weekdays, a.Day) - slices.Index(model.Weekdays, b.Day); d != 0 {
			return d
		}
		return a.ID - b.ID
	})
}
