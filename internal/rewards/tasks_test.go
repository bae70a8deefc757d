package rewards_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/tests/testutil"
)

func TestCompleteTaskCreditsOnce(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	task := addTask(t, env, "Dishes", 10, model.Monday, ana.ID)

	switchTo(t, env, "ana")
	require.NoError(t, env.Service.CompleteTask(ctx, task.ID))
	writes := len(env.Remote.Writes())
	require.NoError(t, env.Service.CompleteTask(ctx, task.ID))

	assert.Len(t, env.Remote.Writes(), writes)
	got := userByID(t, env, ana.ID)
	assert.Equal(t, 10, got.TotalPoints)
	assert.Equal(t, 10, got.CurrentPoints)

	stored, ok := env.Document(t).Task(task.ID)
	require.True(t, ok)
	assert.True(t, stored.Completed)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, testutil.Monday, *stored.CompletedAt)
}

func TestCompletingSeveralTasksCreditsTheirSum(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	tasks := []model.Task{
		addTask(t, env, "Dishes", 10, model.Monday, ana.ID),
		addTask(t, env, "Laundry", 7, model.Tuesday, ana.ID),
		addTask(t, env, "Trash", 3, model.Sunday, ana.ID),
	}

	switchTo(t, env, "ana")
	for _, task := range tasks {
		require.NoError(t, env.Service.CompleteTask(ctx, task.ID))
	}

	got := userByID(t, env, ana.ID)
	assert.Equal(t, 20, got.TotalPoints)
	assert.Equal(t, 20, got.CurrentPoints)

	stored, ok := env.Remote.Document(t).User(ana.ID)
	require.True(t, ok)
	assert.Equal(t, 20, stored.TotalPoints)
	assert.Equal(t, 20, stored.CurrentPoints)
}

func TestCompleteSomeoneElsesTaskIsIgnored(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	task := addTask(t, env, "Dishes", 10, model.Monday, ana.ID)

	require.NoError(t, env.Service.CompleteTask(ctx, task.ID))

	stored, ok := env.Document(t).Task(task.ID)
	require.True(t, ok)
	assert.False(t, stored.Completed)
	assert.Zero(t, userByID(t, env, ana.ID).TotalPoints)
	assert.Zero(t, userByID(t, env, 1).TotalPoints)
}

func TestCompleteUnknownTask(t *testing.T) {
	env := newAdminEnv(t)
	err := env.Service.CompleteTask(context.Background(), 42)
	assert.ErrorIs(t, err, rewards.ErrNotFound)
}

func TestOperationsRequireSignIn(t *testing.T) {
	ctx := context.Background()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)

	assert.ErrorIs(t, env.Service.CompleteTask(ctx, 1), rewards.ErrNotSignedIn)
	_, err := env.Service.MyTasks(ctx, false)
	assert.ErrorIs(t, err, rewards.ErrNotSignedIn)
	_, err = env.Service.Products(ctx)
	assert.ErrorIs(t, err, rewards.ErrNotSignedIn)
	_, err = env.Service.Me(ctx)
	assert.ErrorIs(t, err, rewards.ErrNotSignedIn)
}

func TestDeletedUserSessionIsNotSignedIn(t *testing.T) {
	ctx := context.Background()
	fake := testutil.NewFakeRemote(t)
	admin := testutil.NewEnvWithRemote(t, fake, testutil.Token)
	admin.Bootstrap(t)
	admin.LoginAs(t, "admin", "admin")
	ana := addUser(t, admin, "ana", model.RoleCommon)

	other := testutil.NewEnvWithRemote(t, fake, testutil.Token)
	other.LoginAs(t, "ana", "ana")
	require.NoError(t, admin.Service.DeleteUser(ctx, ana.ID))

	_, err := other.Service.Me(ctx)
	assert.ErrorIs(t, err, rewards.ErrNotSignedIn)
}

func TestTaskAdministrationIsAdminOnly(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	task := addTask(t, env, "Dishes", 10, model.Monday, ana.ID)
	switchTo(t, env, "ana")

	_, err := env.Service.CreateTask(ctx, rewards.TaskInput{Name: "x", Points: 1, Day: "monday", UserID: ana.ID})
	assert.ErrorIs(t, err, rewards.ErrForbidden)
	_, err = env.Service.UpdateTask(ctx, task.ID, rewards.TaskInput{Name: "x", Points: 1, Day: "monday", UserID: ana.ID})
	assert.ErrorIs(t, err, rewards.ErrForbidden)
	assert.ErrorIs(t, env.Service.DeleteTask(ctx, task.ID), rewards.ErrForbidden)
	_, err = env.Service.ResetWeek(ctx)
	assert.ErrorIs(t, err, rewards.ErrForbidden)
	_, err = env.Service.Tasks(ctx)
	assert.ErrorIs(t, err, rewards.ErrForbidden)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)

	tests := []struct {
		name string
		in   rewards.TaskInput
		want string
	}{
		{"blank name", rewards.TaskInput{Name: "  ", Points: 5, Day: "monday", UserID: ana.ID}, "A task needs a name."},
		{"zero points", rewards.TaskInput{Name: "Dishes", Points: 0, Day: "monday", UserID: ana.ID}, `Task "Dishes" must be worth at least 1 point.`},
		{"bad day", rewards.TaskInput{Name: "Dishes", Points: 5, Day: "someday", UserID: ana.ID}, `Task "Dishes" has an unknown day "someday".`},
		{"unknown user", rewards.TaskInput{Name: "Dishes", Points: 5, Day: "monday", UserID: 99}, `Task "Dishes" is assigned to an unknown user.`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Service.CreateTask(context.Background(), tt.in)
			require.True(t, rewards.IsValidation(err), "got %v", err)
			assert.EqualError(t, err, tt.want)

			admin := 1
			msgs := env.NotificationsFor(t, &admin)
			assert.Equal(t, tt.want, msgs[len(msgs)-1])
		})
	}
	assert.Empty(t, env.Document(t).Tasks)
}

func TestUpdateTaskReassignsAndKeepsCompletion(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	bia := addUser(t, env, "bia", model.RoleCommon)
	task := addTask(t, env, "Dishes", 10, model.Monday, ana.ID)

	switchTo(t, env, "ana")
	require.NoError(t, env.Service.CompleteTask(ctx, task.ID))
	switchTo(t, env, "admin")

	updated, err := env.Service.UpdateTask(ctx, task.ID, rewards.TaskInput{
		Name:   " Laundry ",
		Points: 15,
		Day:    "Wednesday",
		UserID: bia.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Laundry", updated.Name)
	assert.Equal(t, model.Wednesday, updated.Day)
	assert.Equal(t, bia.ID, updated.UserID)
	assert.True(t, updated.Completed)

	assert.Contains(t, env.NotificationsFor(t, &bia.ID), `Task "Laundry" on wednesday is now yours.`)
	assert.Equal(t, 10, userByID(t, env, ana.ID).TotalPoints)

	_, err = env.Service.UpdateTask(ctx, 99, rewards.TaskInput{Name: "x", Points: 1, Day: "monday", UserID: ana.ID})
	assert.ErrorIs(t, err, rewards.ErrNotFound)
}

func TestDeleteTaskKeepsEarnedPoints(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	earn(t, env, "ana", 10)

	tasks, err := env.Service.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	require.NoError(t, env.Service.DeleteTask(ctx, tasks[0].ID))
	assert.Empty(t, env.Document(t).Tasks)
	assert.Equal(t, 10, userByID(t, env, ana.ID).CurrentPoints)
	assert.ErrorIs(t, env.Service.DeleteTask(ctx, tasks[0].ID), rewards.ErrNotFound)
}

func TestResetWeekReopensCompletedTasks(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	addTask(t, env, "Dishes", 5, model.Monday, ana.ID)
	earn(t, env, "ana", 10)

	reopened, err := env.Service.ResetWeek(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened)

	for _, task := range env.Document(t).Tasks {
		assert.False(t, task.Completed)
		assert.Nil(t, task.CompletedAt)
	}
	assert.Equal(t, 10, userByID(t, env, ana.ID).TotalPoints)
	assert.Contains(t, env.NotificationsFor(t, nil), "A new week started: 1 tasks were reopened.")

	reopened, err = env.Service.ResetWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, reopened)
}

func TestMyTasksOrderedByWeekday(t *testing.T) {
	ctx := context.Background()
	env := newAdminEnv(t)
	ana := addUser(t, env, "ana", model.RoleCommon)
	bia := addUser(t, env, "bia", model.RoleCommon)
	addTask(t, env, "Trash", 3, model.Sunday, ana.ID)
	addTask(t, env, "Dishes", 5, model.Monday, ana.ID)
	addTask(t, env, "Plants", 2, model.Wednesday, ana.ID)
	addTask(t, env, "Laundry", 4, model.Monday, bia.ID)
	done := addTask(t, env, "Bed", 1, model.Tuesday, ana.ID)

	switchTo(t, env, "ana")
	require.NoError(t, env.Service.CompleteTask(ctx, done.ID))

	open, err := env.Service.MyTasks(ctx, false)
	require.NoError(t, err)
	var names []string
	for _, task := range open {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"Dishes", "Plants", "Trash"}, names)

	completed, err := env.Service.MyTasks(ctx, true)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, "Bed", completed[0].Name)
}
