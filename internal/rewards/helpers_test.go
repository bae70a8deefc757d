package rewards_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/tests/testutil"
)

// newAdminEnv returns a bootstrapped client signed in as admin/admin.
func newAdminEnv(t *testing.T) *testutil.Env {
	t.Helper()
	env := testutil.NewEnv(t)
	env.Bootstrap(t)
	env.LoginAs(t, "admin", "admin")
	return env
}

// addUser creates an account whose password equals its username.
func addUser(t *testing.T, env *testutil.Env, name string, role model.Role) model.User {
	t.Helper()
	u, err := env.Service.CreateUser(context.Background(), rewards.UserInput{
		Username: name,
		Password: name,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func addTask(t *testing.T, env *testutil.Env, name string, points int, day model.Day, userID int) model.Task {
	t.Helper()
	task, err := env.Service.CreateTask(context.Background(), rewards.TaskInput{
		Name:   name,
		Points: points,
		Day:    string(day),
		UserID: userID,
	})
	require.NoError(t, err)
	return task
}

func addProduct(t *testing.T, env *testutil.Env, name string, points int) model.Product {
	t.Helper()
	p, err := env.Service.CreateProduct(context.Background(), rewards.ProductInput{Name: name, Points: points})
	require.NoError(t, err)
	return p
}

// switchTo signs out and back in as a user created by addUser.
func switchTo(t *testing.T, env *testutil.Env, name string) model.User {
	t.Helper()
	env.Logout(t)
	return env.LoginAs(t, name, name)
}

func userByID(t *testing.T, env *testutil.Env, id int) model.User {
	t.Helper()
	u, ok := env.Document(t).User(id)
	require.True(t, ok, "user %d not found", id)
	return *u
}

// earn credits points to name through a completed task. It expects
// admin to be signed in and leaves admin signed in.
func earn(t *testing.T, env *testutil.Env, name string, points int) {
	t.Helper()
	target, ok := env.Document(t).UserByName(name)
	require.True(t, ok)
	task := addTask(t, env, "Chore", points, model.Friday, target.ID)

	switchTo(t, env, name)
	require.NoError(t, env.Service.CompleteTask(context.Background(), task.ID))
	switchTo(t, env, "admin")
}
