package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/internal/sync"
	"github.com/nhle/task-rewards/internal/theme"
	"github.com/nhle/task-rewards/internal/ui/inbox"
)

// dispatch runs one menu action for me.
func (a *App) dispatch(ctx context.Context, me model.User, act action) error {
	switch act {
	case actionMyTasks, actionCompletedTasks:
		tasks, err := a.svc.MyTasks(ctx, act == actionCompletedTasks)
		if err != nil {
			return err
		}
		title := "My tasks"
		if act == actionCompletedTasks {
			title = "Completed tasks"
		}
		a.printf("%s\n", a.board.Tasks(title, tasks, owners([]model.User{me})))

	case actionCompleteTask:
		tasks, err := a.svc.MyTasks(ctx, false)
		if err != nil {
			return err
		}
		id, err := a.pickTask("Which task did you finish?", tasks)
		if err != nil {
			return err
		}
		if err := a.svc.CompleteTask(ctx, id); err != nil {
			return err
		}
		a.done("Task completed.")

	case actionProducts:
		products, err := a.svc.Products(ctx)
		if err != nil {
			return err
		}
		a.printf("%s\n", a.board.Products(products))

	case actionRequestProduct:
		products, err := a.svc.Products(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickProduct("Which product?", products)
		if err != nil {
			return err
		}
		if _, err := a.svc.RequestProduct(ctx, id); err != nil {
			return err
		}
		a.done("Request sent. An admin will review it.")

	case actionMyRequests:
		views, err := a.svc.MyRequests(ctx)
		if err != nil {
			return err
		}
		a.printf("%s\n", a.board.Requests("My requests", views))

	case actionCancelRequest:
		views, err := a.svc.MyRequests(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickRequest("Cancel which request?", pendingOnly(views))
		if err != nil {
			return err
		}
		refund, err := a.svc.CancelRequest(ctx, id)
		if err != nil {
			return err
		}
		a.done(fmt.Sprintf("Request cancelled; %d points refunded.", refund))

	case actionInbox:
		return a.openInbox(ctx, me)

	case actionUserRanking:
		a.printf("%s\n", a.board.UserRanking(a.svc.UserRanking()))

	case actionProductRanking:
		a.printf("%s\n", a.board.ProductRanking(a.svc.ProductRanking()))

	case actionPreferences:
		return a.editPreferences(ctx)

	case actionLogout:
		if err := a.auth.Logout(ctx); err != nil {
			return err
		}
		a.done("Signed out.")

	default:
		return a.dispatchAdmin(ctx, act)
	}
	return nil
}

// dispatchAdmin runs the administration actions. Authorization is
// enforced by the service; the menu only hides them.
func (a *App) dispatchAdmin(ctx context.Context, act action) error {
	switch act {
	case actionAllTasks:
		tasks, err := a.svc.Tasks(ctx)
		if err != nil {
			return err
		}
		users, err := a.svc.Users(ctx)
		if err != nil {
			return err
		}
		a.printf("%s\n", a.board.Tasks("All tasks", tasks, owners(users)))

	case actionCreateTask:
		users, err := a.svc.Users(ctx)
		if err != nil {
			return err
		}
		var in rewards.TaskInput
		if len(users) > 0 {
			in.UserID = users[0].ID
		}
		if err := a.taskForm(&in, users); err != nil {
			return err
		}
		t, err := a.svc.CreateTask(ctx, in)
		if err != nil {
			return err
		}
		a.done(fmt.Sprintf("Task %q created.", t.Name))

	case actionEditTask:
		tasks, err := a.svc.Tasks(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickTask("Edit which task?", tasks)
		if err != nil {
			return err
		}
		users, err := a.svc.Users(ctx)
		if err != nil {
			return err
		}
		var in rewards.TaskInput
		for _, t := range tasks {
			if t.ID == id {
				in = rewards.TaskInput{Name: t.Name, Points: t.Points, Day: string(t.Day), UserID: t.UserID}
			}
		}
		if err := a.taskForm(&in, users); err != nil {
			return err
		}
		if _, err := a.svc.UpdateTask(ctx, id, in); err != nil {
			return err
		}
		a.done("Task updated.")

	case actionDeleteTask:
		tasks, err := a.svc.Tasks(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickTask("Delete which task?", tasks)
		if err != nil {
			return err
		}
		if ok, err := a.confirm("Delete this task?"); err != nil || !ok {
			return err
		}
		if err := a.svc.DeleteTask(ctx, id); err != nil {
			return err
		}
		a.done("Task deleted.")

	case actionResetWeek:
		if ok, err := a.confirm("Mark every task as not done for a new week?"); err != nil || !ok {
			return err
		}
		n, err := a.svc.ResetWeek(ctx)
		if err != nil {
			return err
		}
		a.done(fmt.Sprintf("%d tasks reset.", n))

	case actionPendingRequests:
		views, err := a.svc.PendingRequests(ctx)
		if err != nil {
			return err
		}
		a.printf("%s\n", a.board.Requests("Pending requests", views))

	case actionApproveRequest, actionRejectRequest:
		views, err := a.svc.PendingRequests(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickRequest("Which request?", views)
		if err != nil {
			return err
		}
		if act == actionApproveRequest {
			if err := a.svc.ApproveRequest(ctx, id); err != nil {
				return err
			}
			a.done("Request approved.")
			return nil
		}
		why, err := a.justificationForm()
		if err != nil {
			return err
		}
		if err := a.svc.RejectRequest(ctx, id, why); err != nil {
			return err
		}
		a.done("Request rejected.")

	case actionCreateProduct:
		var in rewards.ProductInput
		if err := a.productForm(&in); err != nil {
			return err
		}
		p, err := a.svc.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		a.done(fmt.Sprintf("Product %q created.", p.Name))

	case actionEditProduct, actionDeleteProduct:
		products, err := a.svc.Products(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickProduct("Which product?", products)
		if err != nil {
			return err
		}
		if act == actionDeleteProduct {
			if ok, err := a.confirm("Delete this product and all its requests?"); err != nil || !ok {
				return err
			}
			if err := a.svc.DeleteProduct(ctx, id); err != nil {
				return err
			}
			a.done("Product deleted.")
			return nil
		}
		var in rewards.ProductInput
		for _, p := range products {
			if p.ID == id {
				in = rewards.ProductInput{Name: p.Name, Points: p.Points}
			}
		}
		if err := a.productForm(&in); err != nil {
			return err
		}
		if _, err := a.svc.UpdateProduct(ctx, id, in); err != nil {
			return err
		}
		a.done("Product updated.")

	case actionUsers:
		users, err := a.svc.Users(ctx)
		if err != nil {
			return err
		}
		a.printf("%s\n", a.board.Users(users))

	case actionCreateUser:
		var in rewards.UserInput
		if err := a.userForm(&in, true); err != nil {
			return err
		}
		u, err := a.svc.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		a.done(fmt.Sprintf("User %q created.", u.Username))

	case actionEditUser, actionDeleteUser:
		users, err := a.svc.Users(ctx)
		if err != nil {
			return err
		}
		id, err := a.pickUser("Which user?", users)
		if err != nil {
			return err
		}
		if act == actionDeleteUser {
			if ok, err := a.confirm("Delete this user with their tasks and requests?"); err != nil || !ok {
				return err
			}
			if err := a.svc.DeleteUser(ctx, id); err != nil {
				return err
			}
			a.done("User deleted.")
			return nil
		}
		var in rewards.UserInput
		for _, u := range users {
			if u.ID == id {
				in = rewards.UserInput{Username: u.Username, Role: u.Role}
			}
		}
		if err := a.userForm(&in, false); err != nil {
			return err
		}
		if _, err := a.svc.UpdateUser(ctx, id, in); err != nil {
			return err
		}
		a.done("User updated.")

	default:
		return fmt.Errorf("unknown action %q", act)
	}
	return nil
}

// openInbox runs the notification list and follows the link the user
// opened, if any.
func (a *App) openInbox(ctx context.Context, me model.User) error {
	poller := sync.New(a.svc, a.poll, a.logger.Named("poller"))
	defer poller.Stop()

	m := inbox.New(a.svc, a.keys, a.styles, 80, 24).WithPoller(poller)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return fmt.Errorf("running inbox: %w", err)
	}

	im, ok := final.(inbox.Model)
	if !ok || im.Link() == "" {
		return nil
	}
	next, ok := linkAction(im.Link(), me.IsAdmin())
	if !ok {
		return nil
	}
	return a.dispatch(ctx, me, next)
}

func (a *App) editPreferences(ctx context.Context) error {
	p := a.prefs
	if err := a.preferencesForm(&p); err != nil {
		return err
	}
	if err := theme.SavePreferences(ctx, a.cache, p); err != nil {
		return err
	}
	a.applyPreferences(p)
	a.done("Preferences saved.")
	return nil
}

func (a *App) done(msg string) {
	a.printf("%s\n", a.styles.Points.Render(msg))
}

func pendingOnly(views []rewards.RequestView) []rewards.RequestView {
	var out []rewards.RequestView
	for _, v := range views {
		if v.IsPending() {
			out = append(out, v)
		}
	}
	return out
}
