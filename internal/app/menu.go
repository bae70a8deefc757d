package app

import (
	"strconv"

	"github.com/nhle/task-rewards/internal/model"
)

// action is one entry of the main menu.
type action string

const (
	actionMyTasks         action = "my-tasks"
	actionCompletedTasks  action = "completed-tasks"
	actionCompleteTask    action = "complete-task"
	actionProducts        action = "products"
	actionRequestProduct  action = "request-product"
	actionMyRequests      action = "my-requests"
	actionCancelRequest   action = "cancel-request"
	actionInbox           action = "inbox"
	actionUserRanking     action = "user-ranking"
	actionProductRanking  action = "product-ranking"
	actionPreferences     action = "preferences"
	actionLogout          action = "logout"
	actionQuit            action = "quit"
	actionAllTasks        action = "all-tasks"
	actionCreateTask      action = "create-task"
	actionEditTask        action = "edit-task"
	actionDeleteTask      action = "delete-task"
	actionResetWeek       action = "reset-week"
	actionPendingRequests action = "pending-requests"
	actionApproveRequest  action = "approve-request"
	actionRejectRequest   action = "reject-request"
	actionCreateProduct   action = "create-product"
	actionEditProduct     action = "edit-product"
	actionDeleteProduct   action = "delete-product"
	actionUsers           action = "users"
	actionCreateUser      action = "create-user"
	actionEditUser        action = "edit-user"
	actionDeleteUser      action = "delete-user"
)

type menuEntry struct {
	label string
	act   action
}

// menu returns the actions available to u, in display order.
func menu(u model.User, unread int) []menuEntry {
	inbox := "Notifications"
	if unread > 0 {
		inbox = "Notifications (" + strconv.Itoa(unread) + " unread)"
	}

	entries := []menuEntry{
		{"My tasks", actionMyTasks},
		{"Completed tasks", actionCompletedTasks},
		{"Complete a task", actionCompleteTask},
		{"Products", actionProducts},
		{"Request a product", actionRequestProduct},
		{"My requests", actionMyRequests},
		{"Cancel a request", actionCancelRequest},
		{inbox, actionInbox},
		{"Ranking: users", actionUserRanking},
		{"Ranking: products", actionProductRanking},
	}
	if u.IsAdmin() {
		entries = append(entries,
			menuEntry{"All tasks", actionAllTasks},
			menuEntry{"Create a task", actionCreateTask},
			menuEntry{"Edit a task", actionEditTask},
			menuEntry{"Delete a task", actionDeleteTask},
			menuEntry{"Start a new week", actionResetWeek},
			menuEntry{"Pending requests", actionPendingRequests},
			menuEntry{"Approve a request", actionApproveRequest},
			menuEntry{"Reject a request", actionRejectRequest},
			menuEntry{"Create a product", actionCreateProduct},
			menuEntry{"Edit a product", actionEditProduct},
			menuEntry{"Delete a product", actionDeleteProduct},
			menuEntry{"Users", actionUsers},
			menuEntry{"Create a user", actionCreateUser},
			menuEntry{"Edit a user", actionEditUser},
			menuEntry{"Delete a user", actionDeleteUser},
		)
	}
	return append(entries,
		menuEntry{"Preferences", actionPreferences},
		menuEntry{"Sign out", actionLogout},
		menuEntry{"Quit", actionQuit},
	)
}

// linkAction maps a notification link to the view that shows it.
func linkAction(link string, admin bool) (action, bool) {
	switch link {
	case model.LinkTasks:
		if admin {
			return actionAllTasks, true
		}
		return actionMyTasks, true
	case model.LinkCompletedTasks:
		return actionCompletedTasks, true
	case model.LinkProducts:
		return actionProducts, true
	case model.LinkRequestedProducts:
		return actionMyRequests, true
	case model.LinkRanking:
		return actionUserRanking, true
	case model.LinkRequests:
		if admin {
			return actionPendingRequests, true
		}
	case model.LinkUsers:
		if admin {
			return actionUsers, true
		}
	}
	return "", false
}
