package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/task-rewards/internal/model"
	"github.com/nhle/task-rewards/internal/rewards"
	"github.com/nhle/task-rewards/internal/theme"
)

// errNothingToPick is returned by pickers when the list is empty.
var errNothingToPick = errors.New("nothing to pick")

func (a *App) formTheme() *huh.Theme {
	if a.prefs.Theme == theme.ThemeHighContrast {
		return huh.ThemeBase16()
	}
	return huh.ThemeCharm()
}

func (a *App) run(groups ...*huh.Group) error {
	return huh.NewForm(groups...).
		WithTheme(a.formTheme()).
		WithKeyMap(huh.NewDefaultKeyMap()).
		Run()
}

func (a *App) loginForm() (string, string, error) {
	var username, password string
	err := a.run(huh.NewGroup(
		huh.NewNote().Title("Task Rewards").Description("Sign in to continue. Esc quits."),
		huh.NewInput().
			Title("Username").
			Value(&username).
			Validate(validateRequired("Username")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&password).
			Validate(validateRequired("Password")),
	))
	return strings.TrimSpace(username), password, err
}

func (a *App) chooseAction(me model.User) (action, error) {
	var act action
	entries := menu(me, a.svc.UnreadCount())
	opts := make([]huh.Option[action], len(entries))
	for i, e := range entries {
		opts[i] = huh.NewOption(e.label, e.act)
	}

	err := a.run(huh.NewGroup(
		huh.NewSelect[action]().
			Title("What would you like to do?").
			Options(opts...).
			Height(min(len(opts)+2, 16)).
			Value(&act),
	))
	return act, err
}

// pick shows a select over labels and returns the chosen ID.
func (a *App) pick(title string, ids []int, labels []string) (int, error) {
	if len(ids) == 0 {
		a.printf("%s\n", a.styles.Muted.Render("Nothing to choose from."))
		return 0, errNothingToPick
	}
	opts := make([]huh.Option[int], len(ids))
	for i := range ids {
		opts[i] = huh.NewOption(labels[i], ids[i])
	}
	var id int
	err := a.run(huh.NewGroup(
		huh.NewSelect[int]().Title(title).Options(opts...).Value(&id),
	))
	return id, err
}

func (a *App) pickTask(title string, tasks []model.Task) (int, error) {
	ids := make([]int, len(tasks))
	labels := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		labels[i] = fmt.Sprintf("%s (%d pts, %s)", t.Name, t.Points, t.Day)
	}
	return a.pick(title, ids, labels)
}

func (a *App) pickProduct(title string, products []model.Product) (int, error) {
	ids := make([]int, len(products))
	labels := make([]string, len(products))
	for i, p := range products {
		ids[i] = p.ID
		labels[i] = fmt.Sprintf("%s (%d pts)", p.Name, p.Points)
	}
	return a.pick(title, ids, labels)
}

func (a *App) pickRequest(title string, views []rewards.RequestView) (int, error) {
	ids := make([]int, len(views))
	labels := make([]string, len(views))
	for i, v := range views {
		ids[i] = v.ID
		labels[i] = fmt.Sprintf("#%d %s (%d pts) by %s", v.ID, v.ProductName, v.Cost, v.Username)
	}
	return a.pick(title, ids, labels)
}

func (a *App) pickUser(title string, users []model.User) (int, error) {
	ids := make([]int, len(users))
	labels := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
		labels[i] = fmt.Sprintf("%s (%s)", u.Username, u.Role)
	}
	return a.pick(title, ids, labels)
}

func (a *App) confirm(title string) (bool, error) {
	ok := false
	err := a.run(huh.NewGroup(
		huh.NewConfirm().Title(title).Affirmative("Yes").Negative("No").Value(&ok),
	))
	return ok, err
}

// taskForm edits in. users are the possible assignees.
func (a *App) taskForm(in *rewards.TaskInput, users []model.User) error {
	points := ""
	if in.Points > 0 {
		points = strconv.Itoa(in.Points)
	}
	if in.Day == "" {
		in.Day = string(model.Monday)
	}

	days := make([]huh.Option[string], len(model.Weekdays))
	for i, d := range model.Weekdays {
		days[i] = huh.NewOption(capitalize(string(d)), string(d))
	}
	assignees := make([]huh.Option[int], len(users))
	for i, u := range users {
		assignees[i] = huh.NewOption(u.Username, u.ID)
	}

	err := a.run(huh.NewGroup(
		huh.NewInput().Title("Name").Value(&in.Name).Validate(validateRequired("Name")),
		huh.NewInput().Title("Points").Value(&points).Validate(validatePositiveInt("Points")),
		huh.NewSelect[string]().Title("Day").Options(days...).Value(&in.Day),
		huh.NewSelect[int]().Title("Assigned to").Options(assignees...).Value(&in.UserID),
	))
	if err != nil {
		return err
	}
	in.Points, _ = strconv.Atoi(strings.TrimSpace(points))
	return nil
}

func (a *App) productForm(in *rewards.ProductInput) error {
	points := ""
	if in.Points > 0 {
		points = strconv.Itoa(in.Points)
	}
	err := a.run(huh.NewGroup(
		huh.NewInput().Title("Name").Value(&in.Name).Validate(validateRequired("Name")),
		huh.NewInput().Title("Cost in points").Value(&points).Validate(validatePositiveInt("Cost")),
	))
	if err != nil {
		return err
	}
	in.Points, _ = strconv.Atoi(strings.TrimSpace(points))
	return nil
}

// userForm edits in. On update an empty password keeps the current one.
func (a *App) userForm(in *rewards.UserInput, creating bool) error {
	if in.Role == "" {
		in.Role = model.RoleCommon
	}
	pw := huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&in.Password)
	if creating {
		pw = pw.Validate(validateRequired("Password"))
	} else {
		pw = pw.Description("Leave empty to keep the current password")
	}

	return a.run(huh.NewGroup(
		huh.NewInput().Title("Username").Value(&in.Username).Validate(validateRequired("Username")),
		pw,
		huh.NewSelect[model.Role]().
			Title("Role").
			Options(
				huh.NewOption("Common", model.RoleCommon),
				huh.NewOption("Admin", model.RoleAdmin),
			).
			Value(&in.Role),
	))
}

func (a *App) justificationForm() (string, error) {
	var text string
	err := a.run(huh.NewGroup(
		huh.NewText().
			Title("Why is this request rejected?").
			Description("The requester will see this message").
			Value(&text).
			Validate(validateRequired("Justification")),
	))
	return strings.TrimSpace(text), err
}

func (a *App) preferencesForm(p *theme.Preferences) error {
	return a.run(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Theme").
			Options(
				huh.NewOption("Default", theme.ThemeDefault),
				huh.NewOption("High contrast", theme.ThemeHighContrast),
			).
			Value(&p.Theme),
		huh.NewInput().
			Title("Accent color").
			Placeholder(theme.DefaultAccent).
			Value(&p.Color).
			Validate(validateHexColor),
		huh.NewConfirm().Title("Dark mode").Value(&p.DarkMode),
	))
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePositiveInt(fieldName string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a whole number", fieldName)
		}
		if n <= 0 {
			return fmt.Errorf("%s must be at least 1", fieldName)
		}
		return nil
	}
}

func validateHexColor(s string) error {
	p := theme.DefaultPreferences()
	p.Color = strings.TrimSpace(s)
	if err := p.Validate(); err != nil {
		return errors.New("use a hex color like #5B9BD5")
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
