// Package cli is the terminal client for the Dialogues service. It drives the
// auth state machine and route guard the way a browser frontend would, with
// the current "page" modeled as a path.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"log/slog"

	"github.com/google/uuid"

	"dialogues/internal/authstate"
	"dialogues/internal/backend"
	"dialogues/internal/profiles"
	"dialogues/internal/routeguard"
)

// App wires the backend client, auth machine, and route guard behind a REPL.
type App struct {
	client  *backend.HTTPClient
	machine *authstate.Machine
	guard   *routeguard.Guard
	nav     *terminalNavigator
	reader  *bufio.Reader
	out     io.Writer
	logger  *slog.Logger
}

// NewApp constructs the terminal client against the given API base URL.
func NewApp(baseURL string, in io.Reader, out io.Writer, logger *slog.Logger) *App {
	client := backend.NewHTTPClient(baseURL, nil)
	nav := newTerminalNavigator(out)
	machine := authstate.New(client, client, nav, logger)
	guard := routeguard.New(machine, nav, logger, routeguard.Options{})

	return &App{
		client:  client,
		machine: machine,
		guard:   guard,
		nav:     nav,
		reader:  bufio.NewReader(in),
		out:     out,
		logger:  logger,
	}
}

// Run starts the auth core and enters the command loop. It returns when the
// user exits or input reaches EOF.
func (a *App) Run(ctx context.Context) error {
	a.machine.Init(ctx)
	defer a.machine.Close()

	a.guard.Start()
	defer a.guard.Close()

	fmt.Fprintln(a.out, "Dialogues terminal client. Type 'help' for commands.")

	for {
		fmt.Fprintf(a.out, "%s %s> ", a.statusLabel(), a.nav.CurrentPath())

		line, err := a.reader.ReadString('\n')
		if err != nil {
			if strings.TrimSpace(line) == "" {
				return nil
			}
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "signup":
			a.signUp(ctx)
		case "signin", "login":
			a.signIn(ctx)
		case "signout", "logout":
			a.signOut(ctx)
		case "whoami":
			a.whoami()
		case "profile":
			a.showProfile(args)
		case "setbio":
			a.updateProfile(ctx, "bio")
		case "setname":
			a.updateProfile(ctx, "username")
		case "list":
			a.listDialogues(ctx)
		case "read":
			a.readDialogue(ctx, args)
		case "publish":
			a.publish(ctx)
		case "goto":
			a.goTo(args)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye.")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}

		if err != nil {
			return nil
		}
	}
}

func (a *App) statusLabel() string {
	snapshot := a.machine.Snapshot()
	switch {
	case snapshot.Loading:
		return "[...]"
	case snapshot.Profile != nil:
		return "[" + snapshot.Profile.Username + "]"
	case snapshot.User != nil:
		return "[" + snapshot.User.Email + "]"
	default:
		return "[guest]"
	}
}

func (a *App) printHelp() {
	signedIn := a.machine.Snapshot().User != nil
	if signedIn {
		fmt.Fprintln(a.out, "Commands: whoami, profile [username], setbio, setname, list, read <id>, publish, goto <path>, signout, exit")
		return
	}
	fmt.Fprintln(a.out, "Commands: signup, signin, profile <username>, list, read <id>, goto <path>, exit")
}

func (a *App) signUp(ctx context.Context) {
	email, err := promptLine(a.reader, "Email", a.out)
	if err != nil {
		return
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return
	}

	profile, err := a.machine.SignUp(ctx, email, password)
	if err != nil {
		a.reportAuthError(err)
		return
	}
	fmt.Fprintf(a.out, "Welcome, %s.\n", profile.Username)
}

func (a *App) signIn(ctx context.Context) {
	email, err := promptLine(a.reader, "Email", a.out)
	if err != nil {
		return
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return
	}

	if err := a.machine.SignIn(ctx, email, password); err != nil {
		a.reportAuthError(err)
		return
	}
	fmt.Fprintln(a.out, "Signed in.")
}

func (a *App) signOut(ctx context.Context) {
	if err := a.machine.SignOut(ctx); err != nil {
		a.reportAuthError(err)
		return
	}
	fmt.Fprintln(a.out, "Signed out.")
}

func (a *App) whoami() {
	snapshot := a.machine.Snapshot()
	if snapshot.User == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}
	fmt.Fprintf(a.out, "Signed in as %s (id %s)\n", snapshot.User.Email, snapshot.User.ID)
	if snapshot.Session != nil {
		fmt.Fprintf(a.out, "Session expires %s\n", snapshot.Session.ExpiresAt.Format("2006-01-02 15:04"))
	}
}

func (a *App) showProfile(args []string) {
	if len(args) > 0 {
		profile, err := a.client.FindProfileByUsername(context.Background(), args[0])
		if err != nil {
			fmt.Fprintln(a.out, "Lookup failed:", err)
			return
		}
		if profile == nil {
			fmt.Fprintln(a.out, "No such profile.")
			return
		}
		a.printProfile(profile)
		return
	}

	snapshot := a.machine.Snapshot()
	if snapshot.Profile == nil {
		fmt.Fprintln(a.out, "No profile. Sign in first, or pass a username.")
		return
	}
	a.printProfile(snapshot.Profile)
}

func (a *App) printProfile(profile *profiles.Profile) {
	fmt.Fprintf(a.out, "@%s (since %s)\n", profile.Username, profile.CreatedAt.Format("2006-01-02"))
	if profile.Bio != "" {
		fmt.Fprintln(a.out, profile.Bio)
	}
}

func (a *App) updateProfile(ctx context.Context, field string) {
	value, err := promptLine(a.reader, "New "+field, a.out)
	if err != nil {
		return
	}

	var update profiles.Update
	switch field {
	case "bio":
		update.Bio = &value
	case "username":
		update.Username = &value
	}

	if err := a.machine.UpdateProfile(ctx, update); err != nil {
		a.reportAuthError(err)
		return
	}
	fmt.Fprintln(a.out, "Profile updated.")
}

func (a *App) listDialogues(ctx context.Context) {
	list, err := a.client.ListDialogues(ctx, 20)
	if err != nil {
		fmt.Fprintln(a.out, "Listing failed:", err)
		return
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No dialogues yet.")
		return
	}
	for _, d := range list {
		fmt.Fprintf(a.out, "%s  %s  (%s)\n", d.ID, d.Title, d.CreatedAt.Format("2006-01-02"))
	}
}

func (a *App) readDialogue(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: read <id>")
		return
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		fmt.Fprintln(a.out, "Invalid id.")
		return
	}

	dialogue, err := a.client.GetDialogue(ctx, id)
	if err != nil {
		fmt.Fprintln(a.out, "Fetch failed:", err)
		return
	}
	if dialogue == nil {
		fmt.Fprintln(a.out, "No such dialogue.")
		return
	}

	fmt.Fprintf(a.out, "# %s\n\n%s\n", dialogue.Title, dialogue.Content)
}

func (a *App) publish(ctx context.Context) {
	title, err := promptLine(a.reader, "Title", a.out)
	if err != nil {
		return
	}
	content, err := promptMultiline(a.reader, "Content", a.out)
	if err != nil {
		return
	}

	dialogue, err := a.client.PublishDialogue(ctx, title, content)
	if err != nil {
		fmt.Fprintln(a.out, "Publish failed:", err)
		return
	}
	fmt.Fprintf(a.out, "Published %s\n", dialogue.ID)
}

func (a *App) goTo(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: goto <path>")
		return
	}

	a.nav.Navigate(args[0])
	a.guard.Recheck()
	if a.guard.Warning() {
		fmt.Fprintln(a.out, "You need to sign in to view this page. Redirecting shortly...")
	}
}

func (a *App) reportAuthError(err error) {
	switch {
	case authstate.IsKind(err, authstate.KindUsernameExhausted):
		fmt.Fprintln(a.out, "Could not find a free username. Try a different email.")
	case authstate.IsKind(err, authstate.KindNoAuthenticatedUser):
		fmt.Fprintln(a.out, "Sign in first.")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}
