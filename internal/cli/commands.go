package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"breeze-console/internal/authapi"
	"breeze-console/internal/router"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with username and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimSpace(line)
			}
			if username == "" || password == "" {
				return fmt.Errorf("username and password are required")
			}

			u, err := a.shell.LoginWithPassword(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			printSignedIn(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted if omitted)")
	return cmd
}

func newSsoURLCmd(a *app) *cobra.Command {
	var back string

	cmd := &cobra.Command{
		Use:   "sso-url",
		Short: "Print the SSO authorization address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if back == "" {
				back = a.shell.Config.App.Origin + router.PathSsoLogin
			}
			env, err := a.shell.API.GetSsoAuthURL(cmd.Context(), back)
			if err != nil {
				return fmt.Errorf("sso url: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), env.Data)
			return nil
		},
	}

	cmd.Flags().StringVar(&back, "back", "", "Address the SSO server returns to (default <origin>/sso-login)")
	return cmd
}

func newTicketCmd(a *app) *cobra.Command {
	var back string

	cmd := &cobra.Command{
		Use:   "ticket <ticket>",
		Short: "Exchange an SSO ticket for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if back == "" {
				back = a.shell.Config.App.Origin + router.PathSsoLogin
			}
			u, err := a.shell.LoginWithTicket(cmd.Context(), args[0], back)
			if err != nil {
				return fmt.Errorf("ticket login: %w", err)
			}
			printSignedIn(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().StringVar(&back, "back", "", "Address the ticket was issued for (default <origin>/sso-login)")
	return cmd
}

type whoami struct {
	LoggedIn    bool             `json:"logged_in"`
	User        authapi.UserInfo `json:"user"`
	TenantID    *int64           `json:"tenant_id,omitempty"`
	RoleCodes   []string         `json:"role_codes"`
	Permissions []string         `json:"permissions"`
}

func newWhoamiCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := a.shell.Session
			out := whoami{
				LoggedIn:    s.IsLoggedIn(),
				User:        s.UserInfo(),
				RoleCodes:   s.UserRoleCodes(ctx),
				Permissions: s.UserPermissions(ctx),
			}
			if id, ok := s.TenantID(); ok {
				out.TenantID = &id
			}
			return writeOutput(cmd.OutOrStdout(), output, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputJSON, "Output format: json or yaml")
	return cmd
}

func newMenusCmd(a *app) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "menus",
		Short: "Print the permission menu tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.shell.Session.IsLoggedIn() {
				return errNotSignedIn
			}
			if lang == "" {
				lang = a.shell.Locale.String()
			}
			env, err := a.shell.API.ListPermission(cmd.Context(), lang)
			if err != nil {
				return fmt.Errorf("menus: %w", err)
			}
			printMenus(cmd.OutOrStdout(), env.Data, 0)
			return nil
		},
	}

	cmd.Flags().StringVar(&lang, "i18n", "", "Menu language (default: active locale)")
	return cmd
}

func newSsoClientsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sso-clients",
		Short: "List the subsystems shown on the home page",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.shell.Session.IsLoggedIn() {
				return errNotSignedIn
			}
			env, err := a.shell.API.GetHomeSsoClient(cmd.Context())
			if err != nil {
				return fmt.Errorf("sso clients: %w", err)
			}
			for _, c := range env.Data {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.ID, c.ClientName, c.HomeURL)
			}
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Ask the SSO server whether the stored session is still valid",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.shell.Session.IsLoggedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "local: signed out")
				return nil
			}
			env, err := a.shell.API.CheckIsLogin(cmd.Context())
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local: signed in")
			fmt.Fprintf(cmd.OutOrStdout(), "server: %t\n", env.Data)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := a.shell.Logout(cmd.Context())
			if err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			fmt.Fprintf(cmd.OutOrStdout(), "Finish the server-side logout at: %s\n", target)
			return nil
		},
	}
}

var errNotSignedIn = errors.New("not signed in; run consolectl login first")

func printSignedIn(w io.Writer, u authapi.UserInfo) {
	name := u.Nickname
	if name == "" {
		name = u.Username
	}
	if u.TenantID != nil {
		fmt.Fprintf(w, "Signed in as %s (tenant %d)\n", name, *u.TenantID)
		return
	}
	fmt.Fprintf(w, "Signed in as %s\n", name)
}

func printMenus(w io.Writer, menus []authapi.Menu, depth int) {
	for _, m := range menus {
		title := m.Title
		if title == "" {
			title = m.Name
		}
		fmt.Fprintf(w, "%s%s\t%s\n", strings.Repeat("  ", depth), title, m.Path)
		printMenus(w, m.Children, depth+1)
	}
}
