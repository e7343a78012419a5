package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gwi.com/linkedin-agent/internal/agent"
	"gwi.com/linkedin-agent/internal/store"
	"gwi.com/linkedin-agent/internal/utils"
)

func newConnectCmd(a *app) *cobra.Command {
	var cookie, userAgent string

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Connect your LinkedIn account",
		Long: `Verifies the session cookie and user agent by fetching your profile, then
saves both locally.

The values can also be given through LINKEDIN_COOKIE and LINKEDIN_USER_AGENT.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cookie == "" {
				cookie = os.Getenv("LINKEDIN_COOKIE")
			}
			if userAgent == "" {
				userAgent = os.Getenv("LINKEDIN_USER_AGENT")
			}

			session, closeStore, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			profile, err := session.Connect(cmd.Context(), cookie, userAgent)
			if err != nil {
				return userError("Error connecting to LinkedIn", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Connected")
			printProfile(out, profile)
			return nil
		},
	}
	cmd.Flags().StringVar(&cookie, "cookie", "", "LinkedIn session cookie header (li_at, JSESSIONID, ...)")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "User agent of the browser the cookie came from")
	return cmd
}

func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch your profile again with the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, closeStore, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			profile, err := session.Refresh(cmd.Context())
			if err != nil {
				return userError("Error refreshing profile data", err)
			}
			printProfile(cmd.OutOrStdout(), profile)
			return nil
		},
	}
}

func newDisconnectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the saved session and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, closeStore, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := session.Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the connection state and saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, closeStore, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if !session.Connected() {
				fmt.Fprintln(out, "Not Connected")
				return nil
			}
			fmt.Fprintln(out, "Connected")

			cookies := utils.ParseCookies(session.Credential().Cookie)
			for _, name := range []string{"li_at", "JSESSIONID"} {
				state := "missing"
				if _, ok := cookies[name]; ok {
					state = "present"
				}
				fmt.Fprintf(out, "  cookie %-10s %s\n", name, state)
			}

			if profile := session.Profile(); profile != nil {
				printProfile(out, profile)
			}
			return nil
		},
	}
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [message]",
		Short: "Tell the agent what you want to do",
		Long: `Sends a message to the agent and prints its reply. Without arguments, reads
one message per line from standard input until EOF.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, closeStore, err := a.openSession(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				return chatOnce(cmd, session, strings.Join(args, " "), out)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				if err := chatOnce(cmd, session, scanner.Text(), out); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
}

func chatOnce(cmd *cobra.Command, session *agent.Session, message string, out io.Writer) error {
	replies, err := session.SendMessage(cmd.Context(), message)
	if errors.Is(err, agent.ErrNotConnected) {
		return errors.New("connect your LinkedIn account first: linkedin-agent connect --cookie ... --user-agent ...")
	}
	if err != nil {
		return err
	}
	for reply := range replies {
		fmt.Fprintf(out, "%s: %s\n", reply.Role, reply.Message)
	}
	return nil
}

func printProfile(out io.Writer, profile *store.Profile) {
	name := profile.Name
	if strings.TrimSpace(name) == "" {
		name = "Unknown User"
	}
	fmt.Fprintf(out, "  %s\n", name)
	fmt.Fprintf(out, "  %s\n", profile.Headline)
	if profile.PublicIdentifier != "" {
		fmt.Fprintf(out, "  linkedin.com/in/%s\n", profile.PublicIdentifier)
	}
	fmt.Fprintf(out, "  photo: %s\n", profile.ProfilePhoto)
}

// userError keeps the inline message short; the cause is already logged by
// the proxy client.
func userError(prefix string, err error) error {
	switch {
	case errors.Is(err, agent.ErrMissingCredentials):
		return fmt.Errorf("%s: both --cookie and --user-agent are required", prefix)
	case errors.Is(err, agent.ErrNotConnected):
		return fmt.Errorf("%s: not connected", prefix)
	case errors.Is(err, agent.ErrConnectFailed):
		return fmt.Errorf("%s: %w", prefix, agent.ErrConnectFailed)
	case errors.Is(err, agent.ErrRefreshFailed):
		return fmt.Errorf("%s: %w", prefix, agent.ErrRefreshFailed)
	}
	return fmt.Errorf("%s: %w", prefix, err)
}
