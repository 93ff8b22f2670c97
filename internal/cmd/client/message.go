package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// Message mirrors the server's message JSON.
type Message struct {
	ID        int64     `json:"id"`
	ChannelID int64     `json:"channelId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessageCommand constructs the `message` command group.
func NewMessageCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "message", Short: "Message operations"}
	cmd.AddCommand(
		newMessagePostCommand(baseURL),
		newMessageListCommand(baseURL),
	)
	return cmd
}

func newMessagePostCommand(baseURL BaseURLFunc) *cobra.Command {
	postCmd := &cobra.Command{
		Use:   "post <channelId>",
		Short: "Post a message to a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChannelID(args[0])
			if err != nil {
				return err
			}
			username, _ := cmd.Flags().GetString("username")
			content, _ := cmd.Flags().GetString("content")
			if username == "" || content == "" {
				return fmt.Errorf("--username and --content are required")
			}
			body := map[string]string{"username": username, "content": content}
			var out struct {
				Msg string `json:"msg"`
			}
			url := fmt.Sprintf("%s/message/%d", baseURL(), id)
			if err := doJSON(cmd.Context(), http.MethodPost, url, body, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.Msg)
			return nil
		},
	}
	postCmd.Flags().String("username", "", "Author name")
	postCmd.Flags().String("content", "", "Message text")
	return postCmd
}

func newMessageListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list <channelId>",
		Short: "List a channel's messages, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChannelID(args[0])
			if err != nil {
				return err
			}
			var out struct {
				Messages []Message `json:"messages"`
			}
			url := fmt.Sprintf("%s/messages/%d", baseURL(), id)
			if err := doJSON(cmd.Context(), http.MethodGet, url, nil, &out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, m := range out.Messages {
				fmt.Fprintf(w, "%s\t%d\t%s: %s\n", m.CreatedAt.Format(time.RFC3339), m.ID, m.Username, m.Content)
			}
			return nil
		},
	}
}
