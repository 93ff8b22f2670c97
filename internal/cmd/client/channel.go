package client

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// Channel mirrors the server's channel JSON.
type Channel struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewChannelCommand constructs the `channel` command group.
func NewChannelCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{Use: "channel", Short: "Channel operations"}
	cmd.AddCommand(
		newChannelCreateCommand(baseURL),
		newChannelListCommand(baseURL),
		newChannelDeleteCommand(baseURL),
	)
	return cmd
}

func newChannelCreateCommand(baseURL BaseURLFunc) *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			var ch Channel
			if err := doJSON(cmd.Context(), http.MethodPost, baseURL()+"/channel", map[string]string{"name": name}, &ch); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ch)
		},
	}
	createCmd.Flags().String("name", "", "Channel name")
	return createCmd
}

func newChannelListCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				N        int       `json:"n"`
				Channels []Channel `json:"channels"`
			}
			if err := doJSON(cmd.Context(), http.MethodGet, baseURL()+"/channels", nil, &out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, ch := range out.Channels {
				fmt.Fprintf(w, "%d\t%s\n", ch.ID, ch.Name)
			}
			return nil
		},
	}
}

func newChannelDeleteCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <channelId>",
		Short: "Delete a channel, its messages, and end its live streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChannelID(args[0])
			if err != nil {
				return err
			}
			url := fmt.Sprintf("%s/channel/%d", baseURL(), id)
			if err := doJSON(cmd.Context(), http.MethodDelete, url, nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted channel %d\n", id)
			return nil
		},
	}
}
