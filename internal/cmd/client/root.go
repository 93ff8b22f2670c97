package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the relay client.
// It registers the channel, message, tail and health commands.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "relay",
		Short: "relay client commands",
	}
	Register(root, baseURL)
	return root
}

// Register adds the client commands to an existing root.
func Register(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(
		NewChannelCommand(baseURL),
		NewMessageCommand(baseURL),
		NewTailCommand(baseURL),
		NewHealthCommand(),
	)
}
