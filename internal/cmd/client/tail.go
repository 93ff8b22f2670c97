package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// Delivery is one live message as printed by `tail`.
type Delivery struct {
	Seq     uint64  `json:"seq"`
	Message Message `json:"message"`
}

// errStreamClosed reports a server-sent close frame.
var errStreamClosed = errors.New("stream closed by server")

// NewTailCommand constructs the `tail` command.
func NewTailCommand(baseURL BaseURLFunc) *cobra.Command {
	tailCmd := &cobra.Command{
		Use:   "tail <channelId>",
		Short: "Follow a channel's live stream and print deliveries as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseChannelID(args[0])
			if err != nil {
				return err
			}
			filter, _ := cmd.Flags().GetString("filter")
			limit, _ := cmd.Flags().GetInt("limit")

			u := fmt.Sprintf("%s/events/%d", baseURL(), id)
			if filter != "" {
				u += "?" + url.Values{"filter": {filter}}.Encode()
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			n := 0
			err = tail(cmd.Context(), u, func(d Delivery) bool {
				_ = enc.Encode(d)
				n++
				return limit <= 0 || n < limit
			})
			var ce closeError
			if errors.As(err, &ce) {
				fmt.Fprintf(cmd.ErrOrStderr(), "stream closed: %s\n", ce.reason)
				return nil
			}
			return err
		},
	}
	tailCmd.Flags().String("filter", "", "Server-side CEL filter, e.g. username == \"ana\"")
	tailCmd.Flags().Int("limit", 0, "Exit after N deliveries (0 = unlimited)")
	return tailCmd
}

type closeError struct{ reason string }

func (e closeError) Error() string { return errStreamClosed.Error() + ": " + e.reason }
func (e closeError) Unwrap() error { return errStreamClosed }

// tail opens an SSE stream at u and calls fn for each delivery until fn
// returns false, the server closes the stream, or ctx ends.
func tail(ctx context.Context, u string, fn func(Delivery) bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var ae apiError
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, ae.Error)
		}
		return fmt.Errorf("%s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("unexpected content type %q", ct)
	}

	var (
		event string
		data  strings.Builder
		id    string
	)
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if event == "" && data.Len() == 0 {
				continue
			}
			stop, err := dispatch(event, data.String(), id, fn)
			if err != nil || stop {
				return err
			}
			event, id = "", ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// keepalive
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, "id:"):
			id = strings.TrimSpace(strings.TrimPrefix(line, "id:"))
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func dispatch(event, data, id string, fn func(Delivery) bool) (bool, error) {
	switch event {
	case "init":
		return false, nil
	case "close":
		var cf struct {
			Reason string `json:"reason"`
		}
		_ = json.Unmarshal([]byte(data), &cf)
		return true, closeError{reason: cf.Reason}
	case "", "message":
		var d Delivery
		if err := json.Unmarshal([]byte(data), &d.Message); err != nil {
			return true, fmt.Errorf("decode delivery: %w", err)
		}
		if id != "" {
			seq, err := strconv.ParseUint(id, 10, 64)
			if err != nil {
				return true, fmt.Errorf("bad event id %q", id)
			}
			d.Seq = seq
		}
		return !fn(d), nil
	default:
		return false, nil
	}
}
