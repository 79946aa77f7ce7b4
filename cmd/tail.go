package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nguyentranbao-ct/team-chat/internal/client/chatapi"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/feed"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger"
	"github.com/spf13/cobra"
)

func newTailCmd() *cobra.Command {
	var (
		height  float64
		observe time.Duration
	)
	cmd := &cobra.Command{
		Use:   "tail <link>",
		Short: "Follow a channel or a linked message, e.g. /channel/<id>?messageId=<id>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.SetLevel(conf.Log.Level); err != nil {
				return err
			}
			link, err := feed.ParseMessageLink(args[0])
			if err != nil {
				return err
			}
			client, err := chatapi.NewClient(conf.Client)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runTail(ctx, cmd.OutOrStdout(), client, link, conf, height, observe)
		},
	}
	cmd.Flags().Float64Var(&height, "height", 800, "viewport height in pixels")
	cmd.Flags().DurationVar(&observe, "observe", 500*time.Millisecond, "how often visible messages are checked for read marks")
	return cmd
}

func runTail(
	ctx context.Context,
	out io.Writer,
	src feed.DataSource,
	link feed.MessageLink,
	conf *config.Config,
	height float64,
	observe time.Duration,
) error {
	vp := feed.NewListViewport(height, nil)
	f := feed.Open(link, src, vp, conf.Feed)
	defer f.Close()

	tracker := feed.NewReadTracker(src, models.ObjectID(conf.Client.UserID), link.ConversationID, conf.Feed.ReadThreshold, conf.Feed.FetchTimeout)
	defer tracker.Wait()

	printer := newTailPrinter(out)
	f.Subscribe(vp.Subscriber())
	f.Subscribe(tracker.Sync)
	f.Subscribe(printer.Print)

	if err := f.Start(ctx); err != nil {
		return fmt.Errorf("open feed: %w", err)
	}

	ticker := time.NewTicker(observe)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			tracker.ObserveViewport(vp)
		}
	}
}

// tailPrinter writes each message once, in feed order. Messages paged in
// above what was already printed are listed under a history marker.
type tailPrinter struct {
	mu       sync.Mutex
	out      io.Writer
	printed  map[models.ObjectID]bool
	newest   int64
	notFound bool
	liveLost bool
}

func newTailPrinter(out io.Writer) *tailPrinter {
	return &tailPrinter{out: out, printed: map[models.ObjectID]bool{}}
}

func (p *tailPrinter) Print(st feed.State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st.NotFound && !p.notFound {
		p.notFound = true
		fmt.Fprintln(p.out, "-- message not found or not accessible")
	}
	if st.LiveLost && !p.liveLost {
		p.liveLost = true
		defer fmt.Fprintln(p.out, "-- live updates stopped")
	}

	var history []models.Message
	for _, m := range st.Messages {
		if p.printed[m.ID] {
			continue
		}
		p.printed[m.ID] = true
		if p.newest != 0 && m.CreationTime < p.newest {
			history = append(history, m)
			continue
		}
		p.newest = max(p.newest, m.CreationTime)
		p.line(m, st.TargetMessageID)
	}
	if len(history) > 0 {
		fmt.Fprintf(p.out, "-- %d earlier messages\n", len(history))
		for _, m := range history {
			p.line(m, st.TargetMessageID)
		}
	}
}

func (p *tailPrinter) line(m models.Message, target models.ObjectID) {
	marker := " "
	if m.ID == target {
		marker = ">"
	}
	ts := time.UnixMicro(m.CreationTime).Format(time.TimeOnly)
	body := strings.ReplaceAll(m.Body, "\n", " ")
	if m.Format == models.FormatImage {
		body = "[image] " + body
	}
	fmt.Fprintf(p.out, "%s %s %s: %s\n", marker, ts, m.AuthorID, body)
}
