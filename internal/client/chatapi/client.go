// Package chatapi is the client side of the message data layer: REST calls
// for history windows and a websocket subscription for the live window.
package chatapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"github.com/nguyentranbao-ct/team-chat/internal/config"
	"github.com/nguyentranbao-ct/team-chat/internal/feed"
	"github.com/nguyentranbao-ct/team-chat/internal/models"
	"github.com/nguyentranbao-ct/team-chat/pkg/logger/log"
	"github.com/nguyentranbao-ct/team-chat/pkg/util"
)

const (
	minReconnectDelay = 500 * time.Millisecond
	maxReconnectDelay = 30 * time.Second
)

var _ feed.DataSource = (*Client)(nil)

type Client struct {
	rest   *resty.Client
	dialer *websocket.Dialer
	wsURL  string
	header http.Header
}

type envelope[T any] struct {
	Success      bool   `json:"success"`
	Data         T      `json:"data"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func NewClient(conf config.ClientConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(conf.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	wsBase := *base
	switch base.Scheme {
	case "https":
		wsBase.Scheme = "wss"
	case "http":
		wsBase.Scheme = "ws"
	default:
		return nil, fmt.Errorf("unsupported base url scheme %q", base.Scheme)
	}

	rest := util.NewRestyClient().
		SetBaseURL(base.String() + "/api/v1").
		SetAuthToken(conf.Token)
	if conf.Timeout > 0 {
		rest.SetTimeout(conf.Timeout)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+conf.Token)

	return &Client{
		rest:   rest,
		dialer: &websocket.Dialer{HandshakeTimeout: conf.Timeout},
		wsURL:  wsBase.String() + "/api/v1",
		header: header,
	}, nil
}

func (c *Client) GetMessageContext(ctx context.Context, messageID models.ObjectID, contextSize int) (models.MessageContext, error) {
	return get[models.MessageContext](ctx, c, "/messages/{id}/context", messageID, map[string]string{
		"size": strconv.Itoa(contextSize),
	})
}

func (c *Client) GetOlderMessages(ctx context.Context, channelID models.ObjectID, beforeTime int64, limit int) ([]models.Message, error) {
	return get[[]models.Message](ctx, c, "/channels/{id}/messages/older", channelID, map[string]string{
		"before": strconv.FormatInt(beforeTime, 10),
		"limit":  strconv.Itoa(limit),
	})
}

func (c *Client) GetMessagesBeforeMessage(ctx context.Context, messageID models.ObjectID, limit int) ([]models.Message, error) {
	return get[[]models.Message](ctx, c, "/messages/{id}/before", messageID, map[string]string{
		"limit": strconv.Itoa(limit),
	})
}

func (c *Client) GetMessagesAfterMessage(ctx context.Context, messageID models.ObjectID, limit int) ([]models.Message, error) {
	return get[[]models.Message](ctx, c, "/messages/{id}/after", messageID, map[string]string{
		"limit": strconv.Itoa(limit),
	})
}

// MarkMessageAsRead marks for the token's user; userID and channelID are
// resolved by the server.
func (c *Client) MarkMessageAsRead(ctx context.Context, messageID, _, _ models.ObjectID) error {
	var out envelope[any]
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", messageID.String()).
		SetError(&out).
		Post("/messages/{id}/read")
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return asError(resp, out.ErrorMessage)
}

// LatestMessages fetches the live window once, without subscribing.
func (c *Client) LatestMessages(ctx context.Context, channelID models.ObjectID, limit int) (models.LiveBatch, error) {
	return get[models.LiveBatch](ctx, c, "/channels/{id}/messages", channelID, map[string]string{
		"limit": strconv.Itoa(limit),
	})
}

func get[T any](ctx context.Context, c *Client, path string, id models.ObjectID, query map[string]string) (T, error) {
	var out envelope[T]
	resp, err := c.rest.R().
		SetContext(ctx).
		SetPathParam("id", id.String()).
		SetQueryParams(query).
		SetResult(&out).
		SetError(&out).
		Get(path)
	if err != nil {
		return out.Data, fmt.Errorf("get %s: %w", path, err)
	}
	if err := asError(resp, out.ErrorMessage); err != nil {
		return out.Data, err
	}
	return out.Data, nil
}

// asError maps an error response back onto the models error taxonomy.
func asError(resp *resty.Response, message string) error {
	if !resp.IsError() {
		return nil
	}
	return statusError(resp.StatusCode(), message)
}

func statusError(status int, message string) error {
	var base error
	switch status {
	case http.StatusNotFound:
		base = models.ErrNotFound
	case http.StatusForbidden:
		base = models.ErrForbidden
	case http.StatusUnauthorized:
		base = models.ErrUnauthenticated
	case http.StatusBadRequest:
		base = models.ErrInvalidArgument
	case http.StatusConflict:
		base = models.ErrConflict
	default:
		return fmt.Errorf("chat api: status %d: %s", status, message)
	}
	return fmt.Errorf("chat api: %s: %w", message, base)
}

// SubscribeMessages streams the live window of channelID. A dropped
// connection is redialled; each new connection starts with the full window.
// The channel is closed when ctx is done or a redial is refused for good.
func (c *Client) SubscribeMessages(ctx context.Context, channelID models.ObjectID) (<-chan models.LiveBatch, error) {
	conn, err := c.dial(ctx, channelID)
	if err != nil {
		return nil, err
	}

	out := make(chan models.LiveBatch)
	go func() {
		defer close(out)
		delay := minReconnectDelay
		for {
			if c.pump(ctx, conn, out) {
				delay = minReconnectDelay
			}
			if ctx.Err() != nil {
				return
			}
			for {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				conn, err = c.dial(ctx, channelID)
				if err == nil {
					break
				}
				if refused(err) {
					log.Warnw(ctx, "live subscription refused", "channel_id", channelID, "error", err)
					return
				}
				log.Warnw(ctx, "live subscription redial failed", "channel_id", channelID, "error", err)
				delay = min(delay*2, maxReconnectDelay)
			}
		}
	}()
	return out, nil
}

// refused reports errors a redial cannot fix.
func refused(err error) bool {
	return errors.Is(err, models.ErrForbidden) ||
		errors.Is(err, models.ErrNotFound) ||
		errors.Is(err, models.ErrUnauthenticated)
}

func (c *Client) dial(ctx context.Context, channelID models.ObjectID) (*websocket.Conn, error) {
	endpoint := c.wsURL + "/channels/" + url.PathEscape(channelID.String()) + "/live"
	conn, resp, err := c.dialer.DialContext(ctx, endpoint, c.header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, statusError(resp.StatusCode, "subscribe")
		}
		return nil, fmt.Errorf("dial live window: %w", err)
	}
	return conn, nil
}

// pump forwards batches until the connection fails or ctx is done. It
// reports whether at least one batch was delivered.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn, out chan<- models.LiveBatch) bool {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	delivered := false
	for {
		var batch models.LiveBatch
		if err := conn.ReadJSON(&batch); err != nil {
			if ctx.Err() == nil {
				log.Warnw(ctx, "live subscription dropped", "error", err)
			}
			return delivered
		}
		select {
		case out <- batch:
			delivered = true
		case <-ctx.Done():
			return delivered
		}
	}
}
