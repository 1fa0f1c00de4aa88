// Package progress feeds dataset progress notifications pushed by the
// backend monitor into dataset.UpdateDatasets.
package progress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/on-the-ground/ymir_dataset/model"
	"github.com/on-the-ground/ymir_dataset/shared/helper"
)

// dialAttempts bounds the connection attempts of one Run.
const dialAttempts = 3

// Subscriber reads progress messages from a websocket feed. Every text
// message is one model.ProgressUpdate encoded as JSON.
type Subscriber struct {
	url    string
	header http.Header
	dialer websocket.Dialer
}

// NewSubscriber returns a subscriber for feedURL. http and https URLs are
// dialed as ws and wss.
func NewSubscriber(feedURL string, header http.Header) *Subscriber {
	feedURL = strings.Replace(feedURL, "http://", "ws://", 1)
	feedURL = strings.Replace(feedURL, "https://", "wss://", 1)
	return &Subscriber{
		url:    feedURL,
		header: header,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// Run sends every update read from the feed to out until the feed closes,
// a message fails to decode or ctx is done. A normal close returns nil.
func (s *Subscriber) Run(ctx context.Context, out chan<- model.ProgressUpdate) error {
	var conn *websocket.Conn
	err := helper.Retry(dialAttempts, func() error {
		var dialErr error
		conn, _, dialErr = s.dialer.DialContext(ctx, s.url, s.header)
		return dialErr
	})
	if err != nil {
		return fmt.Errorf("websocket connect: %w", err)
	}

	var once sync.Once
	closeConn := func() { once.Do(func() { conn.Close() }) }
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	for {
		var update model.ProgressUpdate
		if err := conn.ReadJSON(&update); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}
		if len(update) == 0 {
			continue
		}
		select {
		case out <- update:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
