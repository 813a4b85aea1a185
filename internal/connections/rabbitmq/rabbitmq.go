package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel

	acks <-chan amqp.Confirmation // publisher confirms
	mu   sync.Mutex               // serializes Publish while waiting for a confirm
}

// Channel returns the publishing channel.
func (c *Client) Channel() *amqp.Channel { return c.ch }

func (c *Client) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// URL renders the AMQP URL of cfg.
func URL(cfg config.RabbitMQConfig) string {
	scheme := "amqp"
	if cfg.UseTLS {
		scheme = "amqps"
	}
	vhost := cfg.VHost
	if vhost == "" {
		vhost = "/"
	}
	u := url.URL{
		Scheme:  scheme,
		User:    url.UserPassword(cfg.User, cfg.Password),
		Host:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:    "/" + vhost,
		RawPath: "/" + url.PathEscape(vhost),
	}
	return u.String()
}

func Dial(cfg config.RabbitMQConfig) (*Client, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	if cfg.UseTLS {
		conn, err = amqp.DialTLS(URL(cfg), &tls.Config{MinVersion: tls.VersionTLS12})
	} else {
		conn, err = amqp.Dial(URL(cfg))
	}
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	return &Client{conn: conn, ch: ch, acks: acks}, nil
}

// Ping is a light health check of the connection.
func (c *Client) Ping() error {
	if c.conn == nil || c.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	return nil
}

// NewChannel opens a separate channel, consumers use it so that acks and
// publishes do not share a channel.
func (c *Client) NewChannel() (*amqp.Channel, error) {
	return c.conn.Channel()
}

// Publish sends a message and waits for the broker ack or nack.
func (c *Client) Publish(ctx context.Context, exchange, key string,
	body []byte, headers amqp.Table, contentType string, persistent bool) error {

	c.mu.Lock()
	defer c.mu.Unlock()

	mode := amqp.Transient
	if persistent {
		mode = amqp.Persistent
	}

	if err := c.ch.PublishWithContext(
		ctx,
		exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: mode,
			ContentType:  contentType,
			Timestamp:    time.Now(),
			Headers:      headers,
			Body:         body,
		},
	); err != nil {
		return err
	}

	select {
	case conf := <-c.acks:
		if conf.Ack {
			return nil
		}
		return errors.New("publish NACK from broker")
	case <-ctx.Done():
		return ctx.Err()
	}
}
