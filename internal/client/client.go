// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package client drives request/response exchanges with an ELCOR device
// over a transport.
package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Thermoquad/elcorstat/internal/transport"
	"github.com/Thermoquad/elcorstat/pkg/elgas"
)

// Transport carries escaped frames. *transport.Transport implements it.
type Transport interface {
	Send(data []byte) error
	Receive(ctx context.Context) ([]byte, error)
}

// Options configures a Client
type Options struct {
	Link     elgas.ConnectionConfig
	Password string
	// Retries is how many times an exchange is repeated after corruption or
	// a timeout. Device rejections are never retried.
	Retries int
	Logger  elgas.Logger
}

// Client is a master talking to one device. It is not safe for concurrent
// use; the link is half-duplex.
type Client struct {
	transport Transport
	conn      *elgas.Connection
	password  string
	retries   int
	logger    elgas.Logger
}

// New creates a client over t
func New(t Transport, opts Options) *Client {
	if opts.Logger == nil {
		opts.Logger = elgas.NopLogger()
	}
	if opts.Link.Logger == nil {
		opts.Link.Logger = opts.Logger
	}
	return &Client{
		transport: t,
		conn:      elgas.NewConnection(opts.Link),
		password:  opts.Password,
		retries:   opts.Retries,
		logger:    opts.Logger,
	}
}

// Statistics returns the link counters
func (c *Client) Statistics() *elgas.Statistics {
	return c.conn.Statistics()
}

// State is the session state name
func (c *Client) State() string {
	return c.conn.State()
}

// ReadTime reads the device clock
func (c *Client) ReadTime(ctx context.Context) (*elgas.ReadTimeResponse, error) {
	return call[*elgas.ReadTimeResponse](ctx, c, &elgas.ReadTimeRequest{})
}

// WriteTime sets the device clock to t
func (c *Client) WriteTime(ctx context.Context, t time.Time) error {
	_, err := call[*elgas.WriteTimeResponse](ctx, c, &elgas.WriteTimeRequest{
		Password: c.password,
		Time:     t,
	})
	return err
}

// ReadValues reads the instantaneous values
func (c *Client) ReadValues(ctx context.Context) (*elgas.ReadValuesResponse, error) {
	return call[*elgas.ReadValuesResponse](ctx, c, &elgas.ReadValuesRequest{Password: c.password})
}

// ReadParameterData pages through the SCADA parameter stream starting at
// object from and returns the concatenated page data.
func (c *Client) ReadParameterData(ctx context.Context, from uint16) ([]byte, error) {
	var data []byte
	objectCount := from
	for {
		c.logger.Info("requesting device parameters", "object_count", objectCount)
		resp, err := call[*elgas.ReadParametersResponse](ctx, c, &elgas.ReadParametersRequest{
			Password:     c.password,
			ObjectCount:  objectCount,
			BufferLength: elgas.DefaultParameterBufferLength,
		})
		if err != nil {
			return nil, fmt.Errorf("parameters from object %d: %w", objectCount, err)
		}
		c.logger.Info("received device parameters", "object_amount", resp.ObjectAmount, "bytes", len(resp.Data))

		data = append(data, resp.Data...)
		if resp.IsEnd {
			return data, nil
		}
		if resp.ObjectAmount == 0 {
			return nil, &elgas.ProtocolError{
				State:   c.conn.State(),
				Message: fmt.Sprintf("device returned an empty page at object %d without ending the stream", objectCount),
			}
		}
		if int(objectCount)+int(resp.ObjectAmount) > math.MaxUint16 {
			return nil, &elgas.ProtocolError{
				State:   c.conn.State(),
				Message: fmt.Sprintf("parameter stream runs past object %d without ending", math.MaxUint16),
			}
		}
		objectCount += resp.ObjectAmount
	}
}

// ReadParameters reads and decodes the device configuration
func (c *Client) ReadParameters(ctx context.Context, from uint16) ([]elgas.Record, error) {
	data, err := c.ReadParameterData(ctx, from)
	if err != nil {
		return nil, err
	}
	return elgas.DecodeParameters(data)
}

// ReadArchive reads amount records of archive starting at record id from
func (c *Client) ReadArchive(ctx context.Context, archive elgas.Archive, from uint32, amount uint16) (*elgas.ArchiveResponse, error) {
	return call[*elgas.ArchiveResponse](ctx, c, &elgas.ReadArchiveRequest{
		Password:       c.password,
		Archive:        archive,
		OldestRecordID: from,
		Amount:         amount,
	})
}

// ReadArchiveByTime reads amount records of archive starting at since
func (c *Client) ReadArchiveByTime(ctx context.Context, archive elgas.Archive, since time.Time, amount uint16) (*elgas.ArchiveResponse, error) {
	return call[*elgas.ArchiveResponse](ctx, c, &elgas.ReadArchiveByTimeRequest{
		Password:   c.password,
		Archive:    archive,
		Amount:     amount,
		OldestTime: since,
	})
}

func call[T elgas.Response](ctx context.Context, c *Client, req elgas.Request) (T, error) {
	var zero T
	resp, err := c.exchangeWithRetry(ctx, req)
	if err != nil {
		return zero, err
	}
	typed, ok := resp.(T)
	if !ok {
		return zero, &elgas.ProtocolError{
			State:   c.conn.State(),
			Message: fmt.Sprintf("unexpected %T for %s request", resp, req.Service()),
		}
	}
	return typed, nil
}

func (c *Client) exchangeWithRetry(ctx context.Context, req elgas.Request) (elgas.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.exchange(ctx, req)
		if err == nil || attempt >= c.retries || !retryable(err) || ctx.Err() != nil {
			return resp, err
		}
		c.logger.Warn("retrying exchange", "service", req.Service().String(), "attempt", attempt+1, "error", err.Error())
	}
}

// exchange sends one request and waits for its response. Any failure
// abandons the exchange so the next request starts from idle.
func (c *Client) exchange(ctx context.Context, req elgas.Request) (elgas.Response, error) {
	wire, err := c.conn.Send(req)
	if err != nil {
		return nil, err
	}
	if err := c.transport.Send(wire); err != nil {
		c.conn.Reset()
		return nil, err
	}

	for {
		resp, err := c.conn.NextEvent()
		if err != nil {
			c.conn.Reset()
			return nil, err
		}
		if resp != elgas.NeedData {
			return resp, nil
		}

		data, err := c.transport.Receive(ctx)
		if err != nil {
			c.conn.Reset()
			return nil, err
		}
		c.conn.ReceiveData(data)
	}
}

func retryable(err error) bool {
	return elgas.Category(err) == elgas.CategoryTransport || errors.Is(err, transport.ErrTimeout)
}
