package eos

import (
	"io"
	"log/slog"

	"github.com/rtm0/eos/gctp"
	"github.com/rtm0/eos/internal/driver"
)

// Option configures how a file is opened.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	transformer gctp.Transformer
	strict      bool
	drivers     []driver.Driver
}

func defaultOptions() *options {
	return &options{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		transformer: gctp.Default,
	}
}

// WithLogger sets the logger for attach, detach and attribute fallback
// events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTransformer replaces the transform used by Grid.Geolocate.
func WithTransformer(t gctp.Transformer) Option {
	return func(o *options) {
		if t != nil {
			o.transformer = t
		}
	}
}

// WithStrictAttach makes opening fail if any grid or swath fails to attach.
// By default the failure is recorded and the object is skipped.
func WithStrictAttach() Option {
	return func(o *options) {
		o.strict = true
	}
}

// withDrivers overrides the registered drivers.
func withDrivers(ds ...driver.Driver) Option {
	return func(o *options) {
		o.drivers = ds
	}
}
