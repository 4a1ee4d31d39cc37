package eos

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/rtm0/eos/internal/driver"
)

// file is what GridFile and SwathFile share: the open driver file and every
// handle attached from it.
type file struct {
	path       string
	f          driver.File
	drv        string
	log        *slog.Logger
	strict     bool
	handles    []driver.Object
	attachErrs []*AttachError
	attrs      Attrs
	closed     bool
}

func openFile(path string, o *options) (*file, error) {
	ds := o.drivers
	if ds == nil {
		ds = driver.Drivers()
	}
	f, d, err := driver.Detect(path, ds)
	if err != nil {
		return nil, err
	}
	log := o.logger.With("path", path)
	log.Debug("opened file", "driver", d.Name(), "capabilities", f.Capabilities())
	return &file{path: path, f: f, drv: d.Name(), log: log, strict: o.strict}, nil
}

func (fl *file) source() attrSource { return attrSource{file: fl.f, log: fl.log} }

// attachAll attaches every named object. A failed attach is recorded and the
// object skipped, unless the file is strict.
func attachAll[H driver.Object, W any](fl *file, names []string, open func(string) (H, error), build func(H) (W, error)) ([]W, error) {
	var out []W
	for _, name := range names {
		w, err := attachOne(fl, name, open, build)
		if err != nil {
			aerr := &AttachError{Name: name, Err: err}
			if fl.strict {
				return nil, aerr
			}
			fl.log.Warn("cannot attach", "object", name, "err", err)
			fl.attachErrs = append(fl.attachErrs, aerr)
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// attachOne attaches one object and builds its wrapper. The handle is
// detached again when the wrapper cannot be built.
func attachOne[H driver.Object, W any](fl *file, name string, open func(string) (H, error), build func(H) (W, error)) (w W, err error) {
	h, err := open(name)
	if err != nil {
		return w, err
	}
	defer func() {
		if err == nil {
			return
		}
		if derr := h.Detach(); derr != nil {
			fl.log.Warn("cannot detach", "object", name, "err", derr)
		}
	}()
	if w, err = build(h); err != nil {
		return w, err
	}
	fl.handles = append(fl.handles, h)
	fl.log.Debug("attached", "object", name)
	return w, nil
}

// close detaches every handle, latest first, then closes the file.
func (fl *file) close() error {
	if fl.closed {
		return ErrClosed
	}
	fl.closed = true
	var errs []error
	for i := len(fl.handles) - 1; i >= 0; i-- {
		h := fl.handles[i]
		if err := h.Detach(); err != nil {
			errs = append(errs, fmt.Errorf("detaching %s: %w", h.Name(), err))
			continue
		}
		fl.log.Debug("detached", "object", h.Name())
	}
	fl.handles = nil
	if err := fl.f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing %s: %w", fl.path, err))
	}
	return errors.Join(errs...)
}

// release closes a partially built file, logging what could not be released.
func (fl *file) release() {
	if err := fl.close(); err != nil {
		fl.log.Warn("cannot release file", "err", err)
	}
}

// Path is the path the file was opened from.
func (fl *file) Path() string { return fl.path }

// Driver names the storage driver that opened the file.
func (fl *file) Driver() string { return fl.drv }

// Attrs returns the file attributes.
func (fl *file) Attrs() Attrs { return fl.attrs }

// AttachErrors returns the objects that failed to attach while opening.
func (fl *file) AttachErrors() []*AttachError {
	return append([]*AttachError(nil), fl.attachErrs...)
}

func newOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// GridFile is an open file with its grids attached.
type GridFile struct {
	*file
	grids []*Grid
}

// OpenGrids opens path with the first driver that recognizes it and attaches
// every grid. The returned file must be closed.
func OpenGrids(path string, opts ...Option) (*GridFile, error) {
	o := newOptions(opts)
	fl, err := openFile(path, o)
	if err != nil {
		return nil, err
	}
	if !fl.f.Capabilities().Has(driver.Grids) {
		fl.release()
		return nil, fmt.Errorf("%w: %s: driver %s has no grids", ErrNotRecognized, path, fl.drv)
	}
	names, err := fl.f.Grids()
	if err != nil {
		fl.release()
		return nil, fmt.Errorf("%s: listing grids: %w", path, err)
	}
	grids, err := attachAll(fl, names, fl.f.AttachGrid, func(g driver.Grid) (*Grid, error) {
		return newGrid(fl, g, o.transformer)
	})
	if err != nil {
		fl.release()
		return nil, err
	}
	fl.attrs = fl.source().fileAttrs()
	return &GridFile{file: fl, grids: grids}, nil
}

// Grids returns the names of the attached grids in storage order.
func (gf *GridFile) Grids() []string {
	names := make([]string, len(gf.grids))
	for i, g := range gf.grids {
		names[i] = g.Name()
	}
	return names
}

// Grid returns the named grid.
func (gf *GridFile) Grid(name string) (*Grid, error) {
	if gf.closed {
		return nil, ErrClosed
	}
	for _, g := range gf.grids {
		if g.Name() == name {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: grid %q in %s", ErrNotFound, name, gf.path)
}

// Close detaches every grid and closes the file. Closing twice returns
// ErrClosed.
func (gf *GridFile) Close() error { return gf.close() }

func (gf *GridFile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", filepath.Base(gf.path))
	for _, g := range gf.grids {
		b.WriteString(g.String())
	}
	return b.String()
}

// SwathFile is an open file with its swaths attached.
type SwathFile struct {
	*file
	swaths []*Swath
}

// OpenSwaths opens path with the first driver that recognizes it and
// attaches every swath. The returned file must be closed.
func OpenSwaths(path string, opts ...Option) (*SwathFile, error) {
	o := newOptions(opts)
	fl, err := openFile(path, o)
	if err != nil {
		return nil, err
	}
	if !fl.f.Capabilities().Has(driver.Swaths) {
		fl.release()
		return nil, fmt.Errorf("%w: %s: driver %s has no swaths", ErrNotRecognized, path, fl.drv)
	}
	names, err := fl.f.Swaths()
	if err != nil {
		fl.release()
		return nil, fmt.Errorf("%s: listing swaths: %w", path, err)
	}
	src := fl.source()
	swaths, err := attachAll(fl, names, fl.f.AttachSwath, func(s driver.Swath) (*Swath, error) {
		return newSwath(s, src)
	})
	if err != nil {
		fl.release()
		return nil, err
	}
	fl.attrs = src.fileAttrs()
	return &SwathFile{file: fl, swaths: swaths}, nil
}

// Swaths returns the names of the attached swaths in storage order.
func (sf *SwathFile) Swaths() []string {
	names := make([]string, len(sf.swaths))
	for i, s := range sf.swaths {
		names[i] = s.Name()
	}
	return names
}

// Swath returns the named swath.
func (sf *SwathFile) Swath(name string) (*Swath, error) {
	if sf.closed {
		return nil, ErrClosed
	}
	for _, s := range sf.swaths {
		if s.Name() == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: swath %q in %s", ErrNotFound, name, sf.path)
}

// Close detaches every swath and closes the file. Closing twice returns
// ErrClosed.
func (sf *SwathFile) Close() error { return sf.close() }

func (sf *SwathFile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", filepath.Base(sf.path))
	for _, s := range sf.swaths {
		b.WriteString(s.String())
	}
	return b.String()
}
