package gds

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Registry maps cell names to cells. It is owned by the caller and passed
// in explicitly; the codec keeps no global cell table. Insertion order is
// preserved so repeated encodes of the same registry emit structures in a
// stable order.
type Registry struct {
	cells map[string]*Cell
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cells: make(map[string]*Cell)}
}

// Add registers a cell under its name. Duplicate names are rejected.
func (r *Registry) Add(c *Cell) error {
	if c.Name == "" {
		return fmt.Errorf("gds: cell has empty name")
	}
	if _, ok := r.cells[c.Name]; ok {
		return fmt.Errorf("gds: duplicate cell name %q", c.Name)
	}
	r.cells[c.Name] = c
	r.order = append(r.order, c.Name)
	return nil
}

// Get looks up a cell by name.
func (r *Registry) Get(name string) (*Cell, bool) {
	c, ok := r.cells[name]
	return c, ok
}

// Names returns the registered cell names in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// CycleError reports a cell that references itself directly or
// transitively. The path lists the reference chain ending at the repeat.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("gds: cell reference cycle: %s", strings.Join(e.Path, " -> "))
}

// checkCycles walks the reference graph of every registered cell with a
// visited set, failing on the first cycle or dangling reference.
func (r *Registry) checkCycles() error {
	const (
		unseen = iota
		inStack
		done
	)
	state := make(map[string]int, len(r.cells))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		c, ok := r.cells[name]
		if !ok {
			return fmt.Errorf("gds: reference to unknown cell %q (path %s)", name, strings.Join(path, " -> "))
		}
		switch state[name] {
		case done:
			return nil
		case inStack:
			return &CycleError{Path: append(append([]string(nil), path...), name)}
		}
		state[name] = inStack
		path = append(path, name)
		for _, inst := range c.instances {
			if err := visit(inst.Ref); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	for _, name := range r.order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// Library is a GDSII library: a named collection of cells with the unit
// scale the stream is written in. UserUnit and DatabaseUnit are sizes in
// meters (the conventional 1e-6 / 1e-9 pair gives micron coordinates with
// nanometer database resolution).
type Library struct {
	Name         string
	UserUnit     float64 // meters per user unit
	DatabaseUnit float64 // meters per database unit
	Registry     *Registry
}

// NewLibrary returns a library with micron user units and nanometer
// database units.
func NewLibrary(name string) *Library {
	return &Library{
		Name:         name,
		UserUnit:     1e-6,
		DatabaseUnit: 1e-9,
		Registry:     NewRegistry(),
	}
}

// UnitMultiplier returns the database-units-per-user-unit scale passed to
// EncodeStructure.
func (l *Library) UnitMultiplier() float64 {
	return l.UserUnit / l.DatabaseUnit
}

// WriteTo serializes the whole library: HEADER, BGNLIB, LIBNAME, UNITS,
// every registered structure in insertion order, ENDLIB. The reference
// graph is cycle-checked before any byte is written, so a cyclic registry
// produces no partial stream.
func (l *Library) WriteTo(out io.Writer) (int64, error) {
	if l.DatabaseUnit <= 0 || l.UserUnit <= 0 {
		return 0, fmt.Errorf("gds: library units must be positive")
	}
	if err := l.Registry.checkCycles(); err != nil {
		return 0, err
	}

	w := &recordWriter{}
	now := timestampFields(time.Now())
	w.i16(recHeader, streamVersion)
	w.i16(recBgnLib, append(now, now...)...)
	w.str(recLibName, l.Name)
	// UNITS: database unit in user units, then database unit in meters.
	w.real8(recUnits, l.DatabaseUnit/l.UserUnit, l.DatabaseUnit)
	header, err := w.bytesAndErr()
	if err != nil {
		return 0, err
	}

	mul := l.UnitMultiplier()
	var written int64
	n, err := out.Write(header)
	written += int64(n)
	if err != nil {
		return written, err
	}
	for _, name := range l.Registry.order {
		c := l.Registry.cells[name]
		body, err := EncodeStructure(c, mul)
		if err != nil {
			return written, fmt.Errorf("gds: encoding cell %q: %w", name, err)
		}
		n, err := out.Write(body)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	w = &recordWriter{}
	w.i16(recEndLib)
	footer, err := w.bytesAndErr()
	if err != nil {
		return written, err
	}
	n, err = out.Write(footer)
	written += int64(n)
	return written, err
}
