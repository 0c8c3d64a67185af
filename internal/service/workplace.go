package service

import (
	"fmt"

	"carpool/internal/domain"
)

// WorkplaceCatalog is the fixed set of destinations drivers and riders commute to.
type WorkplaceCatalog struct {
	workplaces []domain.Workplace
	byName     map[string]domain.Workplace
}

// NewWorkplaceCatalog creates a new WorkplaceCatalog.
func NewWorkplaceCatalog(workplaces []domain.Workplace) *WorkplaceCatalog {
	c := &WorkplaceCatalog{
		workplaces: append([]domain.Workplace(nil), workplaces...),
		byName:     make(map[string]domain.Workplace, len(workplaces)),
	}
	for _, w := range workplaces {
		c.byName[w.Name] = w
	}
	return c
}

// Lookup returns the workplace with the given name.
func (c *WorkplaceCatalog) Lookup(name string) (domain.Workplace, error) {
	w, ok := c.byName[name]
	if !ok {
		return domain.Workplace{}, fmt.Errorf("%w: %q", ErrUnknownWorkplace, name)
	}
	return w, nil
}

// All returns the workplaces in catalogue order.
func (c *WorkplaceCatalog) All() []domain.Workplace {
	return append([]domain.Workplace(nil), c.workplaces...)
}
