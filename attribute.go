package splash

import (
	"context"

	"github.com/hupe1980/splash/dtype"
)

type attributeStore interface {
	SetAttribute(ctx context.Context, name string, t dtype.Type, value any) error
	Attribute(ctx context.Context, name string, dst any) error
}

// WriteGlobalAttribute stores value as attribute name of iteration id.
func (dc *Collector) WriteGlobalAttribute(ctx context.Context, id uint32, t dtype.Type, name string, value any) (err error) {
	const op = "writeGlobalAttribute"
	defer dc.recordAttribute(ctx, id, name, true, &err)

	if name == "" || value == nil {
		return invalidArgument(op, "a parameter was nil")
	}
	if err := dc.checkWrite(op); err != nil {
		return err
	}
	return dc.withCustomGroup(ctx, op, id, name, func(s attributeStore) error {
		return s.SetAttribute(ctx, name, t, value)
	})
}

// ReadGlobalAttribute decodes attribute name of iteration id into dst, a
// pointer to a scalar or a slice.
func (dc *Collector) ReadGlobalAttribute(ctx context.Context, id uint32, name string, dst any) (err error) {
	const op = "readGlobalAttribute"
	defer dc.recordAttribute(ctx, id, name, false, &err)

	if name == "" || dst == nil {
		return invalidArgument(op, "a parameter was nil")
	}
	if err := dc.checkRead(op); err != nil {
		return err
	}
	return dc.withCustomGroup(ctx, op, id, name, func(s attributeStore) error {
		return s.Attribute(ctx, name, dst)
	})
}

// WriteAttribute stores value as attribute attrName of dataset dataName of
// iteration id.
func (dc *Collector) WriteAttribute(ctx context.Context, id uint32, t dtype.Type, dataName, attrName string, value any) (err error) {
	const op = "writeAttribute"
	defer dc.recordAttribute(ctx, id, attrName, true, &err)

	if dataName == "" || attrName == "" || value == nil {
		return invalidArgument(op, "a parameter was nil")
	}
	if err := dc.checkWrite(op); err != nil {
		return err
	}
	return dc.withDataset(ctx, op, id, dataName, attrName, func(s attributeStore) error {
		return s.SetAttribute(ctx, attrName, t, value)
	})
}

// ReadAttribute decodes attribute attrName of dataset dataName of iteration
// id into dst.
func (dc *Collector) ReadAttribute(ctx context.Context, id uint32, dataName, attrName string, dst any) (err error) {
	const op = "readAttribute"
	defer dc.recordAttribute(ctx, id, attrName, false, &err)

	if dataName == "" || attrName == "" || dst == nil {
		return invalidArgument(op, "a parameter was nil")
	}
	if err := dc.checkRead(op); err != nil {
		return err
	}
	return dc.withDataset(ctx, op, id, dataName, attrName, func(s attributeStore) error {
		return s.Attribute(ctx, attrName, dst)
	})
}

func (dc *Collector) recordAttribute(ctx context.Context, id uint32, name string, write bool, err *error) {
	dc.metrics.RecordAttribute(write, *err)
	dc.logger.LogAttribute(ctx, id, name, write, *err)
}

func (dc *Collector) withCustomGroup(ctx context.Context, op string, id uint32, attr string, fn func(attributeStore) error) error {
	c, err := dc.container(ctx, op, id)
	if err != nil {
		return err
	}
	g, err := c.OpenGroup(ctx, GroupCustom)
	if err != nil {
		return translateError(op, GroupCustom, err)
	}
	defer g.Close()
	return translateError(op, attr, fn(g))
}

func (dc *Collector) withDataset(ctx context.Context, op string, id uint32, dataName, attr string, fn func(attributeStore) error) error {
	c, err := dc.container(ctx, op, id)
	if err != nil {
		return err
	}
	g, err := c.OpenGroup(ctx, dataGroup(id))
	if err != nil {
		return translateError(op, dataGroup(id), err)
	}
	defer g.Close()
	a, err := g.OpenArray(ctx, dataName)
	if err != nil {
		return translateError(op, dataName, err)
	}
	defer a.Close()
	return translateError(op, attr, fn(a))
}
