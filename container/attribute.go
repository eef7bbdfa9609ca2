package container

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/splash/blobstore"
	"github.com/hupe1980/splash/dtype"
)

// attrs stores attributes as blobs below <dir>/.attrs/. Each blob is one
// type byte followed by the little-endian payload.
type attrs struct {
	c   *Container
	dir string
}

func (a *attrs) attrBlob(name string) string {
	return a.c.blob(a.dir, attrsDir, name)
}

// SetAttribute stores value under name, replacing any previous value.
func (a *attrs) SetAttribute(ctx context.Context, name string, t dtype.Type, value any) error {
	if err := a.c.check(true); err != nil {
		return err
	}
	if err := checkName(name); err != nil {
		return err
	}
	payload, err := dtype.Encode(t, value)
	if err != nil {
		return err
	}
	data := make([]byte, 1+len(payload))
	data[0] = byte(t)
	copy(data[1:], payload)
	if err := a.c.store.Put(ctx, a.attrBlob(name), data); err != nil {
		return fmt.Errorf("container: set attribute %s: %w", name, err)
	}
	return nil
}

func (a *attrs) load(ctx context.Context, name string) (dtype.Type, []byte, error) {
	if err := a.c.check(false); err != nil {
		return dtype.Invalid, nil, err
	}
	if err := checkName(name); err != nil {
		return dtype.Invalid, nil, err
	}
	data, err := blobstore.ReadAll(ctx, a.c.store, a.attrBlob(name))
	if err != nil {
		return dtype.Invalid, nil, translate(err, "attribute "+name)
	}
	if len(data) == 0 || !dtype.Type(data[0]).Valid() {
		return dtype.Invalid, nil, fmt.Errorf("%w: attribute %s", ErrCorrupt, name)
	}
	return dtype.Type(data[0]), data[1:], nil
}

// Attribute decodes the attribute name into dst.
func (a *attrs) Attribute(ctx context.Context, name string, dst any) error {
	t, payload, err := a.load(ctx, name)
	if err != nil {
		return err
	}
	return dtype.Decode(t, payload, dst)
}

// AttributeType returns the stored type of attribute name.
func (a *attrs) AttributeType(ctx context.Context, name string) (dtype.Type, error) {
	t, _, err := a.load(ctx, name)
	return t, err
}

// Attributes returns the sorted attribute names.
func (a *attrs) Attributes(ctx context.Context) ([]string, error) {
	if err := a.c.check(false); err != nil {
		return nil, err
	}
	prefix := a.c.blob(a.dir, attrsDir) + "/"
	blobs, err := a.c.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(blobs))
	for _, b := range blobs {
		names = append(names, strings.TrimPrefix(b, prefix))
	}
	return names, nil
}
