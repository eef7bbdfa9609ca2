// Package container stores named, hierarchical, self-describing data
// containers on a blobstore.BlobStore.
//
// A container is the set of blobs below one name prefix:
//
//	<name>/.container                    manifest (format, version, codec)
//	<name>/<group>/.group                group marker
//	<name>/<group>/.attrs/<attr>         one typed attribute
//	<name>/<group>/<array>/.array        array descriptor (type, shape, codec)
//	<name>/<group>/<array>/slabs/<key>   one write-once slab per selection
//
// Every write produces new blobs or replaces a blob with identical meaning,
// so processes sharing a store never read-modify-write the same object.
// A slab key holds the slab's offset, extents and generation; a new slab
// gets a generation above every slab it overlaps, and slabs it covers
// entirely are deleted. A region read lists the array's slabs, fetches the
// ones intersecting the region and applies them oldest generation first.
// Cells no slab covers read as zero.
//
// Arrays store their shape in backend axis order (slowest axis first, see
// grid.Dimensions.Swap). Slab payloads are dense, x-fastest element runs,
// framed by internal/compress.
package container
