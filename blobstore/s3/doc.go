// Package s3 stores containers in Amazon S3.
//
//	store, err := s3.New(ctx, "sim-output",
//	    s3.WithPrefix("run-42/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
// Every blob of a container becomes one object below the prefix. Small
// blobs (attributes, array metadata, slabs) go through PutObject with a
// CRC32C checksum; streaming writes use the multipart upload manager.
package s3
