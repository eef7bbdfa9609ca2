// Package minio stores containers on MinIO or any other S3-compatible
// server through the MinIO client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	store := minioblob.NewStore(client, "sim-output", "run-42/")
//
// It needs no AWS configuration, which suits on-premise clusters where
// the collector usually runs.
package minio
