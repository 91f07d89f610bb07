package storage_test

import (
	"testing"

	"rse-auditor/core/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{
			name: "plain endpoint",
			cfg: storage.Config{
				Endpoint:  "minio.local:9000",
				AccessKey: "dumps-reader",
				SecretKey: "dumps-secret",
				Bucket:    "dumps",
			},
		},
		{
			// Minio wants the endpoint without a scheme; the constructor
			// strips it rather than failing.
			name: "http scheme stripped",
			cfg: storage.Config{
				Endpoint:  "http://minio.local:9000",
				AccessKey: "dumps-reader",
				SecretKey: "dumps-secret",
				Bucket:    "dumps",
			},
		},
		{
			name: "https endpoint with region",
			cfg: storage.Config{
				Endpoint:  "https://s3.cern.ch",
				AccessKey: "dumps-reader",
				SecretKey: "dumps-secret",
				UseSSL:    true,
				Region:    "eu-west-1",
				Bucket:    "rucio-dumps",
			},
		},
		{
			name: "zero timeout gets a default",
			cfg: storage.Config{
				Endpoint:       "minio.local:9000",
				AccessKey:      "dumps-reader",
				SecretKey:      "dumps-secret",
				Bucket:         "dumps",
				TimeoutSeconds: 0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := storage.NewClient(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}
