// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloTask Contributors

package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/holotask/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	raw, err := GenerateSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, SchemaID, doc["$id"])
	assert.Equal(t, "HoloTask Configuration", doc["title"])
	assert.Equal(t, false, doc["additionalProperties"])
	assert.NotContains(t, doc, "required")

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "http-addr")
	assert.Contains(t, props, "shutdown-timeout")
	assert.NotContains(t, props, "Secrets")
	assert.NotContains(t, props, "database-url")
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "empty file", content: ""},
		{name: "full file", content: `
http-addr: 0.0.0.0:8080
metrics-addr: ""
log-format: text
log-level: debug
storage: postgres
cors-origins: ["https://*.example.com"]
argon2-time: 2
argon2-memory: 65536
argon2-threads: 2
auto-migrate: false
db-connect-attempts: 3
shutdown-timeout: 5s
`},
		{name: "unknown key", content: "http-adr: 0.0.0.0:8080\n", wantErr: true},
		{name: "secret in file", content: "token-secret: abc\n", wantErr: true},
		{name: "bad enum", content: "log-format: xml\n", wantErr: true},
		{name: "wrong type", content: "argon2-time: fast\n", wantErr: true},
		{name: "below minimum", content: "argon2-threads: 0\n", wantErr: true},
		{name: "numeric duration", content: "shutdown-timeout: 10\n", wantErr: true},
		{name: "malformed yaml", content: "http-addr: [unclosed\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile([]byte(tt.content))
			if tt.wantErr {
				errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
				return
			}
			assert.NoError(t, err)
		})
	}
}
