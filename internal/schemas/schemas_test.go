package schemas

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
)

func TestLoadEmbedded(t *testing.T) {
	for _, dt := range constants.DocTypes {
		t.Run(string(dt), func(t *testing.T) {
			s, err := Load(dt, "")
			require.NoError(t, err)
			assert.Equal(t, "embedded", s.Source)
			assert.Equal(t, dt, s.DocType)
			assert.NotContains(t, string(s.Raw), "\n")
		})
	}
}

func TestValidate(t *testing.T) {
	bl, err := Load(constants.DocTypeBL, "")
	require.NoError(t, err)

	assert.NoError(t, bl.Validate(map[string]any{"bl_no": "123", "packing": nil}))
	assert.Error(t, bl.Validate(map[string]any{"bl_no": "123", "bogus": "x"}))
	assert.Error(t, bl.Validate(map[string]any{"bl_no": 42.0}))

	inv, err := Load(constants.DocTypeImportInvoice, "")
	require.NoError(t, err)
	assert.NoError(t, inv.Validate(map[string]any{
		"invoice_no": "INV-1",
		"items":      []any{map[string]any{"line_no": 1.0, "quantity": 2.5}},
	}))
	assert.Error(t, inv.Validate(map[string]any{
		"items": []any{map[string]any{"line_no": 1.5}},
	}))
}

func TestLoadOverrideDir(t *testing.T) {
	dir := t.TempDir()

	// missing override file falls back to embedded copy
	s, err := Load(constants.DocTypeBL, dir)
	require.NoError(t, err)
	assert.Equal(t, "embedded", s.Source)

	custom := `{"type": "object", "properties": {"bl_no": {"type": "string"}}}`
	p := filepath.Join(dir, "bl_schema.json")
	require.NoError(t, os.WriteFile(p, []byte(custom), 0o644))
	s, err = Load(constants.DocTypeBL, dir)
	require.NoError(t, err)
	assert.Equal(t, p, s.Source)
	assert.Equal(t, `{"type":"object","properties":{"bl_no":{"type":"string"}}}`, string(s.Raw))
}

func TestLoadRejectsBrokenSchema(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `{"type": `},
		{name: "invalid keyword value", body: `{"type": 12}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "import_invoice_schema.json"), []byte(tt.body), 0o644))
			_, err := Load(constants.DocTypeImportInvoice, dir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrConfiguration))
		})
	}
}
