package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/looplj/acquiesce"
)

const validEnvelope = `{
  "version": "v1",
  "config": {"type": "harmony"}
}`

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestRepository_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, envelopeFile, validEnvelope)
	writeFile(t, fs, templateFile, "{{ messages }}")
	writeFile(t, fs, configFile, `{"max_position_embeddings": 4096}`)

	repo, err := NewWithFs(fs).Load()
	require.NoError(t, err)

	assert.Equal(t, acquiesce.EnvelopeHarmony, repo.Envelope.Kind)
	assert.Equal(t, "{{ messages }}", repo.ChatTemplate)
	assert.Contains(t, string(repo.Config), "max_position_embeddings")
}

func TestRepository_Load_MissingEnvelope(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, templateFile, "{{ messages }}")
	writeFile(t, fs, configFile, `{}`)

	_, err := NewWithFs(fs).Load()
	require.Error(t, err)

	var initErr *acquiesce.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, acquiesce.InitConfigNotFound, initErr.Kind)
	assert.Equal(t, envelopeFile, initErr.Name)
}

func TestRepository_Load_MissingTemplate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, envelopeFile, validEnvelope)
	writeFile(t, fs, configFile, `{}`)

	_, err := NewWithFs(fs).Load()
	require.Error(t, err)

	var initErr *acquiesce.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, acquiesce.InitMissingTemplate, initErr.Kind)
}

func TestRepository_Load_RejectsUnknownVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, envelopeFile, `{"version": "v2", "config": {"type": "harmony"}}`)
	writeFile(t, fs, templateFile, "{{ messages }}")
	writeFile(t, fs, configFile, `{}`)

	_, err := NewWithFs(fs).Load()
	require.Error(t, err)

	var initErr *acquiesce.InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, acquiesce.InitInvalidConfig, initErr.Kind)
}
