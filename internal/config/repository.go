// Package config loads a model repository directory off disk: the
// versioned envelope document (acquiesce.json), the chat template
// (chat_template.jinja), and the model's own config.json, per spec.md §6
// "On-disk configuration". Grounded on the teacher's DataStorageService
// (internal/server/biz/data_storage.go), which likewise keeps an afero.Fs
// per logical storage location so the loader works unchanged against a
// real directory or an in-memory fixture in tests.
package config

import (
	"bytes"
	"encoding/json"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/looplj/acquiesce"
)

const (
	envelopeFile = "acquiesce.json"
	templateFile = "chat_template.jinja"
	configFile   = "config.json"
)

// ModelRepository is everything render.Render needs for one model: its
// envelope description, its chat template source, and the raw model
// config document (tokenizer/generation settings a host may want but this
// module does not interpret).
type ModelRepository struct {
	Envelope     acquiesce.Envelope
	ChatTemplate string
	Config       json.RawMessage
}

// Repository loads model repositories rooted under a single afero.Fs,
// following the teacher's pattern of keeping the filesystem abstraction at
// the service boundary rather than reaching for os.* directly.
type Repository struct {
	fs afero.Fs
}

// New opens a Repository rooted at dir on the real filesystem.
func New(dir string) *Repository {
	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), dir))
}

// NewWithFs opens a Repository against an arbitrary afero.Fs, letting
// tests substitute afero.NewMemMapFs() for a real directory.
func NewWithFs(fs afero.Fs) *Repository {
	return &Repository{fs: fs}
}

// Load reads and validates the three configuration assets spec.md §6
// requires, returning typed InitErrors that name the missing or malformed
// asset.
func (r *Repository) Load() (*ModelRepository, error) {
	envelope, err := r.loadEnvelope()
	if err != nil {
		return nil, err
	}

	template, err := r.loadTemplate()
	if err != nil {
		return nil, err
	}

	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}

	return &ModelRepository{Envelope: envelope, ChatTemplate: template, Config: cfg}, nil
}

func (r *Repository) loadEnvelope() (acquiesce.Envelope, error) {
	data, err := r.read(envelopeFile)
	if err != nil {
		return acquiesce.Envelope{}, err
	}

	return acquiesce.DecodeStoredConfig(data)
}

func (r *Repository) loadTemplate() (string, error) {
	data, err := afero.ReadFile(r.fs, templateFile)
	if err != nil {
		if isNotExist(err) {
			return "", &acquiesce.InitError{Kind: acquiesce.InitMissingTemplate, Name: templateFile, Err: err}
		}

		return "", &acquiesce.InitError{Kind: acquiesce.InitFailedToReadConfig, Detail: err.Error(), Err: err}
	}

	return string(data), nil
}

// loadConfig reads config.json through viper rather than encoding/json
// directly: config.json is an open-ended document (tokenizer settings,
// generation defaults) this module never interprets field-by-field, and
// viper's generic key/value decoding is what the teacher's own config
// loading (internal/server/config, same dependency) reaches for when a
// document's shape isn't owned by this codebase.
func (r *Repository) loadConfig() (json.RawMessage, error) {
	data, err := r.read(configFile)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("json")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, &acquiesce.InitError{Kind: acquiesce.InitInvalidConfig, Detail: err.Error(), Err: err}
	}

	settings, err := json.Marshal(v.AllSettings())
	if err != nil {
		return nil, &acquiesce.InitError{Kind: acquiesce.InitInvalidConfig, Detail: err.Error(), Err: err}
	}

	return settings, nil
}

func (r *Repository) read(name string) ([]byte, error) {
	data, err := afero.ReadFile(r.fs, name)
	if err != nil {
		if isNotExist(err) {
			return nil, &acquiesce.InitError{Kind: acquiesce.InitConfigNotFound, Name: name, Err: err}
		}

		return nil, &acquiesce.InitError{Kind: acquiesce.InitFailedToReadConfig, Detail: err.Error(), Err: err}
	}

	return data, nil
}

func isNotExist(err error) bool {
	return afero.IsNotExist(err)
}
