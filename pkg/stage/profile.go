// pkg/stage/profile.go

package stage

import (
	"bytes"
	"io"
	"os"
	"regexp"

	"AveIO/pkg/object"
	"AveIO/pkg/pipeline"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Profile is a reusable set of encode/decode options stored as YAML.
type Profile struct {
	ReadLimit     int64    `yaml:"read_limit"`
	BlockSize     int      `yaml:"block_size"`
	EndOnZeroRead bool     `yaml:"end_on_zero_read"`
	BufferSize    int      `yaml:"buffer_size"`
	BWLimit       int64    `yaml:"bwlimit"`
	Storage       string   `yaml:"storage"`
	Encrypt       bool     `yaml:"encrypt"`
	EncryptKey    string   `yaml:"encrypt_key"`
	CacheSize     int64    `yaml:"cache_size"`
	Stages        []string `yaml:"stages"`
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} with the variable's value, or with the default
// of ${VAR:-default} when the variable is unset or empty.
func ExpandEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok && value != "" {
			return value
		}
		return groups[2]
	})
}

// LoadProfile reads a YAML profile after expanding environment variables.
// Unknown keys are an error.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("profile not found: %s", path)
		}
		return nil, errors.Wrapf(err, "read profile %s", path)
	}
	return ParseProfile([]byte(ExpandEnv(string(data))))
}

func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "invalid profile")
	}
	if p.BlockSize < 0 || p.BufferSize < 0 || p.BWLimit < 0 || p.CacheSize < 0 {
		return nil, errors.New("invalid profile: sizes must not be negative")
	}
	return &p, nil
}

// PipelineConfig builds the pipeline configuration, parsing every stage.
func (p *Profile) PipelineConfig() (pipeline.Config, error) {
	encoders, err := ParseAll(p.Stages)
	if err != nil {
		return pipeline.Config{}, err
	}
	conf := pipeline.Config{
		ReadLimit:     p.ReadLimit,
		ReadBlockSize: p.BlockSize,
		EndOnZeroRead: p.EndOnZeroRead,
		Encoders:      encoders,
	}
	if conf.ReadBlockSize == 0 {
		conf.ReadBlockSize = pipeline.DefaultReadBlockSize
	}
	return conf, conf.Check()
}

// OpenStorage opens Storage and stacks its decorators: the bandwidth limit
// next to the storage, then encryption, then the cache of plain objects.
func (p *Profile) OpenStorage() (object.ObjectStorage, error) {
	if p.Storage == "" {
		return nil, errors.New("no storage configured")
	}
	store, err := object.Open(p.Storage)
	if err != nil {
		return nil, err
	}
	if p.BWLimit > 0 {
		store = object.NewLimited(store, p.BWLimit, p.BWLimit)
	}
	if p.Encrypt || p.EncryptKey != "" {
		enc, err := NewEncryptor(p.EncryptKey)
		if err != nil {
			return nil, errors.Wrap(err, "storage encryption")
		}
		store = object.NewEncrypted(store, enc)
	}
	if p.CacheSize > 0 {
		store = object.NewCached(store, p.CacheSize)
	}
	return store, nil
}
