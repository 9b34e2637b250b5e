// pkg/stage/stage.go

package stage

import (
	"encoding/base64"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"AveIO/pkg/chunk"
	"AveIO/pkg/compress"
	"AveIO/pkg/object"
	"AveIO/pkg/transcode"

	"github.com/pkg/errors"
)

const (
	// PassphraseEnv holds the passphrase of the encrypt and decrypt stages.
	PassphraseEnv = "AVEIO_PASSPHRASE"
	// KeyPassphraseEnv unlocks an encrypted RSA private key.
	KeyPassphraseEnv = "AVEIO_KEY_PASSPHRASE"
)

// Factory builds a fresh encoder; args are the ':'-separated fields after
// the stage name.
type Factory func(args []string) (chunk.Encoder, error)

type entry struct {
	usage   string
	minArgs int
	maxArgs int
	build   Factory
}

var (
	mu       sync.Mutex
	registry = make(map[string]entry)
)

// Register adds a stage. Registering a name twice replaces it.
func Register(name, usage string, minArgs, maxArgs int, build Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = entry{usage, minArgs, maxArgs, build}
}

// Names lists the registered stages, sorted.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Usage returns the syntax of a stage, e.g. "charset:FROM:TO".
func Usage(name string) string {
	mu.Lock()
	defer mu.Unlock()
	return registry[name].usage
}

// Parse builds the encoder described by def, "name[:arg[:arg]]".
func Parse(def string) (chunk.Encoder, error) {
	fields := strings.Split(strings.TrimSpace(def), ":")
	name := strings.ToLower(fields[0])
	args := fields[1:]

	mu.Lock()
	e, ok := registry[name]
	mu.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown stage %q", name)
	}
	if len(args) < e.minArgs || len(args) > e.maxArgs {
		return nil, errors.Errorf("stage %q: want %s", def, e.usage)
	}
	enc, err := e.build(args)
	if err != nil {
		return nil, errors.Wrapf(err, "stage %q", def)
	}
	return enc, nil
}

// ParseAll parses defs in order.
func ParseAll(defs []string) ([]chunk.Encoder, error) {
	encoders := make([]chunk.Encoder, 0, len(defs))
	for _, s := range defs {
		e, err := Parse(s)
		if err != nil {
			return nil, err
		}
		encoders = append(encoders, e)
	}
	return encoders, nil
}

func base64Encoding(args []string) (*base64.Encoding, error) {
	if len(args) == 0 {
		return base64.StdEncoding, nil
	}
	switch args[0] {
	case "std":
		return base64.StdEncoding, nil
	case "url":
		return base64.URLEncoding, nil
	case "raw":
		return base64.RawStdEncoding, nil
	case "rawurl":
		return base64.RawURLEncoding, nil
	}
	return nil, errors.Errorf("unknown base64 alphabet %q", args[0])
}

func size(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.Wrapf(chunk.ErrInvalidArgument, "size %q", arg)
	}
	return n, nil
}

func encryptor(args []string) (object.Encryptor, error) {
	var keyPath string
	if len(args) == 1 {
		keyPath = args[0]
	}
	return NewEncryptor(keyPath)
}

// NewEncryptor is an RSA envelope when keyPath names a PEM private key, a
// passphrase from $AVEIO_PASSPHRASE otherwise.
func NewEncryptor(keyPath string) (object.Encryptor, error) {
	if keyPath != "" {
		key, err := object.ParseRsaPrivateKeyFromPath(keyPath, os.Getenv(KeyPassphraseEnv))
		if err != nil {
			return nil, err
		}
		return object.NewAESEncryptor(object.NewRSAEncryptor(key)), nil
	}
	pass := os.Getenv(PassphraseEnv)
	if pass == "" {
		return nil, errors.Errorf("%s is not set", PassphraseEnv)
	}
	return object.NewPassphraseEncryptor(pass), nil
}

func init() {
	Register("base64", "base64[:std|url|raw|rawurl]", 0, 1, func(args []string) (chunk.Encoder, error) {
		enc, err := base64Encoding(args)
		if err != nil {
			return nil, err
		}
		return chunk.NewBase64Encoder(enc), nil
	})
	Register("unbase64", "unbase64[:std|url|raw|rawurl]", 0, 1, func(args []string) (chunk.Encoder, error) {
		enc, err := base64Encoding(args)
		if err != nil {
			return nil, err
		}
		return chunk.NewBase64Decoder(enc), nil
	})
	Register("hex", "hex", 0, 0, func([]string) (chunk.Encoder, error) {
		return chunk.NewHexEncoder(), nil
	})
	Register("unhex", "unhex", 0, 0, func([]string) (chunk.Encoder, error) {
		return chunk.NewHexDecoder(), nil
	})
	Register("charset", "charset:FROM:TO", 2, 2, func(args []string) (chunk.Encoder, error) {
		from, err := transcode.LookupCharset(args[0])
		if err != nil {
			return nil, err
		}
		to, err := transcode.LookupCharset(args[1])
		if err != nil {
			return nil, err
		}
		return chunk.NewCharsetEncoder(from, to), nil
	})
	Register("fixed", "fixed:N", 1, 1, func(args []string) (chunk.Encoder, error) {
		n, err := size(args[0])
		if err != nil {
			return nil, err
		}
		return chunk.NewFixedEncoder(n, chunk.Identity)
	})
	Register("round", "round:N", 1, 1, func(args []string) (chunk.Encoder, error) {
		n, err := size(args[0])
		if err != nil {
			return nil, err
		}
		return chunk.NewRoundEncoder(n, chunk.Identity)
	})
	for _, algr := range compress.Names() {
		algr := algr
		Register(algr, algr, 0, 0, func([]string) (chunk.Encoder, error) {
			return compress.NewStage(compress.NewCompressor(algr)), nil
		})
		Register("un"+algr, "un"+algr, 0, 0, func([]string) (chunk.Encoder, error) {
			return compress.NewUnframer(compress.NewCompressor(algr)), nil
		})
	}
	Register("encrypt", "encrypt[:RSA_KEY_PEM]", 0, 1, func(args []string) (chunk.Encoder, error) {
		enc, err := encryptor(args)
		if err != nil {
			return nil, err
		}
		return object.NewEncryptStage(enc), nil
	})
	Register("decrypt", "decrypt[:RSA_KEY_PEM]", 0, 1, func(args []string) (chunk.Encoder, error) {
		enc, err := encryptor(args)
		if err != nil {
			return nil, err
		}
		return object.NewDecryptStage(enc), nil
	})
}
