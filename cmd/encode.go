// cmd/encode.go

package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"AveIO/pkg/object"
	"AveIO/pkg/pipeline"
	"AveIO/pkg/stage"
	"AveIO/pkg/utils"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "profile",
			Aliases: []string{"p"},
			Usage:   "YAML profile with default options, ${VAR} and ${VAR:-default} are expanded",
		},
		&cli.StringSliceFlag{
			Name:    "stage",
			Aliases: []string{"s"},
			Usage:   "stage to apply, in order (see `aveio stages`); replaces the stages of the profile",
		},
		&cli.IntFlag{
			Name:  "block-size",
			Value: pipeline.DefaultReadBlockSize,
			Usage: "bytes requested from the input per block",
		},
		&cli.Int64Flag{
			Name:  "read-limit",
			Usage: "stop after reading this many bytes (0 means no limit)",
		},
		&cli.BoolFlag{
			Name:  "end-on-zero-read",
			Usage: "treat an empty read from the input as its end",
		},
		&cli.Int64Flag{
			Name:  "bwlimit",
			Usage: "bandwidth limit in bytes per second (0 means no limit)",
		},
		&cli.StringFlag{
			Name:  "storage",
			Usage: "object storage URL (a directory, file://DIR or redis://HOST:PORT/DB)",
		},
		&cli.StringFlag{
			Name:  "key",
			Usage: "object key in the storage",
		},
		&cli.BoolFlag{
			Name:  "encrypt",
			Usage: "encrypt objects in the storage with the passphrase in $" + stage.PassphraseEnv,
		},
		&cli.StringFlag{
			Name:  "encrypt-key",
			Usage: "encrypt objects in the storage with this RSA private key (PEM)",
		},
		&cli.Int64Flag{
			Name:  "cache-size",
			Usage: "bytes of storage objects cached in memory (0 disables the cache)",
		},
	}
}

// resolveProfile loads --profile, then applies the flags given explicitly.
func resolveProfile(c *cli.Context) (*stage.Profile, error) {
	p := &stage.Profile{}
	if path := c.String("profile"); path != "" {
		var err error
		if p, err = stage.LoadProfile(path); err != nil {
			return nil, err
		}
	}
	if c.IsSet("stage") {
		p.Stages = c.StringSlice("stage")
	}
	if c.IsSet("block-size") || p.BlockSize == 0 {
		p.BlockSize = c.Int("block-size")
	}
	if c.IsSet("read-limit") {
		p.ReadLimit = c.Int64("read-limit")
	}
	if c.IsSet("end-on-zero-read") {
		p.EndOnZeroRead = c.Bool("end-on-zero-read")
	}
	if c.IsSet("bwlimit") {
		p.BWLimit = c.Int64("bwlimit")
	}
	if c.IsSet("storage") {
		p.Storage = c.String("storage")
	}
	if c.IsSet("encrypt") {
		p.Encrypt = c.Bool("encrypt")
	}
	if c.IsSet("encrypt-key") {
		p.EncryptKey = c.String("encrypt-key")
	}
	if c.IsSet("cache-size") {
		p.CacheSize = c.Int64("cache-size")
	}
	if p.BlockSize < 0 || p.ReadLimit < 0 || p.BWLimit < 0 || p.CacheSize < 0 {
		return nil, errors.New("sizes and limits must not be negative")
	}
	return p, nil
}

// openStorage opens the profile's storage with its decorators. The bandwidth
// limit then applies to the storage instead of the local input.
func openStorage(c *cli.Context, p *stage.Profile) (object.ObjectStorage, string, error) {
	key := c.String("key")
	if key == "" {
		return nil, "", errors.Errorf("--key is required with storage %s", p.Storage)
	}
	store, err := p.OpenStorage()
	if err != nil {
		return nil, "", err
	}
	logger.Debugf("using storage %s", store)
	return store, key, nil
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt)
}

func logStats(d *pipeline.Driver) {
	st := d.Stats()
	logger.Infof("run %s: read %d bytes, wrote %d bytes in %d blocks (%s)",
		st.ID, st.Read, st.Written, st.Blocks, st.Elapsed)
}

func encodeFlags() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "push the input through a chain of stages",
		ArgsUsage: "[IN [OUT]]",
		Action:    encode,
		Flags:     pipelineFlags(),
		Description: `
Blocks are read from IN (stdin by default), passed through every stage in
order and written to OUT (stdout by default), or stored as one object when
--storage and --key are given.

Examples:
$ aveio encode -s zstd -s base64 big.log big.log.b64
$ aveio encode -s charset:gbk:utf-8 -s lz4 --storage redis://localhost:6379/1 --key notes notes.txt`,
	}
}

func encode(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() > 2 {
		return errors.New("at most IN and OUT are expected")
	}
	p, err := resolveProfile(c)
	if err != nil {
		return err
	}
	conf, err := p.PipelineConfig()
	if err != nil {
		return err
	}

	in, size, err := openInput(c, 0)
	if err != nil {
		return err
	}
	progress, bar := utils.NewByteProgressBar("encode:", size, c.Bool("quiet"))
	var src pipeline.BlockSource = pipeline.FromReader(&readCloser{&utils.ProgressReader{Reader: in, Bar: bar}, in})

	var out io.WriteCloser
	if p.Storage != "" {
		store, key, err := openStorage(c, p)
		if err != nil {
			_ = in.Close()
			return err
		}
		out = object.NewWriter(store, key)
	} else {
		if p.BWLimit > 0 {
			src = pipeline.NewLimitedSource(src, p.BWLimit)
		}
		if out, err = openOutput(c, 1); err != nil {
			_ = in.Close()
			return err
		}
	}

	d, err := pipeline.New(src, conf)
	if err != nil {
		_ = in.Close()
		_ = out.Close()
		return err
	}
	ctx, cancel := signalContext(c)
	defer cancel()
	_, err = d.Push(ctx, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	bar.SetTotal(-1, true)
	progress.Wait()
	if err != nil {
		return err
	}
	logStats(d)
	return nil
}

// readCloser pairs a wrapped reader with the Close of the original.
type readCloser struct {
	io.Reader
	io.Closer
}
