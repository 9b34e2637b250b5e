// cmd/decode.go

package main

import (
	"io"

	"AveIO/pkg/pipeline"
	"AveIO/pkg/utils"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func decodeFlags() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "pull the input through a chain of stages",
		ArgsUsage: "[IN [OUT]]",
		Action:    decode,
		Flags:     pipelineFlags(),
		Description: `
Same stages as encode, but the output is pulled block by block, so nothing
is produced until it is read. With --storage and --key the input is the
stored object instead of IN.

Examples:
$ aveio decode -s unbase64 -s unzstd big.log.b64 big.log
$ aveio decode -s unlz4 --storage redis://localhost:6379/1 --key notes`,
	}
}

func decode(c *cli.Context) error {
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

	var in io.ReadCloser
	outArg := 1
	if p.Storage != "" {
		store, key, err := openStorage(c, p)
		if err != nil {
			return err
		}
		if in, err = store.Get(key, 0, -1); err != nil {
			return errors.Wrapf(err, "get %s from %s", key, store)
		}
		outArg = 0
	} else if in, _, err = openInput(c, 0); err != nil {
		return err
	}

	var src pipeline.BlockSource = pipeline.FromReader(in)
	if p.Storage == "" && p.BWLimit > 0 {
		src = pipeline.NewLimitedSource(src, p.BWLimit)
	}
	d, err := pipeline.New(src, conf)
	if err != nil {
		_ = in.Close()
		return err
	}
	r := d.Pull()
	defer r.Close()

	out, err := openOutput(c, outArg)
	if err != nil {
		return err
	}
	progress, bar := utils.NewByteProgressBar("decode:", 0, c.Bool("quiet"))
	_, err = io.Copy(out, &utils.ProgressReader{Reader: r, Bar: bar})
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
