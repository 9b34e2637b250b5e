// cmd/transcode.go

package main

import (
	"io"

	"AveIO/pkg/transcode"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func transcodeFlags() *cli.Command {
	return &cli.Command{
		Name:      "transcode",
		Usage:     "convert text from one charset to another",
		ArgsUsage: "[IN [OUT]]",
		Action:    transcodeAction,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "from",
				Aliases: []string{"f"},
				Value:   "utf-8",
				Usage:   "charset of the input",
			},
			&cli.StringFlag{
				Name:    "to",
				Aliases: []string{"t"},
				Value:   "utf-8",
				Usage:   "charset of the output",
			},
			&cli.IntFlag{
				Name:  "buffer-size",
				Value: transcode.DefaultBufferSize,
				Usage: "window size in bytes of each adapter",
			},
		},
	}
}

func transcodeAction(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() > 2 {
		return errors.New("at most IN and OUT are expected")
	}
	from, err := transcode.LookupCharset(c.String("from"))
	if err != nil {
		return err
	}
	to, err := transcode.LookupCharset(c.String("to"))
	if err != nil {
		return err
	}
	conf := &transcode.Config{BufferSize: c.Int("buffer-size")}

	in, _, err := openInput(c, 0)
	if err != nil {
		return err
	}
	r, err := transcode.NewDecodingReader(in, from, conf)
	if err != nil {
		_ = in.Close()
		return err
	}
	defer r.Close()

	out, err := openOutput(c, 1)
	if err != nil {
		return err
	}
	w, err := transcode.NewEncodingWriter(out, to, conf)
	if err != nil {
		_ = out.Close()
		return err
	}

	n, err := io.Copy(w, r)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrapf(err, "%s -> %s after %d bytes", from, to, n)
	}
	logger.Debugf("transcoded %d bytes of text from %s to %s", n, from, to)
	return nil
}
