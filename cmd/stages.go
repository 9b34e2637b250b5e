// cmd/stages.go

package main

import (
	"fmt"
	"strings"

	"AveIO/pkg/compress"
	"AveIO/pkg/object"
	"AveIO/pkg/stage"
	"AveIO/pkg/transcode"

	"github.com/urfave/cli/v2"
)

var exampleCharsets = []string{
	"utf-8", "utf-16le", "utf-16be", "gbk", "gb18030", "big5", "shift_jis",
	"euc-jp", "euc-kr", "iso-8859-1", "iso-8859-15", "windows-1251", "windows-1252", "koi8-r",
}

func stagesFlags() *cli.Command {
	return &cli.Command{
		Name:   "stages",
		Usage:  "list stages, charsets, compressors and storages",
		Action: stages,
	}
}

func stages(c *cli.Context) error {
	setLoggerLevel(c)
	fmt.Println("Stages:")
	for _, name := range stage.Names() {
		fmt.Printf("  %-12s %s\n", name, stage.Usage(name))
	}

	var names []string
	for _, name := range exampleCharsets {
		cs, err := transcode.LookupCharset(name)
		if err != nil {
			logger.Debugf("charset %s: %s", name, err)
			continue
		}
		names = append(names, cs.Name())
	}
	fmt.Printf("Charsets (any IANA name or alias works): %s\n", strings.Join(names, ", "))
	fmt.Printf("Compressors: %s\n", strings.Join(compress.Names(), ", "))
	fmt.Printf("Storages: %s\n", strings.Join(object.Schemes(), ", "))
	fmt.Printf("Passphrase of encrypt/decrypt: $%s, RSA key passphrase: $%s\n", stage.PassphraseEnv, stage.KeyPassphraseEnv)
	return nil
}
