// cmd/status.go

package main

import (
	"encoding/json"
	"fmt"
	"runtime"

	"AveIO/pkg/stage"
	"AveIO/pkg/utils"
	"AveIO/pkg/version"

	"github.com/urfave/cli/v2"
)

type usage struct {
	Utime  float64 // seconds
	Stime  float64 // seconds
	MaxRSS int64
	Go     string
}

type sections struct {
	Version string
	Profile *stage.Profile
	Valid   bool
	Error   string `json:",omitempty"`
	Usage   usage
}

func printJson(v interface{}) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	fmt.Println(string(output))
}

func status(ctx *cli.Context) error {
	setLoggerLevel(ctx)
	p, err := resolveProfile(ctx)
	if err != nil {
		return err
	}
	s := &sections{Version: version.Version(), Profile: p, Valid: true}
	if _, err := p.PipelineConfig(); err != nil {
		s.Valid, s.Error = false, err.Error()
	}
	ru := utils.GetRusage()
	s.Usage = usage{ru.GetUtime(), ru.GetStime(), ru.MaxRSS(), runtime.Version()}
	printJson(s)
	return nil
}

func statusFlags() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "show the resolved configuration and resource usage",
		Action: status,
		Flags:  pipelineFlags(),
	}
}
