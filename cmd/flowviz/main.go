// Command flowviz renders a flow of a config document as a Mermaid diagram.
//
//	flowviz -config flows.yaml -flow review [-lr] [-highlight intake,checks]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/amp-labs/amp-flow/envutil"
	"github.com/amp-labs/amp-flow/logger"
	"github.com/amp-labs/amp-flow/visualizer"
)

func main() {
	// stdout carries the diagram
	ctx := envutil.WithEnvOverride(context.Background(), "LOG_OUTPUT", "stderr")

	log := logger.ConfigureLogging(ctx, "flowviz")

	var (
		path      = flag.String("config", "", "path to the YAML flow document")
		flowName  = flag.String("flow", "", "name of the flow to render")
		leftRight = flag.Bool("lr", false, "lay the diagram out left to right")
		highlight = flag.String("highlight", "", "comma-separated states to highlight")
		bare      = flag.Bool("bare", false, "omit the ```mermaid fence")
	)

	flag.Parse()

	if *path == "" || *flowName == "" {
		flag.Usage()
		os.Exit(2)
	}

	opts := visualizer.DefaultOptions().WithFenced(!*bare)

	if *leftRight {
		opts = opts.WithDirection("LR")
	}

	if *highlight != "" {
		opts = opts.WithHighlightPath(strings.Split(*highlight, ","))
	}

	out, err := visualizer.MermaidFromFile(*path, *flowName, opts)
	if err != nil {
		log.Error("Failed to render flow", "config", *path, "flow", *flowName, "error", err)
		os.Exit(1)
	}

	fmt.Print(out) //nolint:forbidigo
}
