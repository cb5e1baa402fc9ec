package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/looplj/acquiesce/internal/config"
	"github.com/looplj/acquiesce/parse"
)

func runParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	repo := fs.String("repo", "", "Model repository directory holding acquiesce.json")
	input := fs.String("input", "", "Model output file to feed through the parser; defaults to stdin")
	fs.Parse(args)

	if *repo == "" && fs.NArg() > 0 {
		*repo = fs.Arg(0)
	}

	if *repo == "" {
		fmt.Println("Error: -repo is required")
		fs.Usage()
		os.Exit(1)
	}

	modelRepo, err := config.New(*repo).Load()
	if err != nil {
		log.Fatalf("Failed to load model repository: %v", err)
	}

	in := os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatalf("Failed to open input: %v", err)
		}

		defer f.Close()

		in = f
	}

	p := parse.NewParser(modelRepo.Envelope)

	encoder := json.NewEncoder(os.Stdout)

	reader := bufio.NewReader(in)

	buf := make([]byte, 4096)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			for _, result := range p.Advance(string(buf[:n])) {
				emitResult(encoder, result)
			}
		}

		if err != nil {
			break
		}
	}

	for _, result := range p.Finish() {
		emitResult(encoder, result)
	}
}

func emitResult(encoder *json.Encoder, result parse.ParseResult) {
	if err := encoder.Encode(resultEvent(result)); err != nil {
		log.Fatalf("Failed to encode parse result: %v", err)
	}
}

func resultEvent(result parse.ParseResult) map[string]any {
	event := map[string]any{"kind": resultKindName(result.Kind)}

	switch result.Kind {
	case parse.ResultContent:
		event["content"] = result.Content
	case parse.ResultThinking:
		event["content"] = result.Content
	case parse.ResultToolCall:
		event["index"] = result.ToolCall.Index
		event["name"] = result.ToolCall.Name
		event["delta"] = result.ToolCall.Delta
	case parse.ResultRejected:
		event["buffered"] = result.Buffered
		event["expected"] = result.Expected
		event["repaired"] = result.Repaired
	}

	return event
}

func resultKindName(kind parse.ParseResultKind) string {
	switch kind {
	case parse.ResultContent:
		return "content"
	case parse.ResultThinking:
		return "thinking"
	case parse.ResultToolCall:
		return "tool_call"
	case parse.ResultRejected:
		return "rejected"
	case parse.ResultComplete:
		return "complete"
	default:
		return "unknown"
	}
}
