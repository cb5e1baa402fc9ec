package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/looplj/acquiesce/chatmodel"
	"github.com/looplj/acquiesce/internal/config"
	"github.com/looplj/acquiesce/render"
	"github.com/looplj/acquiesce/ruletable"
)

func runRender(args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	repo := fs.String("repo", "", "Model repository directory (contains acquiesce.json, chat_template.jinja, config.json)")
	input := fs.String("input", "", "Chat-completion request JSON file; defaults to stdin")
	syntaxFlag := fs.String("syntax", "lark", "Grammar syntax to compile: lark or gbnf")
	fs.Parse(args)

	if *repo == "" && fs.NArg() > 0 {
		*repo = fs.Arg(0)
	}

	if *repo == "" {
		fmt.Println("Error: -repo is required")
		fs.Usage()
		os.Exit(1)
	}

	syntax, err := parseSyntax(*syntaxFlag)
	if err != nil {
		log.Fatalf("Invalid syntax: %v", err)
	}

	modelRepo, err := config.New(*repo).Load()
	if err != nil {
		log.Fatalf("Failed to load model repository: %v", err)
	}

	data, err := readInput(*input)
	if err != nil {
		log.Fatalf("Failed to read request: %v", err)
	}

	var req chatmodel.Request
	if err := json.Unmarshal(data, &req); err != nil {
		log.Fatalf("Failed to decode request: %v", err)
	}

	result, err := render.Render(chatmodel.PlainTranscriptTemplate{}, modelRepo.Envelope, req, syntax)
	if err != nil {
		log.Fatalf("Render failed: %v", err)
	}

	out := struct {
		Prompt  string  `json:"prompt"`
		Grammar *string `json:"grammar,omitempty"`
		Parser  bool    `json:"parser"`
	}{
		Prompt:  result.Prompt,
		Grammar: result.Grammar,
		Parser:  result.Parser != nil,
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}

	fmt.Println(string(encoded))
}

func parseSyntax(s string) (ruletable.Syntax, error) {
	switch s {
	case "lark":
		return ruletable.Lark, nil
	case "gbnf":
		return ruletable.GBNF, nil
	default:
		return 0, fmt.Errorf("unknown syntax %q (want lark or gbnf)", s)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" {
		return io.ReadAll(os.Stdin)
	}

	return os.ReadFile(path)
}
