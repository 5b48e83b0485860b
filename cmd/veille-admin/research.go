package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/target/veille-api/internal/domain/model"
	"github.com/target/veille-api/internal/util"
	"gopkg.in/yaml.v3"
)

const defaultSubjectFile = "subject.json"

// subjectDocument is the on-disk subject file shape shared with the engine payload.
type subjectDocument struct {
	Subject           string   `json:"Subject"           yaml:"Subject"`
	PreviousResponses []string `json:"PreviousResponses" yaml:"PreviousResponses"`
}

type researchOptions struct {
	File            string
	Subject         string
	Model           string
	Verbosity       string
	ReasoningEffort string
	JSON            bool
}

func parseResearchFlags(args []string) (researchOptions, error) {
	fs := flag.NewFlagSet("research", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts researchOptions
	fs.StringVar(&opts.File, "file", defaultSubjectFile, "Subject document (JSON, or YAML with a .yaml/.yml extension)")
	fs.StringVar(&opts.Subject, "subject", "", "Subject to research; overrides the subject file")
	fs.StringVar(&opts.Model, "model", "", "Engine model (defaults to OPENAI_MODEL)")
	fs.StringVar(&opts.Verbosity, "verbosity", "", "low, medium or high (defaults to OPENAI_VERBOSITY)")
	fs.StringVar(
		&opts.ReasoningEffort,
		"reasoning-effort",
		"",
		"minimal, low, medium or high (defaults to OPENAI_REASONING_EFFORT)",
	)
	fs.BoolVar(&opts.JSON, "json", false, "Print the submission result as JSON")

	if err := fs.Parse(args); err != nil {
		return researchOptions{}, err
	}
	if fs.NArg() > 0 {
		return researchOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// loadSubjectFile reads a subject document. The extension picks the decoder.
func loadSubjectFile(path string) (subjectDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return subjectDocument{}, fmt.Errorf("read subject file %q: %w", path, err)
	}

	var doc subjectDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	default:
		err = json.Unmarshal(raw, &doc)
	}
	if err != nil {
		return subjectDocument{}, fmt.Errorf("decode subject file %q: %w", path, err)
	}
	if strings.TrimSpace(doc.Subject) == "" {
		return subjectDocument{}, fmt.Errorf("subject file %q has no Subject", path)
	}
	return doc, nil
}

func buildResearchRequest(opts researchOptions) (model.ResearchRequest, error) {
	var doc subjectDocument
	if strings.TrimSpace(opts.Subject) != "" {
		doc.Subject = opts.Subject
	} else {
		loaded, err := loadSubjectFile(opts.File)
		if err != nil {
			return model.ResearchRequest{}, err
		}
		doc = loaded
	}

	req := model.ResearchRequest{
		Subject:           doc.Subject,
		PreviousResponses: doc.PreviousResponses,
		Model:             opts.Model,
	}
	if err := req.Verbosity.UnmarshalText([]byte(opts.Verbosity)); err != nil {
		return model.ResearchRequest{}, err
	}
	if err := req.ReasoningEffort.UnmarshalText([]byte(opts.ReasoningEffort)); err != nil {
		return model.ResearchRequest{}, err
	}
	return req, nil
}

func runResearch(ctx *commandContext, args []string) error {
	opts, err := parseResearchFlags(args)
	if err != nil {
		return err
	}
	req, err := buildResearchRequest(opts)
	if err != nil {
		return err
	}

	services, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeServices(ctx, services)

	if !opts.JSON {
		if err = writef(ctx.Out, "[INFO] Researching %q...\n", req.Subject); err != nil {
			return err
		}
	}

	started := time.Now()
	result, err := services.Research.Submit(ctx.Ctx, req)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	if opts.JSON {
		return printJSON(ctx.Out, result)
	}
	return printResearchResult(ctx.Out, result, time.Since(started))
}

func printResearchResult(w io.Writer, result *model.ResearchResult, elapsed time.Duration) error {
	if result == nil {
		return errors.New("no research result")
	}
	if err := writef(w, "[OK] Research %s %s in %s\n", result.ID, result.Status, util.FormatElapsed(elapsed)); err != nil {
		return err
	}
	if err := writef(w, "[OK] Text written to '%s'\n", result.TextPath); err != nil {
		return err
	}
	return writef(w, "[OK] Metadata written to '%s'\n", result.MetadataPath)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
