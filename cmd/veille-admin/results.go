package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/target/veille-api/internal/domain/model"
	"github.com/target/veille-api/internal/service"
	"github.com/target/veille-api/internal/util"
)

const listSubjectWidth = 60

type listOptions struct {
	JSON bool
}

func parseListFlags(args []string) (listOptions, error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listOptions
	fs.BoolVar(&opts.JSON, "json", false, "Print the listing as JSON")
	if err := fs.Parse(args); err != nil {
		return listOptions{}, err
	}
	return opts, nil
}

func runList(ctx *commandContext, args []string) error {
	opts, err := parseListFlags(args)
	if err != nil {
		return err
	}

	services, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeServices(ctx, services)

	list, err := services.Research.List(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("list research: %w", err)
	}
	if opts.JSON {
		return printJSON(ctx.Out, list)
	}
	return printResearchList(ctx.Out, list)
}

func printResearchList(out io.Writer, list *model.ResearchList) error {
	if list == nil || list.Total == 0 {
		return writeln(out, "No research jobs found.")
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if err := writeln(w, "ID\tCreated\tModel\tSubject"); err != nil {
		return fmt.Errorf("write list header: %w", err)
	}
	for _, r := range list.Researches {
		if err := writef(w, "%s\t%s\t%s\t%s\n",
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Model,
			util.Ellipsize(r.Subject, listSubjectWidth),
		); err != nil {
			return fmt.Errorf("write list row %q: %w", r.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush list: %w", err)
	}
	return writef(out, "\nTotal: %d\n", list.Total)
}

type showOptions struct {
	ID     string
	Format string
	Query  string
}

func parseShowFlags(name string, args []string, requireID bool) (showOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts showOptions
	if requireID {
		fs.StringVar(&opts.ID, "id", "", "Research job id (may also be given as the first argument)")
	}
	fs.StringVar(&opts.Format, "format", string(model.OutputFormatJSON), "Output format: json or text")
	fs.StringVar(&opts.Query, "query", "", "JMESPath expression evaluated against the JSON document")
	if err := fs.Parse(args); err != nil {
		return showOptions{}, err
	}

	if requireID {
		if opts.ID == "" && fs.NArg() > 0 {
			opts.ID = fs.Arg(0)
		}
		if strings.TrimSpace(opts.ID) == "" {
			return showOptions{}, errors.New("--id is required")
		}
	}
	if opts.Query != "" && !strings.EqualFold(opts.Format, string(model.OutputFormatJSON)) {
		return showOptions{}, errors.New("--query only applies to --format json")
	}
	return opts, nil
}

func runShow(ctx *commandContext, args []string) error {
	opts, err := parseShowFlags("show", args, true)
	if err != nil {
		return err
	}

	services, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeServices(ctx, services)

	return showResearch(ctx, services.Research, opts)
}

func runLatest(ctx *commandContext, args []string) error {
	opts, err := parseShowFlags("latest", args, false)
	if err != nil {
		return err
	}

	services, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeServices(ctx, services)

	doc, err := services.Research.Latest(ctx.Ctx)
	if err != nil {
		return fmt.Errorf("latest research: %w", err)
	}

	opts.ID = doc.ID
	return showResearch(ctx, services.Research, opts)
}

func showResearch(ctx *commandContext, research *service.ResearchService, opts showOptions) error {
	format, err := model.ParseOutputFormat(opts.Format)
	if err != nil {
		return err
	}

	if opts.Query != "" {
		projected, qerr := research.Query(ctx.Ctx, opts.ID, opts.Query)
		if qerr != nil {
			return fmt.Errorf("query research %s: %w", opts.ID, qerr)
		}
		return printJSON(ctx.Out, projected)
	}

	output, err := research.Get(ctx.Ctx, opts.ID, format)
	if err != nil {
		return fmt.Errorf("get research %s: %w", opts.ID, err)
	}
	if output.Format == model.OutputFormatText {
		return writef(ctx.Out, "%s\n", output.Text)
	}
	return printJSON(ctx.Out, output.Document)
}

type deleteOptions struct {
	ID     string
	DryRun bool
}

func parseDeleteFlags(args []string) (deleteOptions, error) {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts deleteOptions
	fs.StringVar(&opts.ID, "id", "", "Research job id (may also be given as the first argument)")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print actions without executing")
	if err := fs.Parse(args); err != nil {
		return deleteOptions{}, err
	}
	if opts.ID == "" && fs.NArg() > 0 {
		opts.ID = fs.Arg(0)
	}
	if strings.TrimSpace(opts.ID) == "" {
		return deleteOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

func runDelete(ctx *commandContext, args []string) error {
	opts, err := parseDeleteFlags(args)
	if err != nil {
		return err
	}

	services, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeServices(ctx, services)

	if opts.DryRun {
		loc, lerr := services.Store.Locate(opts.ID)
		if lerr != nil {
			return lerr
		}
		return writef(ctx.Out, "[DRY RUN] would delete %s and %s\n", loc.TextPath, loc.MetadataPath)
	}

	if err = services.Research.Remove(ctx.Ctx, opts.ID); err != nil {
		return fmt.Errorf("delete research %s: %w", opts.ID, err)
	}
	return writef(ctx.Out, "Research %s deleted successfully\n", opts.ID)
}
