package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/target/veille-api/config"
	"github.com/target/veille-api/internal/bootstrap"
)

var errChecksFailed = errors.New("configuration checks failed")

type checkLevel int

const (
	checkPass checkLevel = iota
	checkWarn
	checkFail
)

func (l checkLevel) mark() string {
	switch l {
	case checkPass:
		return "✅"
	case checkWarn:
		return "⚠️ "
	default:
		return "❌"
	}
}

type checkResult struct {
	Name   string
	Level  checkLevel
	Detail string
}

type checkSection struct {
	Title  string
	Checks []checkResult
}

func passOrFail(name string, ok bool, detail string) checkResult {
	if ok {
		return checkResult{Name: name, Level: checkPass}
	}
	return checkResult{Name: name, Level: checkFail, Detail: detail}
}

func runCheckConfig(ctx *commandContext, args []string) error {
	fs := flag.NewFlagSet("check-config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	sections := []checkSection{
		checkEngine(&ctx.Config.Engine),
		checkStore(ctx.Config.Store),
		checkCache(ctx),
		checkNotifications(ctx.Config.Observability.Notifications),
	}
	return reportChecks(ctx.Out, sections)
}

func checkEngine(cfg *config.EngineConfig) checkSection {
	section := checkSection{Title: "Research engine"}

	section.Checks = append(section.Checks,
		passOrFail("OPENAI_API_KEY configured", cfg.CredentialConfigured(),
			"set OPENAI_API_KEY; submissions fail without it"))
	if cfg.CredentialConfigured() && !strings.HasPrefix(cfg.APIKey, "sk-") {
		section.Checks = append(section.Checks, checkResult{
			Name:   "OPENAI_API_KEY format",
			Level:  checkWarn,
			Detail: "key does not start with sk-",
		})
	}

	u, err := url.Parse(cfg.BaseURL)
	section.Checks = append(section.Checks,
		passOrFail("OPENAI_BASE_URL is absolute ("+cfg.BaseURL+")", err == nil && u.Scheme != "" && u.Host != "",
			"use a full http(s) URL"))

	defaults := cfg.Defaults()
	section.Checks = append(section.Checks,
		passOrFail("default model set ("+defaults.Model+")", strings.TrimSpace(defaults.Model) != "",
			"set OPENAI_MODEL"),
		passOrFail("default verbosity valid ("+string(defaults.Verbosity)+")", defaults.Verbosity.Valid(),
			"use low, medium or high"),
		passOrFail("default reasoning effort valid ("+string(defaults.ReasoningEffort)+")",
			defaults.ReasoningEffort.Valid(), "use minimal, low, medium or high"),
	)
	return section
}

func checkStore(cfg config.StoreConfig) checkSection {
	err := probeWritable(cfg.OutputDir)
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return checkSection{
		Title: "Artifact store",
		Checks: []checkResult{
			passOrFail("output directory writable ("+cfg.OutputDir+")", err == nil, detail),
		},
	}
}

// probeWritable creates dir if needed and round-trips a scratch file in it.
func probeWritable(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".check-config-*")
	if err != nil {
		return fmt.Errorf("create probe file: %w", err)
	}
	name := f.Name()
	if err = f.Close(); err != nil {
		return fmt.Errorf("close probe file: %w", err)
	}
	if err = os.Remove(filepath.Clean(name)); err != nil {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}

func checkCache(ctx *commandContext) checkSection {
	section := checkSection{Title: "Metadata cache"}
	if !ctx.Config.Cache.Enabled {
		section.Checks = append(section.Checks, checkResult{
			Name:  "cache disabled (CACHE_ENABLED=false)",
			Level: checkPass,
		})
		return section
	}

	client, err := bootstrap.ConnectRedis(ctx.Ctx, ctx.Config.Redis, nil)
	detail := ""
	if err != nil {
		detail = err.Error()
	} else if cerr := client.Close(); cerr != nil {
		ctx.Logger.Warn("close redis failed", "error", cerr)
	}
	section.Checks = append(section.Checks,
		passOrFail("redis reachable ("+ctx.Config.Redis.URI+")", err == nil, detail))
	return section
}

func checkNotifications(cfg config.ObservabilityNotificationsConfig) checkSection {
	section := checkSection{Title: "Failure notifications"}
	switch {
	case !cfg.Enabled:
		section.Checks = append(section.Checks, checkResult{Name: "notifications disabled", Level: checkPass})
	case !cfg.Slack.Enabled:
		section.Checks = append(section.Checks, checkResult{
			Name:   "no notification sink enabled",
			Level:  checkWarn,
			Detail: "set OBSERVABILITY_NOTIFICATIONS_SLACK_ENABLED and _WEBHOOK_URL",
		})
	default:
		section.Checks = append(section.Checks, checkResult{Name: "slack webhook configured", Level: checkPass})
	}
	return section
}

func reportChecks(w io.Writer, sections []checkSection) error {
	rule := strings.Repeat("=", 80)
	if err := writef(w, "%s\nveille configuration check\n%s\n\n", rule, rule); err != nil {
		return err
	}

	failed := false
	for _, section := range sections {
		if err := writef(w, "%s:\n", section.Title); err != nil {
			return err
		}
		for _, c := range section.Checks {
			if c.Level == checkFail {
				failed = true
			}
			if err := writef(w, "  %s %s\n", c.Level.mark(), c.Name); err != nil {
				return err
			}
			if c.Detail != "" && c.Level != checkPass {
				if err := writef(w, "     %s\n", c.Detail); err != nil {
					return err
				}
			}
		}
		if err := writeln(w); err != nil {
			return err
		}
	}

	if err := writeln(w, rule); err != nil {
		return err
	}
	if failed {
		if err := writeln(w, "❌ SOME CHECKS FAILED"); err != nil {
			return err
		}
		return errChecksFailed
	}
	return writeln(w, "✅ READY TO DEPLOY")
}
