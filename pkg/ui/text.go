package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/nirvanamm/nirvanamm/pkg/errors"
	"github.com/nirvanamm/nirvanamm/pkg/ui/styles"
	"github.com/pterm/pterm"
)

// textRenderer writes human-readable output. When styled, the semantic
// styles from the styles package are applied.
type textRenderer struct {
	w      io.Writer
	styled bool
}

func (r *textRenderer) style(name, s string) string {
	if !r.styled || s == "" {
		return s
	}
	return styles.GetStyle(name).Render(s)
}

func (r *textRenderer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func (r *textRenderer) RenderMessage(msg string) error {
	r.printf("%s\n", msg)
	return nil
}

func (r *textRenderer) RenderError(err error) error {
	if r.styled {
		r.printf("%s %s\n", pterm.Error.Prefix.Text, pterm.Error.MessageStyle.Sprint(err.Error()))
		return nil
	}
	r.printf("Error: %s\n", err.Error())
	return nil
}

func (r *textRenderer) RenderResult(result interface{}) error {
	switch v := result.(type) {
	case ModList:
		r.modList(v)
	case VerdictView:
		r.verdict(v)
	case ChainView:
		r.chain(v)
	case ConfigView:
		r.config(v)
	case InspectView:
		r.inspect(v)
	case PrepareView:
		r.prepare(v)
	case VersionView:
		r.printf("nirvanamm version %s\n", v.Version)
		r.printf("  commit: %s\n", v.Commit)
		r.printf("  built:  %s\n", v.Date)
	case string:
		return r.RenderMessage(v)
	default:
		return errors.Newf(errors.ErrInternal, "cannot render %T as text", result)
	}
	return nil
}

func (r *textRenderer) modList(v ModList) {
	r.printf("%s\n", r.style("Header", "Mods in "+v.Dir))
	if len(v.Mods) == 0 {
		r.printf("%s\n", r.style("Muted", "No mods installed."))
	}
	for _, m := range v.Mods {
		marker := " "
		if m.Active {
			marker = r.style("Active", "*")
		}
		r.printf("%s %s %s %s\n", marker, r.style("GUID", m.GUID), r.style("Version", m.Version), m.Name)
		r.printf("    by %s, %s, %s\n", m.Author, r.style("FilePath", m.Archive), m.Size)
		if m.Depends != "" {
			r.printf("    depends: %s\n", r.style("Soft", m.Depends))
		}
		if !m.Patch {
			r.printf("    %s\n", r.style("Muted", "no patch"))
		}
	}
	for _, s := range v.Skipped {
		r.printf("%s %s: %s\n", r.style("Warning", "skipped"), r.style("FilePath", s.Archive), s.Error)
	}
}

func (r *textRenderer) verdict(v VerdictView) {
	if v.Valid {
		r.printf("%s\n", r.style("Success", v.Message))
		return
	}
	r.printf("%s %s\n", r.style("Error", "Invalid selection:"), v.Message)
	for _, f := range v.Files {
		r.printf("  %s\n", r.style("FilePath", f))
	}
}

func (r *textRenderer) chain(v ChainView) {
	if len(v.Mods) == 0 {
		r.printf("%s\n", r.style("Muted", "Nothing to apply."))
		return
	}
	r.printf("%s\n", r.style("Header", "Apply order"))
	for _, m := range v.Mods {
		r.printf("%3d. %s %s\n", m.Position, r.style("GUID", m.GUID), r.style("Version", m.Version))
	}
}

func (r *textRenderer) config(v ConfigView) {
	none := r.style("Muted", "(none)")
	list := func(items []string) string {
		if len(items) == 0 {
			return none
		}
		return strings.Join(items, ", ")
	}
	gameRoot := v.GameRoot
	if gameRoot == "" {
		gameRoot = "(unset)"
	}

	r.printf("%s\n", r.style("TableHeader", "Game"))
	r.printf("  root:     %s\n", r.style("FilePath", gameRoot))
	r.printf("  active:   %s\n", list(v.ActiveMods))
	r.printf("  replaced: %s\n", list(v.ReplacedFiles))
	r.printf("%s\n", r.style("TableHeader", "Manager"))
	r.printf("  data:     %s\n", r.style("FilePath", v.DataDir))
	r.printf("  mods:     %s\n", r.style("FilePath", v.ModsDir))
	origin := r.style("Muted", "not taken")
	if v.OriginExists {
		origin = r.style("FilePath", v.OriginPath)
	}
	r.printf("  origin:   %s\n", origin)
	r.printf("  codec:    %s\n", v.Codec)
}

func (r *textRenderer) inspect(v InspectView) {
	r.printf("%s\n", r.style("Header", "Patch of "+v.GUID))
	r.printf("  format version:        %d\n", v.Version)
	if v.SecondaryCompression {
		r.printf("  secondary compression: id %d\n", v.SecondaryID)
	} else {
		r.printf("  secondary compression: none\n")
	}
	if v.CodeTableLength > 0 {
		r.printf("  code table:            %d bytes\n", v.CodeTableLength)
	}
	r.printf("  application header:    %d bytes\n", v.DataLength)
	if v.Description != "" {
		r.printf("%s\n%s\n", r.style("TableHeader", "Description"), v.Description)
	}
}

func (r *textRenderer) prepare(v PrepareView) {
	r.printf("%s %s\n", r.style("Success", "Snapshot written to"), r.style("FilePath", v.OriginPath))
	r.printf("  %d files, %d directories, %s\n", v.Files, v.Dirs, v.Size)
}
