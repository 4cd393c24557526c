package ui

import (
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/nirvanamm/nirvanamm/pkg/catalog"
	"github.com/nirvanamm/nirvanamm/pkg/config"
	"github.com/nirvanamm/nirvanamm/pkg/delta"
	"github.com/nirvanamm/nirvanamm/pkg/modfile"
	"github.com/nirvanamm/nirvanamm/pkg/origin"
	"github.com/nirvanamm/nirvanamm/pkg/paths"
	"github.com/nirvanamm/nirvanamm/pkg/types"
	"github.com/nirvanamm/nirvanamm/pkg/validate"
)

// ModRow is one installed mod.
type ModRow struct {
	GUID    string `json:"guid"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Author  string `json:"author"`
	Depends string `json:"depends,omitempty"`
	Active  bool   `json:"active"`
	Patch   bool   `json:"patch"`
	Archive string `json:"archive"`
	Bytes   int64  `json:"bytes"`
	Size    string `json:"size"`
}

// SkippedArchive is an archive the scan could not load.
type SkippedArchive struct {
	Archive string `json:"archive"`
	Error   string `json:"error"`
}

// ModList is the result of the list command.
type ModList struct {
	Dir     string           `json:"dir"`
	Mods    []ModRow         `json:"mods"`
	Skipped []SkippedArchive `json:"skipped,omitempty"`
}

// NewModList describes the scanned mods. Archive sizes come from fs; an
// archive that vanished since the scan reports zero bytes.
func NewModList(fs types.FS, dir string, mods []*modfile.ModFile, failures []catalog.Failure, active func(string) bool) ModList {
	list := ModList{Dir: dir, Mods: make([]ModRow, 0, len(mods))}
	for _, mod := range mods {
		row := ModRow{
			GUID:    mod.Metadata.GUID,
			Name:    mod.Metadata.Name,
			Version: mod.Metadata.Version,
			Author:  mod.Metadata.Author,
			Depends: mod.Metadata.DependsString(),
			Active:  active(mod.Metadata.GUID),
			Patch:   mod.HasPatch(),
			Archive: filepath.Base(mod.Path),
		}
		if info, err := fs.Stat(mod.Path); err == nil {
			row.Bytes = info.Size()
		}
		row.Size = units.HumanSize(float64(row.Bytes))
		list.Mods = append(list.Mods, row)
	}
	for _, f := range failures {
		list.Skipped = append(list.Skipped, SkippedArchive{Archive: filepath.Base(f.Path), Error: f.Err.Error()})
	}
	return list
}

// VerdictView is the outcome of validating a selection.
type VerdictView struct {
	Valid           bool     `json:"valid"`
	Kind            string   `json:"kind"`
	Message         string   `json:"message"`
	GUID            string   `json:"guid,omitempty"`
	Missing         []string `json:"missing,omitempty"`
	Blamed          []string `json:"blamed,omitempty"`
	ConflictingMods []string `json:"conflicting_mods,omitempty"`
	Files           []string `json:"files,omitempty"`
	Cycle           []string `json:"cycle,omitempty"`
}

func NewVerdictView(v validate.Verdict) VerdictView {
	return VerdictView{
		Valid:           v.OK(),
		Kind:            v.Kind.String(),
		Message:         v.Message(),
		GUID:            v.GUID,
		Missing:         v.Missing,
		Blamed:          v.Blamed,
		ConflictingMods: v.ConflictingMods,
		Files:           v.Files,
		Cycle:           v.Cycle,
	}
}

// ChainRow is one step of an apply chain.
type ChainRow struct {
	Position int    `json:"position"`
	GUID     string `json:"guid"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// ChainView is the order in which mods would be applied.
type ChainView struct {
	Mods []ChainRow `json:"mods"`
}

func NewChainView(chain []*modfile.ModFile) ChainView {
	view := ChainView{Mods: make([]ChainRow, 0, len(chain))}
	for i, mod := range chain {
		view.Mods = append(view.Mods, ChainRow{
			Position: i + 1,
			GUID:     mod.Metadata.GUID,
			Name:     mod.Metadata.Name,
			Version:  mod.Metadata.Version,
		})
	}
	return view
}

// ConfigView is the persisted state together with the directories in use.
type ConfigView struct {
	GameRoot      string   `json:"game_root"`
	ActiveMods    []string `json:"active_mods"`
	ReplacedFiles []string `json:"replaced_files"`
	DataDir       string   `json:"data_dir"`
	ModsDir       string   `json:"mods_dir"`
	OriginPath    string   `json:"origin_path"`
	OriginExists  bool     `json:"origin_exists"`
	Codec         string   `json:"codec"`
}

func NewConfigView(cfg *config.AppConfig, p paths.Paths, originExists bool, codec string) ConfigView {
	return ConfigView{
		GameRoot:      cfg.DataWin.GameRoot,
		ActiveMods:    cfg.DataWin.ActiveMods,
		ReplacedFiles: cfg.DataWin.ReplacedFiles,
		DataDir:       p.DataDir(),
		ModsDir:       p.ModsDir(),
		OriginPath:    p.OriginPath(),
		OriginExists:  originExists,
		Codec:         codec,
	}
}

// InspectView describes a mod's patch header.
type InspectView struct {
	GUID                 string `json:"guid"`
	Version              int    `json:"version"`
	SecondaryCompression bool   `json:"secondary_compression"`
	SecondaryID          int    `json:"secondary_id,omitempty"`
	CodeTableLength      int    `json:"code_table_length,omitempty"`
	DataLength           int    `json:"data_length"`
	Description          string `json:"description,omitempty"`
}

func NewInspectView(guid string, h *delta.PatchHeader) InspectView {
	return InspectView{
		GUID:                 guid,
		Version:              int(h.Version),
		SecondaryCompression: h.SecondaryCompression,
		SecondaryID:          int(h.SecondaryID),
		CodeTableLength:      h.CodeTableLength,
		DataLength:           h.DataLength,
		Description:          h.Description,
	}
}

// PrepareView summarizes a freshly taken origin snapshot.
type PrepareView struct {
	OriginPath string `json:"origin_path"`
	Files      int    `json:"files"`
	Dirs       int    `json:"dirs"`
	Bytes      int64  `json:"bytes"`
	Size       string `json:"size"`
}

func NewPrepareView(path string, stats origin.Stats) PrepareView {
	return PrepareView{
		OriginPath: path,
		Files:      stats.Files,
		Dirs:       stats.Dirs,
		Bytes:      stats.Bytes,
		Size:       units.HumanSize(float64(stats.Bytes)),
	}
}

// VersionView is build information.
type VersionView struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}
