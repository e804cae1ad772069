package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"
	"golang.org/x/term"

	"github.com/kolkov/bindcell/internal/cell/report"
	"github.com/kolkov/bindcell/internal/cell/stackdepot"
)

var (
	bannerColor = color.New(color.FgRed, color.Bold)
	headerColor = color.New(color.FgYellow)
	mainColor   = color.New(color.FgGreen, color.Bold)
)

// applyColorFlag resolves --color into fatih/color's global switch.
func applyColorFlag(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return fmt.Errorf("invalid --color value %q (want auto, on or off)", mode)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// mainModulePath returns the module path declared in a go.mod file.
func mainModulePath(goModPath string) (string, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return "", err
	}
	f, err := modfile.ParseLax(goModPath, data, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", goModPath, err)
	}
	if f.Module == nil {
		return "", fmt.Errorf("%s: no module directive", goModPath)
	}
	return f.Module.Mod.Path, nil
}

// inModule reports whether a frame function belongs to module modPath.
// Function names are "path/to/pkg.Func" or "path/to/pkg.(*T).Method".
func inModule(modPath, function string) bool {
	if modPath == "" || !strings.HasPrefix(function, modPath) {
		return false
	}
	rest := function[len(modPath):]
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "/")
}

// reportStyle colors banners and headers and highlights frames of modPath.
func reportStyle(modPath string) report.Style {
	return report.Style{
		Banner: func(s string) string { return bannerColor.Sprint(s) },
		Header: func(s string) string { return headerColor.Sprint(s) },
		Frame: func(f stackdepot.Frame, text string) string {
			if inModule(modPath, f.Function) {
				return mainColor.Sprint(text)
			}
			return text
		},
	}
}
