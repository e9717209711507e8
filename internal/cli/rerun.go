package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"repopolicy/internal/flags"
)

// rerunCommand renders the check invocation that reproduces this run's
// results. Output flags are left out; see flags.Reproducible.
func rerunCommand(cmd *cobra.Command) string {
	parts := []string{rootCmd.Name(), checkCmd.Name()}
	fs := cmd.Flags()
	for _, name := range flags.Reproducible {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		parts = append(parts, flagArgs(f)...)
	}
	return strings.Join(parts, " ")
}

func flagArgs(f *pflag.Flag) []string {
	name := "--" + f.Name
	if f.Value.Type() == "bool" {
		if f.Value.String() == "true" {
			return []string{name}
		}
		return []string{name + "=false"}
	}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		var out []string
		for _, v := range sv.GetSlice() {
			out = append(out, name, shellQuote(v))
		}
		return out
	}
	return []string{name, shellQuote(f.Value.String())}
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"\\$`*?[]{}()<>|&;#~!") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
