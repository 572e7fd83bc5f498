// SPDX-License-Identifier: GPL-3.0-or-later

package jafar

import (
	"strings"

	"github.com/rbmk-project/ooniqa/directive"
)

// Argv returns the jafar command line for running the given invocation
// such that the probe writes its measurement into outfile.
func (r *Runner) Argv(inv *Invocation, outfile string) []string {
	argv := []string{
		r.executable(),
		"-main-command", r.MainCommand(inv, outfile),
		"-main-user", r.mainUser(),
	}
	if inv.Tag != "" {
		argv = append(argv, "-tag", inv.Tag)
	}
	return append(argv, directive.Args(inv.Directives...)...)
}

// MainCommand returns the probe command line that jafar runs
// as the main user, which jafar itself splits into words.
func (r *Runner) MainCommand(inv *Invocation, outfile string) string {
	words := []string{r.Probe, "-no", outfile}
	if r.Home != "" {
		words = append(words, "--home", r.Home)
	}
	for _, input := range inv.Inputs {
		words = append(words, "-i", input)
	}
	words = append(words, inv.Experiment)
	for idx, word := range words {
		words[idx] = quote(word)
	}
	return strings.Join(words, " ")
}

// quote quotes a word for a POSIX shell, unless it is safe to
// leave it unquoted, using single quotes.
func quote(word string) string {
	if word == "" {
		return "''"
	}
	if strings.IndexFunc(word, isUnsafe) < 0 {
		return word
	}
	return "'" + strings.ReplaceAll(word, "'", `'\''`) + "'"
}

// isUnsafe returns whether r requires quoting.
func isUnsafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	default:
		return !strings.ContainsRune("@%+=:,./-_", r)
	}
}
