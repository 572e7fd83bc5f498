// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fakeJafar emulates jafar by copying the measurement fixture named
// after the tag into the probe output file. When there is no fixture,
// it does not write anything, like a crashed probe.
func fakeJafar() {
	fset := flag.NewFlagSet("fakejafar", flag.ExitOnError)
	mainCommand := fset.String("main-command", "", "")
	fset.String("main-user", "", "")
	tag := fset.String("tag", "", "")
	for _, name := range []string{"iptables-reset-ip", "iptables-reset-keyword",
		"iptables-reset-keyword-hex", "iptables-hijack-dns-to",
		"iptables-hijack-https-to", "dns-proxy-hijack"} {
		fset.Func(name, "", func(string) error { return nil })
	}
	fset.Parse(os.Args[1:])

	words := strings.Fields(*mainCommand)
	var outfile string
	for idx, word := range words {
		if word == "-no" && idx+1 < len(words) {
			outfile = words[idx+1]
		}
	}
	if outfile == "" {
		fmt.Fprintf(os.Stderr, "fakejafar: missing -no in %q\n", *mainCommand)
		os.Exit(2)
	}

	data, err := os.ReadFile(filepath.Join(os.Getenv("FAKEJAFAR_FIXTURES"), *tag+".json"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fakejafar: %s\n", err.Error())
		return
	}
	if err := os.WriteFile(outfile, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "fakejafar: %s\n", err.Error())
		os.Exit(1)
	}
}
