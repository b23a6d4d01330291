/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/HamedShams/jira-work-hours/internal/credentials"
)

func main() {
	a := &app{out: os.Stdout, errOut: os.Stderr, in: os.Stdin, store: credentials.NewStore(), now: time.Now}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
