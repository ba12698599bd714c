// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"os"

	"github.com/ava-labs/seglog/cmd/seglog/cmd"
	"github.com/ava-labs/seglog/utils"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &cmd.Seglog{}
	if err := s.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		utils.Outf("{{red}}error: {{/}}%+v\n", err)
		os.Exit(1)
	}
}
