package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/credauth/internal/credctl"
)

func main() {

	ctx := context.Background()

	if err := credctl.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, credctl.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

}
