package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/common-fate/clio"
	"github.com/common-fate/clio/clierr"

	"github.com/common-fate/ssorefresh/pkg/ssorefresh"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// restore cursor in case spinner gets stuck
		// https://github.com/briandowns/spinner/issues/122
		if runtime.GOOS != "windows" {
			fmt.Fprint(os.Stdin, "\033[?25h")
		}
	}()

	app := ssorefresh.GetCliApp()

	err := app.RunContext(ctx, os.Args)
	if err != nil {
		// if the error is an instance of clierr.PrintCLIErrorer then print the error accordingly
		if cliError, ok := err.(clierr.PrintCLIErrorer); ok {
			cliError.PrintCLIError()
		} else {
			clio.Error(err.Error())
		}
		stop()
		os.Exit(1)
	}
}
