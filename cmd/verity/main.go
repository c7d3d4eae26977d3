package main

import (
	"errors"
	"fmt"
	"os"

	"blockverity/cmd/verity/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		// 校验失败的细节已经打印过了
		if errors.Is(err, commands.ErrVerificationFailed) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}
}
