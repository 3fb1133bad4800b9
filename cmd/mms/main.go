package main

import (
	"os"

	"github.com/leonfuss/mms-sub000/internal/cli"
)

// version 构建时通过 -ldflags "-X main.version=..." 注入
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
