// Command shoprec 是商品推荐服务的命令行入口。
//
//	shoprec serve --config shoprec.yaml
//	shoprec recommend --seed products.yaml --product 42
package main

import (
	"fmt"
	"os"
)

// 构建时通过 ldflags 注入。
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
