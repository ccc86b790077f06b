// Command anglerclub は釣りクラブサイトのWebサーバー、ワーカー、マイグレーションを起動する。
//
// 使い方:
//
//	anglerclub [serve|worker|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/anglerclub/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "anglerclub: %v\n", err)
		os.Exit(1)
	}
}
