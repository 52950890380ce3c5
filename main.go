package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdcalculate "callcenter-stats/command/calculate"
	cmdimport "callcenter-stats/command/import"
	cmdweb "callcenter-stats/command/web"

	"github.com/joho/godotenv"
)

// Call-center analytics: imports the calls and tickets sheets, computes
// operator and company metrics, and serves the dashboard.
// Usage:
//   callcenter-stats import [-spreadsheet <id>] [-calls-range <A1>] [-tickets-range <A1>] [-file <csv>]
//   callcenter-stats calculate [-period last7Days] [-start DD/MM/YYYY -end DD/MM/YYYY]
//   callcenter-stats web [-addr :8080] [-data ./data] [-ui ./ui/dist]
// Notes:
// - Sheets credentials come from GOOGLE_APPLICATION_CREDENTIALS_JSON or SHEETS_ACCESS_TOKEN.
// - A .env file in the working directory is loaded when present.

const usage = `usage: callcenter-stats import [-spreadsheet <id>] [-calls-range <A1>] [-tickets-range <A1>] [-file <csv>] | calculate [-period <tag>] [-start <date> -end <date>] | web [-addr :8080] [-data ./data] [-ui ./ui/dist]
ENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)
     GOOGLE_APPLICATION_CREDENTIALS_JSON or SHEETS_ACCESS_TOKEN for import`

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	// .env is optional
	_ = godotenv.Load()

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		var run func([]string) error
		switch sub {
		case "import":
			run = cmdimport.Run
		case "calculate":
			run = cmdcalculate.Run
		case "web":
			run = cmdweb.Run
		}
		if run != nil {
			if err := run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, usage)
	os.Exit(2)
}
