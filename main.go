package main

import (
	"os"

	"github.com/mistweaverco/addonup/cmd/addonup"
	"github.com/mistweaverco/addonup/internal/lib/files"
	"github.com/mistweaverco/addonup/internal/lib/log"
)

func main() {
	w := log.NewFileWriter(files.GetLogFilePath())
	log.SetOutput(w)
	code := addonup.Execute()
	_ = w.Close()
	os.Exit(code)
}
