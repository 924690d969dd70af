package main

import (
	"flag"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: torrent-meta [-log-level level] <command> [flags] args

commands:
  info <file>                           describe a torrent
  infohash <file>                       print the info hash
  dump <file>                           print the decoded metadata as JSON
  verify [-max-files n] <file> <dir>    hash check the files under dir
  rewrite [-comment c] [-o out] <file>  re-encode a torrent, optionally editing its comment
`

type command func(args []string) error

var commands = map[string]command{
	"info":     runInfo,
	"infohash": runInfoHash,
	"dump":     runDump,
	"verify":   runVerify,
	"rewrite":  runRewrite,
}

func main() {
	flags := flag.NewFlagSet("torrent-meta", flag.ExitOnError)
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	level := flags.String("log-level", os.Getenv("TORRENT_META_LOG_LEVEL"), "log level (debug, info, warn, error)")
	flags.Parse(os.Args[1:])

	if *level != "" {
		lvl, err := log.ParseLevel(*level)
		if err != nil {
			log.Fatal(err)
		}
		log.SetLevel(lvl)
	}

	if flags.NArg() < 1 {
		flags.Usage()
		os.Exit(2)
	}
	run, ok := commands[flags.Arg(0)]
	if !ok {
		log.Errorf("unknown command %q", flags.Arg(0))
		flags.Usage()
		os.Exit(2)
	}
	if err := run(flags.Args()[1:]); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
