package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"

	"github.com/torrent-meta/torrent"
)

func open(path string) (*torrent.Torrent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := torrent.New(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func parse(flags *flag.FlagSet, args []string, nargs int) error {
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != nargs {
		return fmt.Errorf("%s: expected %d argument(s), got %d", flags.Name(), nargs, flags.NArg())
	}
	return nil
}

func runInfoHash(args []string) error {
	flags := flag.NewFlagSet("infohash", flag.ExitOnError)
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	t, err := open(flags.Arg(0))
	if err != nil {
		return err
	}
	hash, err := t.InfoHash()
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func runInfo(args []string) error {
	flags := flag.NewFlagSet("info", flag.ExitOnError)
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	t, err := open(flags.Arg(0))
	if err != nil {
		return err
	}
	header, err := t.Header()
	if err != nil {
		return err
	}
	files, err := t.Files()
	if err != nil {
		return err
	}
	total, err := t.TotalLength()
	if err != nil {
		return err
	}
	pieceLength, err := t.PieceLength()
	if err != nil {
		return err
	}
	count, err := t.PieceCount()
	if err != nil {
		return err
	}

	fmt.Printf("Name:         %s\n", t.Name())
	fmt.Printf("Info hash:    %s\n", t.OriginalInfoHash)
	fmt.Printf("Encoding:     %s\n", t.Codec())
	if header.Comment != "" {
		fmt.Printf("Comment:      %s\n", header.Comment)
	}
	if header.CreatedBy != "" {
		fmt.Printf("Created by:   %s\n", header.CreatedBy)
	}
	if header.CreationDate > 0 {
		fmt.Printf("Created:      %s\n", time.Unix(header.CreationDate, 0).UTC().Format(time.RFC3339))
	}
	fmt.Printf("Pieces:       %d x %d bytes\n", count, pieceLength)
	fmt.Printf("Total size:   %d bytes\n", total)
	for _, tr := range t.Trackers() {
		fmt.Printf("Tracker:      %s\n", tr)
	}
	for _, f := range files {
		fmt.Printf("File:         %s (%d bytes)\n", strings.Join(f.Path, "/"), f.Length)
	}
	return nil
}

func runDump(args []string) error {
	flags := flag.NewFlagSet("dump", flag.ExitOnError)
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	t, err := open(flags.Arg(0))
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(t.Metadata, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

var errIncomplete = errors.New("torrent is incomplete")

func runVerify(args []string) error {
	flags := flag.NewFlagSet("verify", flag.ExitOnError)
	maxFiles := flags.Int("max-files", 0, "maximum number of files open at once")
	if err := parse(flags, args, 2); err != nil {
		return err
	}
	t, err := open(flags.Arg(0))
	if err != nil {
		return err
	}
	count, err := t.PieceCount()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	check, err := t.HashCheck(ctx, filepath.Clean(flags.Arg(1)), torrent.CheckOptions{MaxFiles: *maxFiles})
	if err != nil {
		return err
	}
	log.WithField("check", check.ID).Infof("verifying %s", t.Name())

	bar := progressbar.NewOptions(count,
		progressbar.OptionSetDescription("verifying"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	verified := torrent.NewBitfield(count)
	var last float64
	for ev := range check.Events() {
		bar.Add(1)
		switch ev.Kind {
		case torrent.EventMatch:
			verified.SetPiece(ev.Index)
			last = ev.Percent
		case torrent.EventMatchError:
			log.WithFields(log.Fields{
				"piece":    ev.Index,
				"file":     ev.File,
				"position": ev.Position,
				"length":   ev.Length,
			}).Debug("piece mismatch")
		}
	}
	bar.Finish()
	if err := check.Wait(); err != nil {
		return err
	}

	fmt.Printf("%.2f%% verified (%d/%d pieces)\n", last, verified.Count(), count)
	if missing := verified.Missing(count); len(missing) > 0 {
		fmt.Printf("missing pieces: %s\n", formatRanges(missing))
		return errIncomplete
	}
	return nil
}

// formatRanges collapses sorted indexes into "0-3,7,9-10".
func formatRanges(indexes []int) string {
	var parts []string
	for i := 0; i < len(indexes); {
		j := i
		for j+1 < len(indexes) && indexes[j+1] == indexes[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, fmt.Sprint(indexes[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", indexes[i], indexes[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

func runRewrite(args []string) error {
	flags := flag.NewFlagSet("rewrite", flag.ExitOnError)
	comment := flags.String("comment", "", "replace the top-level comment")
	output := flags.String("o", "", "output file (default stdout)")
	if err := parse(flags, args, 1); err != nil {
		return err
	}
	t, err := open(flags.Arg(0))
	if err != nil {
		return err
	}
	if *comment != "" {
		t.Metadata.Set("comment", torrent.NewText(*comment))
	}

	if *output == "" {
		_, err = t.WriteTo(os.Stdout)
		return err
	}
	if err := t.WriteFile(*output); err != nil {
		return err
	}
	hash, err := t.InfoHash()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": *output, "infohash": hash}).Info("torrent written")
	return nil
}
