package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"metamorphosis/internal/catalog"
	"metamorphosis/internal/media"
	"metamorphosis/internal/startup"
	"metamorphosis/internal/transcoder"
)

func runTargets(args []string, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("targets", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	source := flags.StringP("source", "s", "", "only list targets for this source extension")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if *source == "" {
		fmt.Fprintf(stdout, "Sources: %s\n", strings.Join(catalog.SourceExtensions(), " "))
		fmt.Fprintf(stdout, "Targets: %s\n", strings.Join(catalog.ListAllTargets(), " "))
		return exitOK
	}

	ext := catalog.NormalizeExt(*source)
	category := catalog.CategoryOf(ext)
	if category == catalog.CategoryUnknown {
		fmt.Fprintf(stderr, "Error: unsupported source format: %s\n", ext)
		return exitFailed
	}

	fmt.Fprintf(stdout, "Targets for %s (%s):\n", ext, category)
	for _, t := range catalog.TargetsFor(ext) {
		fmt.Fprintf(stdout, "  %s\n", t)
	}
	return exitOK
}

func runCheck(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := newFlagSet("check", stderr)
	cfg, code := loadConfig(flags, args, stderr)
	if cfg == nil {
		return code
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(stderr, "Error: check needs at least one path")
		return exitUsage
	}

	trans := transcoder.New(cfg.FFmpeg, cfg.FFprobe)
	code = exitOK
	for _, path := range flags.Args() {
		if err := checkFile(ctx, stdout, trans, path); err != nil {
			fmt.Fprintf(stdout, "%s: %v\n", path, err)
			code = exitFailed
		}
	}
	return code
}

// checkFile prints what is known about path and where it can go.
func checkFile(ctx context.Context, w io.Writer, trans *transcoder.Transcoder, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return errors.New("file not found")
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}

	ext := catalog.Ext(path)
	category := catalog.CategoryOf(ext)
	if category == catalog.CategoryUnknown {
		return fmt.Errorf("unsupported source format: %s", ext)
	}

	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  format:   %s (%s, %s)\n", ext, category, catalog.MimeType(ext))
	fmt.Fprintf(w, "  size:     %d bytes\n", info.Size())

	switch category {
	case catalog.CategoryImage:
		if dims, err := media.GetImageDimensions(path); err == nil {
			fmt.Fprintf(w, "  image:    %dx%d %s\n", dims.Width, dims.Height, dims.Format)
		} else {
			fmt.Fprintf(w, "  image:    unreadable (%v)\n", err)
		}
	case catalog.CategoryVideo, catalog.CategoryAudio:
		if trans.ProbeAvailable() {
			if mi, err := trans.Probe(ctx, path); err == nil {
				fmt.Fprintf(w, "  media:    %s, %.1fs", mi.Format, mi.Duration)
				if mi.HasVideo() {
					fmt.Fprintf(w, ", video %s %dx%d", mi.VideoCodec, mi.Width, mi.Height)
				}
				if mi.HasAudio() {
					fmt.Fprintf(w, ", audio %s", mi.AudioCodec)
				}
				fmt.Fprintln(w)
			} else {
				fmt.Fprintf(w, "  media:    unreadable (%v)\n", err)
			}
		}
	}

	fmt.Fprintf(w, "  targets:  %s\n", strings.Join(catalog.TargetsFor(ext), ", "))
	return nil
}

func runVersion(stdout io.Writer) int {
	info := startup.GetBuildInfo()
	fmt.Fprintf(stdout, "metamorphosis %s\n", info.Version)
	fmt.Fprintf(stdout, "  commit:     %s\n", info.Commit)
	fmt.Fprintf(stdout, "  built:      %s\n", info.BuildTime)
	fmt.Fprintf(stdout, "  go:         %s\n", info.GoVersion)
	fmt.Fprintf(stdout, "  platform:   %s/%s\n", info.OS, info.Arch)
	return exitOK
}
