// Diagnostic tool for inspecting FITS datacubes
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/robert-malhotra/go-fitscube/fits"
)

func main() {
	configPath := flag.String("config", "fitscube.yaml", "reader configuration file")
	load := flag.Bool("load", false, "read pixel data and print statistics")
	jobs := flag.Int("j", 4, "files inspected concurrently")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: go run cmd/diagnose/main.go [-config file] [-load] [-j n] <file.fits>...")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := fits.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
	opts, err := cfg.Options()
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	reports, err := inspectAll(flag.Args(), *load, *jobs, opts)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	for _, r := range reports {
		fmt.Print(r)
	}
}

// inspectAll renders every path with at most jobs files open at once.
// Reports keep the order of paths.
func inspectAll(paths []string, load bool, jobs int, opts []fits.Option) ([]string, error) {
	reports := make([]string, len(paths))

	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			reports[i] = inspect(path, load, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// inspect renders one file. Errors are part of the report so one bad
// file does not hide the others.
func inspect(path string, load bool, opts []fits.Option) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Analyzing %s ===\n\n", path)

	c, err := fits.Open(path, opts...)
	if err != nil {
		fmt.Fprintf(&b, "ERROR: Failed to open file: %v\n\n", err)
		return b.String()
	}
	defer c.Close()

	h := c.Header()
	if codec := c.Compression(); codec != "" {
		fmt.Fprintf(&b, "Container: %s\n", codec)
	}
	fmt.Fprintf(&b, "Role: %s  BITPIX: %d  Type: %s\n", h.Role, h.Bitpix, c.ScalarType())
	fmt.Fprintf(&b, "Object: %s  Telescope: %s  Date: %s\n", h.Object, h.Telescope, h.DateObs)
	fmt.Fprintf(&b, "Beam: %s x %s deg, pa %s (%s)\n", h.Beam.Major, h.Beam.Minor, h.Beam.PA, orNone(h.Beam.Source))
	fmt.Fprintf(&b, "Rest frequency: %s  SPECSYS: %s\n", h.RestFreq, orNone(h.SpecSys))

	fmt.Fprintf(&b, "Axes:\n")
	for i, a := range h.Axes {
		fmt.Fprintf(&b, "  %d: %-10s size %-5d crpix %-10g crval %-14g cdelt %-12g %s\n",
			i+1, a.CTYPE, a.Size, a.CRPIX, a.CRVAL, a.CDELT, a.CUNIT)
	}

	if sys := c.WCS(); sys != nil {
		fmt.Fprintf(&b, "WCS: projection %s\n", orNone(sys.Projection()))
		for i, a := range sys.Axes() {
			fmt.Fprintf(&b, "  %d: %-10s ref %-14g delta %-12g %s\n", i+1, a.Type, a.RefValue, a.Delta, a.Unit)
		}
	} else {
		fmt.Fprintf(&b, "WCS: none\n")
	}

	e := c.Extent()
	fmt.Fprintf(&b, "Extent: min %v max %v origin %v\n", e.Min, e.Max, e.Origin)
	fmt.Fprintf(&b, "Orientation:\n%v\n", mat.Formatted(c.Orientation(), mat.Prefix(""), mat.Squeeze()))

	if load {
		px, err := c.Load()
		if err != nil {
			fmt.Fprintf(&b, "ERROR: Failed to load pixels: %v\n", err)
		} else {
			fmt.Fprintf(&b, "Pixels: %d samples, %d blank, range [%g, %g]\n",
				px.Len(), px.Blank.GetCardinality(), px.Min, px.Max)
		}
	}

	if diags := c.Diagnostics(); len(diags) > 0 {
		fmt.Fprintf(&b, "Diagnostics:\n")
		for _, d := range diags {
			fmt.Fprintf(&b, "  %s\n", d)
		}
	}
	b.WriteString("\n")
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
