// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package main

import (
	"cmp"
	"fmt"
	"image/color"
	"log"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/perf/benchfmt"
	"golang.org/x/perf/benchmath"
	"golang.org/x/perf/benchproc"
	"golang.org/x/perf/benchunit"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type seriesPoints struct {
	plotter.YErrorBars
	Labels []string
}

func (sp seriesPoints) Label(i int) string {
	return sp.Labels[i]
}

var _ plotter.Labeller = &seriesPoints{}

type chart struct {
	Title           string
	YAxisLabel      string
	XAxisLabel      string
	XTickLabels     []string
	XTickPositions  []float64
	SeriesLabels    []string
	SeriesPoints    []seriesPoints
	YAxisGrowFactor float64
	FileBasename    string
}

func setupPlot(c *chart) *plot.Plot {
	p := plot.New()

	p.Title.Text = c.Title
	p.X.Label.Text = c.XAxisLabel
	p.Y.Label.Text = c.YAxisLabel

	p.Title.TextStyle.Color = color.Gray{128}
	p.X.Color = color.Gray{128}
	p.Y.Color = color.Gray{128}
	p.X.Label.TextStyle.Color = color.Gray{128}
	p.Y.Label.TextStyle.Color = color.Gray{128}
	p.X.Tick.Color = color.Gray{128}
	p.Y.Tick.Color = color.Gray{128}
	p.X.Tick.Label.Color = color.Gray{128}
	p.Y.Tick.Label.Color = color.Gray{128}
	p.Legend.TextStyle.Color = color.Gray{128}

	p.X.Scale = plot.LogScale{}

	xTicks := make([]plot.Tick, len(c.XTickLabels))
	for i := range c.XTickLabels {
		t := &xTicks[i]
		t.Label = c.XTickLabels[i]
		t.Value = c.XTickPositions[i]
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.Padding = 1 * vg.Millimeter
	p.BackgroundColor = color.Transparent

	return p
}

func plotBars(c *chart) error {
	p := setupPlot(c)

	palette, err := brewer.GetPalette(brewer.TypeQualitative, "Paired", max(3, len(c.SeriesLabels)))
	if err != nil {
		return err
	}
	colors := palette.Colors()

	barSpacing := vg.Points(3)
	barWidth := vg.Points(24)

	// Calculate the total width of the bar group, center to center.
	groupWidth := (barWidth + barSpacing) * vg.Length(len(c.SeriesPoints)-1)

	for i, label := range c.SeriesLabels {
		points := c.SeriesPoints[i]
		bc, err := newBarChart(points, barWidth)
		if err != nil {
			return err
		}
		bc.Offset = (barWidth+barSpacing)*vg.Length(i) - groupWidth/2
		bc.Color = colors[i]
		bc.LineStyle.Width = 0
		bc.ErrorStyle.Color = color.Gray{128}
		bc.ErrorStyle.Width = 0.2 * vg.Millimeter
		bc.LabelStyle = p.Y.Label.TextStyle
		bc.LabelStyle.Font.Size *= 0.7
		bc.LabelOffsets = make([]vg.Point, points.Len())
		for j := range bc.LabelOffsets {
			bc.LabelOffsets[j].Y = vg.Points(10)
		}

		p.Add(bc)
		p.Legend.Add(label, bc)
	}

	return savePlot(c, p)
}

func savePlot(c *chart, p *plot.Plot) error {
	p.Y.Max *= c.YAxisGrowFactor

	// Create directory if it doesn't exist
	if err := os.MkdirAll("charts", 0755); err != nil {
		return err
	}

	// Save the plot
	if err := p.Save(9*vg.Inch, 6*vg.Inch, "charts/"+c.FileBasename+".svg"); err != nil {
		return err
	}

	return nil
}

type StructureKey struct{ benchproc.Key }
type ImplKey struct{ benchproc.Key }
type GoroutinesKey struct{ benchproc.Key }

type Data struct {
	Sample     benchmath.Sample
	Summary    benchmath.Summary
	Reference  *Data
	Comparison benchmath.Comparison
}

// referenceImpl is the implementation every other one is compared against.
const referenceImpl = "mutex"

func main() {
	var pp benchproc.ProjectionParser
	structureP, err := pp.Parse("/structure", nil)
	if err != nil {
		log.Fatal(err)
	}
	implP, err := pp.Parse("/impl", nil)
	if err != nil {
		log.Fatal(err)
	}
	goroutinesP, err := pp.Parse("/goroutines", nil)
	if err != nil {
		log.Fatal(err)
	}
	residueP := pp.Residue()

	dataByStructureImplGoroutinesUnit := make(map[StructureKey]map[ImplKey]map[GoroutinesKey]map[string]*Data)
	implKeySet := make(map[ImplKey]struct{})
	goroutinesKeySet := make(map[GoroutinesKey]struct{})
	var residues []benchproc.Key
	project := func(res *benchfmt.Result) {
		structureKey := StructureKey{structureP.Project(res)}
		dataByImplGoroutinesUnit, ok := dataByStructureImplGoroutinesUnit[structureKey]
		if !ok {
			dataByImplGoroutinesUnit = make(map[ImplKey]map[GoroutinesKey]map[string]*Data)
			dataByStructureImplGoroutinesUnit[structureKey] = dataByImplGoroutinesUnit
		}

		implKey := ImplKey{implP.Project(res)}
		dataByGoroutinesUnit, ok := dataByImplGoroutinesUnit[implKey]
		if !ok {
			dataByGoroutinesUnit = make(map[GoroutinesKey]map[string]*Data)
			dataByImplGoroutinesUnit[implKey] = dataByGoroutinesUnit
			implKeySet[implKey] = struct{}{}
		}

		goroutinesKey := GoroutinesKey{goroutinesP.Project(res)}
		dataByUnit, ok := dataByGoroutinesUnit[goroutinesKey]
		if !ok {
			dataByUnit = make(map[string]*Data)
			dataByGoroutinesUnit[goroutinesKey] = dataByUnit
			goroutinesKeySet[goroutinesKey] = struct{}{}
		}

		for _, v := range res.Values {
			data := dataByUnit[v.Unit]
			if data == nil {
				data = &Data{}
				dataByUnit[v.Unit] = data
			}
			data.Sample.Values = append(data.Sample.Values, v.Value)
		}

		residues = append(residues, residueP.Project(res))
	}

	// Read the benchmark results.
	benchFiles := &benchfmt.Files{
		Paths:       os.Args[1:],
		AllowStdin:  true,
		AllowLabels: true,
	}
	for benchFiles.Scan() {
		switch rec := benchFiles.Result(); rec := rec.(type) {
		case *benchfmt.Result:
			project(rec)
		case *benchfmt.SyntaxError:
			// Report a non-fatal parse error.
			log.Print(rec)
		default:
			// Unknown record type. Ignore.
		}
	}
	if err := benchFiles.Err(); err != nil {
		log.Fatalf("Error reading benchmark files: %v", err)
	}

	nonsingular := benchproc.NonSingularFields(residues)
	if len(nonsingular) > 0 {
		fmt.Printf("warning: results vary in %s\n", nonsingular)
	}

	// Order implementations with the reference first, then by name.
	implKeys := make([]ImplKey, 0, len(implKeySet))
	for implKey := range implKeySet {
		implKeys = append(implKeys, implKey)
	}
	implName := func(k ImplKey) string { return k.Get(implP.Fields()[0]) }
	slices.SortFunc(implKeys, func(a, b ImplKey) int {
		nameA, nameB := implName(a), implName(b)
		switch {
		case nameA == nameB:
			return 0
		case nameA == referenceImpl:
			return -1
		case nameB == referenceImpl:
			return 1
		default:
			return strings.Compare(nameA, nameB)
		}
	})
	var referenceImplKey ImplKey
	if len(implKeys) == 0 || implName(implKeys[0]) != referenceImpl {
		log.Fatalf("no results for reference implementation %q", referenceImpl)
	}
	referenceImplKey = implKeys[0]

	goroutinesKeys := make([]GoroutinesKey, 0, len(goroutinesKeySet))
	goroutineCounts := make(map[GoroutinesKey]int64)
	for goroutinesKey := range goroutinesKeySet {
		goroutinesKeys = append(goroutinesKeys, goroutinesKey)
		s := goroutinesKey.Get(goroutinesP.Fields()[0])
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			log.Fatalf("Error parsing goroutine count %q: %v\n", s, err)
		}
		goroutineCounts[goroutinesKey] = n
	}
	slices.SortFunc(goroutinesKeys, func(a, b GoroutinesKey) int {
		return cmp.Compare(goroutineCounts[a], goroutineCounts[b])
	})

	// Connect reference values and do the math over the samples
	confidence := 0.95
	thresholds := benchmath.DefaultThresholds
	summarize := func(data *Data) {
		data.Sample = *benchmath.NewSample(data.Sample.Values, &thresholds)
		for _, w := range data.Sample.Warnings {
			log.Printf("sample warning: %v", w)
		}
		data.Summary = benchmath.AssumeNothing.Summary(&data.Sample, confidence)
		for _, w := range data.Summary.Warnings {
			if w.Error() != "all samples are equal" {
				log.Printf("summary warning: %v", w)
			}
		}
	}
	for structureKey, dataByImplGoroutinesUnit := range dataByStructureImplGoroutinesUnit {
		// Prepare the reference values first
		for _, dataByUnit := range dataByImplGoroutinesUnit[referenceImplKey] {
			for _, data := range dataByUnit {
				summarize(data)
			}
		}
		for implKey, dataByGoroutinesUnit := range dataByImplGoroutinesUnit {
			if implKey == referenceImplKey {
				continue
			}
			for goroutinesKey, dataByUnit := range dataByGoroutinesUnit {
				for unit, data := range dataByUnit {
					summarize(data)
					data.Reference = dataByImplGoroutinesUnit[referenceImplKey][goroutinesKey][unit]
					if data.Reference == nil {
						log.Fatalf("can't find reference for Structures/structure=%v/impl=%v/goroutines=%v %v",
							structureKey.Get(structureP.Fields()[0]),
							referenceImpl,
							goroutinesKey.Get(goroutinesP.Fields()[0]),
							unit,
						)
					}
					data.Comparison = benchmath.AssumeNothing.Compare(&data.Reference.Sample, &data.Sample)
					for _, w := range data.Comparison.Warnings {
						if w.Error() != "all samples are equal" {
							log.Printf("comparison: %v", w)
						}
					}
				}
			}
		}
	}

	// Create a separate set of charts for each structure
	for structureKey, dataByImplGoroutinesUnit := range dataByStructureImplGoroutinesUnit {
		structureName := structureKey.Get(structureP.Fields()[0])
		structureDisplayName := structureName
		switch structureName {
		case "stack":
			structureDisplayName = "Stack"
		case "queue":
			structureDisplayName = "Queue"
		case "sharedmutex":
			structureDisplayName = "Shared Mutex"
		}

		newChart := func(title, yAxisLabel, suffix string, growFactor float64) chart {
			c := chart{
				Title:           fmt.Sprintf("%s %s", structureDisplayName, title),
				XAxisLabel:      "Goroutines",
				YAxisLabel:      yAxisLabel,
				XTickLabels:     make([]string, len(goroutinesKeys)),
				XTickPositions:  make([]float64, len(goroutinesKeys)),
				SeriesLabels:    make([]string, len(implKeys)),
				SeriesPoints:    make([]seriesPoints, len(implKeys)),
				FileBasename:    structureName + "_" + suffix,
				YAxisGrowFactor: growFactor,
			}
			for i, goroutinesKey := range goroutinesKeys {
				c.XTickLabels[i] = goroutinesKey.Get(goroutinesP.Fields()[0])
				c.XTickPositions[i] = float64(goroutineCounts[goroutinesKey])
			}
			for i, implKey := range implKeys {
				c.SeriesLabels[i] = implDisplayName(implName(implKey))
				points := &c.SeriesPoints[i]
				points.XYs = make(plotter.XYs, len(goroutinesKeys))
				points.YErrors = make(plotter.YErrors, len(goroutinesKeys))
				points.Labels = make([]string, len(goroutinesKeys))
			}
			return c
		}

		latencyChart := newChart("Time Per Operation", "Seconds / Operation", "latency", 1.2)
		speedupChart := newChart("Speedup", "Throughput vs. Mutex", "speedup", 1.2)
		allocationsChart := newChart("Allocations Per Operation", "Allocations / Operation", "allocations", 1.6)

		for lineIndex, implKey := range implKeys {
			for pointIndex, goroutinesKey := range goroutinesKeys {
				x := float64(goroutineCounts[goroutinesKey])
				dataByUnit := dataByImplGoroutinesUnit[implKey][goroutinesKey]

				if data := dataByUnit["sec/op"]; data != nil {
					setPoint(&latencyChart.SeriesPoints[lineIndex], pointIndex, x, &data.Summary, benchunit.ClassOf("sec/op"))

					if data.Reference != nil {
						// Speedup is the reference's time over this one's.
						y := data.Reference.Summary.Center / data.Summary.Center
						plus := data.Summary.Hi - data.Summary.Center
						minus := data.Summary.Center - data.Summary.Lo
						refPlus := data.Reference.Summary.Hi - data.Reference.Summary.Center
						refMinus := data.Reference.Summary.Center - data.Reference.Summary.Lo
						variance := y * math.Sqrt((plus*minus)/(data.Summary.Center*data.Summary.Center)+
							(refPlus*refMinus)/(data.Reference.Summary.Center*data.Reference.Summary.Center))
						setPoint(&speedupChart.SeriesPoints[lineIndex], pointIndex, x, &benchmath.Summary{
							Center: y,
							Hi:     y + variance,
							Lo:     y - variance,
						}, benchunit.Decimal)
					} else {
						setPoint(&speedupChart.SeriesPoints[lineIndex], pointIndex, x, &benchmath.Summary{
							Center: 1,
							Hi:     1,
							Lo:     1,
						}, benchunit.Decimal)
					}
				}

				if data := dataByUnit["allocs/op"]; data != nil {
					setPoint(&allocationsChart.SeriesPoints[lineIndex], pointIndex, x, &data.Summary, benchunit.Decimal)
				}
			}
		}

		for _, c := range []*chart{&latencyChart, &speedupChart, &allocationsChart} {
			if err := plotBars(c); err != nil {
				log.Fatalf("Error creating chart: %v", err)
			}
		}
	}

	fmt.Println("Charts generated successfully in the 'charts' directory.")
}

func implDisplayName(name string) string {
	switch name {
	case "lockfree":
		return "Lock-Free"
	case "mutex":
		return "Mutex"
	case "rwmutex":
		return "sync.RWMutex"
	default:
		return name
	}
}

func setPoint(points *seriesPoints, i int, x float64, s *benchmath.Summary, class benchunit.Class) {
	points.XYs[i].X = x
	points.XYs[i].Y = s.Center
	points.YErrors[i].High = s.Hi - s.Center
	points.YErrors[i].Low = s.Center - s.Lo
	points.Labels[i] = formatSummary(s, class)
}

func formatRatio(n, d float64) string {
	switch {
	case d == 0:
		if n == 0 {
			return "0%"
		}
		return fmt.Sprintf("%.2g", n)
	case math.Abs(n/d) < 1:
		return fmt.Sprintf("%.2g%%", math.Round(100*n/d))
	default:
		return fmt.Sprintf("%.2gx", n/d)
	}
}

func formatSummary(s *benchmath.Summary, class benchunit.Class) string {
	var center string
	switch {
	case math.Abs(s.Center) > 0.0001 && math.Abs(s.Center) < 1:
		center = fmt.Sprintf("%.3f", s.Center)
	case math.Abs(s.Center) >= 1000 && math.Abs(s.Center) < 10000:
		center = fmt.Sprintf("%.0f", s.Center)
	default:
		center = benchunit.Scale(s.Center, class)
	}
	plus := formatRatio(s.Hi-s.Center, s.Center)
	minus := formatRatio(s.Center-s.Lo, s.Center)
	switch plus {
	case minus:
		return fmt.Sprintf("%s\n+/-\n%s", center, plus)
	default:
		return fmt.Sprintf("%s\n+%s\n-%s", center, plus, minus)
	}
}
