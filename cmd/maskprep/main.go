// Command maskprep runs layout dataprep: it reads a design file of drawn
// polygons, merges and manhattanizes each layer to the fabrication grid,
// and writes the result as a GDSII stream library. Optionally it persists
// encoded cells to a SQLite store, renders debug plots of each layer and
// writes an HTML summary report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/litho-tools/maskprep/internal/config"
	"github.com/litho-tools/maskprep/internal/dataprep"
	"github.com/litho-tools/maskprep/internal/gds"
	"github.com/litho-tools/maskprep/internal/geom"
	"github.com/litho-tools/maskprep/internal/manhattan"
	"github.com/litho-tools/maskprep/internal/plotter"
	"github.com/litho-tools/maskprep/internal/report"
	"github.com/litho-tools/maskprep/internal/store"
	"github.com/litho-tools/maskprep/internal/units"
)

var (
	jobPath    = flag.String("job", "", "Path to job config JSON (defaults used if empty)")
	designPath = flag.String("design", "", "Path to design JSON (required)")
	outPath    = flag.String("out", "out.gds", "Output GDSII file")
	dbPath     = flag.String("db", "", "Optional SQLite store for encoded cells")
	plotDir    = flag.String("plots", "", "Optional directory for per-layer debug plots")
	reportPath = flag.String("report", "", "Optional HTML summary report file")
)

// designFile is the on-disk input format: a flat list of cells with
// drawn polygons, labels and placements.
type designFile struct {
	Name  string       `json:"name"`
	Cells []designCell `json:"cells"`
}

type designCell struct {
	Name      string           `json:"name"`
	Origin    [2]float64       `json:"origin"`
	Polygons  []designPolygon  `json:"polygons"`
	Labels    []designLabel    `json:"labels"`
	Instances []designInstance `json:"instances"`
}

type designPolygon struct {
	Layer   int16        `json:"layer"`
	Purpose int16        `json:"purpose"`
	Points  [][2]float64 `json:"points"`
}

type designLabel struct {
	Layer   int16      `json:"layer"`
	Purpose int16      `json:"purpose"`
	At      [2]float64 `json:"at"`
	Text    string     `json:"text"`
}

type designInstance struct {
	Ref           string     `json:"ref"`
	At            [2]float64 `json:"at"`
	Rotation      float64    `json:"rotation"`
	Magnification float64    `json:"magnification"`
	XReflection   bool       `json:"x_reflection"`
}

func main() {
	flag.Parse()
	if *designPath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(); err != nil {
		log.Fatalf("maskprep: %v", err)
	}
}

func run() error {
	cfg := config.DefaultJobConfig()
	if *jobPath != "" {
		loaded, err := config.LoadJobConfig(*jobPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// Flags win over the job file; job file fills in unset flags.
	if cfg.OutputPath != nil && *outPath == "out.gds" {
		*outPath = *cfg.OutputPath
	}
	if cfg.StorePath != nil && *dbPath == "" {
		*dbPath = *cfg.StorePath
	}
	if cfg.PlotDir != nil && *plotDir == "" {
		*plotDir = *cfg.PlotDir
	}
	if cfg.ReportPath != nil && *reportPath == "" {
		*reportPath = *cfg.ReportPath
	}

	design, err := loadDesign(*designPath)
	if err != nil {
		return err
	}

	modes, err := modesFromConfig(cfg)
	if err != nil {
		return err
	}

	unitMul, err := units.Multiplier(*cfg.UserUnit, *cfg.DatabaseUnit)
	if err != nil {
		return err
	}
	userMeters, err := units.InMeters(*cfg.UserUnit)
	if err != nil {
		return err
	}

	lib := gds.NewLibrary(*cfg.LibraryName)
	lib.UserUnit = userMeters
	lib.DatabaseUnit = userMeters / unitMul

	var pp *plotter.PolygonPlotter
	if *plotDir != "" {
		pp, err = plotter.New(*plotDir)
		if err != nil {
			return err
		}
	}

	var st *store.Store
	var runID string
	if *dbPath != "" {
		st, err = store.Open(*dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		cfgJSON, _ := json.Marshal(cfg)
		runID, err = st.RecordRun(design.Name, string(cfgJSON))
		if err != nil {
			return err
		}
		log.Printf("recording run %s in %s", runID, *dbPath)
	}

	var allStats []dataprep.LayerStats
	for _, dc := range design.Cells {
		cell, stats, err := prepCell(dc, *cfg.GridSize, modes, pp)
		if err != nil {
			return fmt.Errorf("cell %s: %w", dc.Name, err)
		}
		allStats = append(allStats, stats...)
		if err := lib.Registry.Add(cell); err != nil {
			return err
		}
		if st != nil {
			blob, err := gds.EncodeStructure(cell, unitMul)
			if err != nil {
				return fmt.Errorf("cell %s: %w", dc.Name, err)
			}
			if err := st.SaveCell(runID, cell.Name, len(stats), blob); err != nil {
				return err
			}
		}
	}

	out, err := os.Create(*outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()
	n, err := lib.WriteTo(out)
	if err != nil {
		return err
	}
	log.Printf("wrote %d bytes to %s (%d cells)", n, *outPath, len(design.Cells))

	if st != nil {
		if err := st.FinishRun(runID); err != nil {
			return err
		}
	}
	if pp != nil {
		files, err := pp.WriteAll()
		if err != nil {
			return err
		}
		log.Printf("wrote %d debug plots to %s", len(files), *plotDir)
	}
	if *reportPath != "" {
		if err := report.WriteSummaryFile(*reportPath, design.Name, allStats); err != nil {
			return err
		}
		log.Printf("wrote summary report to %s", *reportPath)
	}
	return nil
}

// modesFromConfig resolves the job config's mode strings into per-layer
// manhattanization biases.
func modesFromConfig(cfg *config.JobConfig) (dataprep.Modes, error) {
	modes := dataprep.Modes{Default: manhattan.Grow}
	if cfg.DefaultMode != nil {
		m, err := manhattan.ParseMode(*cfg.DefaultMode)
		if err != nil {
			return dataprep.Modes{}, fmt.Errorf("default_mode: %w", err)
		}
		modes.Default = m
	}
	for ks, ms := range cfg.LayerModes {
		key, err := dataprep.ParseLayerKey(ks)
		if err != nil {
			return dataprep.Modes{}, fmt.Errorf("layer_modes: %w", err)
		}
		m, err := manhattan.ParseMode(ms)
		if err != nil {
			return dataprep.Modes{}, fmt.Errorf("layer_modes[%s]: %w", ks, err)
		}
		if modes.PerLayer == nil {
			modes.PerLayer = make(map[dataprep.LayerKey]manhattan.Mode)
		}
		modes.PerLayer[key] = m
	}
	return modes, nil
}

func loadDesign(path string) (*designFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read design: %w", err)
	}
	var d designFile
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse design %s: %w", path, err)
	}
	if d.Name == "" {
		d.Name = "design"
	}
	return &d, nil
}

// prepCell runs dataprep over one cell's drawn polygons and builds the
// GDS cell. Holes in the prepared polygons are emitted as separate
// boundaries on the same layer; downstream mask tooling resolves them
// with even-odd fill (keyhole fracturing is out of scope here).
func prepCell(dc designCell, grid float64, modes dataprep.Modes, pp *plotter.PolygonPlotter) (*gds.Cell, []dataprep.LayerStats, error) {
	layers := make(map[dataprep.LayerKey][]geom.Ring)
	for _, p := range dc.Polygons {
		key := dataprep.LayerKey{Layer: p.Layer, Purpose: p.Purpose}
		ring := make(geom.Ring, 0, len(p.Points))
		for _, pt := range p.Points {
			ring = append(ring, geom.Point{X: pt[0], Y: pt[1]})
		}
		layers[key] = append(layers[key], ring)
	}

	prepped, stats, err := dataprep.Run(layers, grid, modes)
	if err != nil {
		return nil, nil, err
	}

	cell := gds.NewCell(dc.Name, geom.Point{X: dc.Origin[0], Y: dc.Origin[1]})
	// Walk layers in the sorted order stats came back in, so identical
	// inputs emit identically ordered elements.
	for _, st := range stats {
		key := st.Key
		polys := prepped[key]
		if pp != nil {
			pp.Record(key.String(), layers[key], polys)
		}
		for _, poly := range polys {
			cell.AddShape(gds.Boundary{Layer: key.Layer, Datatype: key.Purpose, Ring: poly.Outer})
			for _, h := range poly.Holes {
				cell.AddShape(gds.Boundary{Layer: key.Layer, Datatype: key.Purpose, Ring: h})
			}
		}
	}
	for _, l := range dc.Labels {
		cell.AddLabel(gds.Label{
			Layer:    l.Layer,
			Texttype: l.Purpose,
			At:       geom.Point{X: l.At[0], Y: l.At[1]},
			Text:     l.Text,
		})
	}
	for _, inst := range dc.Instances {
		cell.AddInstance(gds.Instance{
			Ref:           inst.Ref,
			At:            geom.Point{X: inst.At[0], Y: inst.At[1]},
			Rotation:      inst.Rotation,
			Magnification: inst.Magnification,
			XReflection:   inst.XReflection,
		})
	}
	return cell, stats, nil
}
