// Command lanetune is the interactive extrinsic calibration loop. Each
// accepted parameter change re-projects the frame's lanes, rewrites the
// overlay PNG and rewrites the extrinsic dump.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/AmazingWilson-hub/road-lane/internal/calib"
	"github.com/AmazingWilson-hub/road-lane/internal/config"
	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/lane"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
	"github.com/AmazingWilson-hub/road-lane/internal/render"
	"github.com/AmazingWilson-hub/road-lane/internal/security"
	"github.com/AmazingWilson-hub/road-lane/internal/version"
)

var (
	configPath   = flag.String("config", "", "Camera/pipeline config JSON (built-in defaults when empty)")
	imagePath    = flag.String("image", "", "Camera frame to calibrate against")
	recordPath   = flag.String("record", "", "Lane record for the frame")
	outPath      = flag.String("out", "lane_overlay.png", "Overlay PNG rewritten after every change")
	extrinsicOut = flag.String("extrinsic-out", "current_extrinsic.txt", "Extrinsic dump rewritten after every change")
	lineWidth    = flag.Float64("line-width", 0, "Polyline width in pixels (0 uses the config)")
	initTX       = flag.Float64("tx", 0, "Initial translation x (m)")
	initTY       = flag.Float64("ty", 0, "Initial translation y (m)")
	initTZ       = flag.Float64("tz", 0, "Initial translation z (m)")
	initRoll     = flag.Float64("roll", 0, "Initial roll (deg)")
	initPitch    = flag.Float64("pitch", 0, "Initial pitch (deg)")
	initYaw      = flag.Float64("yaw", 0, "Initial yaw (deg)")
	showVersion  = flag.Bool("version", false, "Print version and exit")
)

// tuner writes the artefacts of a calibration session.
type tuner struct {
	fs           fsutil.FileSystem
	session      *calib.Session
	frame        image.Image
	overlay      render.Overlay
	outPath      string
	extrinsicOut string
	// saveDir confines "save <path>" targets when set.
	saveDir string
}

func (t *tuner) writeOverlay(lanes []projection.ProjectedLane) error {
	f, err := t.fs.Create(t.outPath)
	if err != nil {
		return err
	}
	if err := render.EncodePNG(f, t.overlay.Draw(t.frame, lanes)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *tuner) writeExtrinsic(path string) error {
	f, err := t.fs.Create(path)
	if err != nil {
		return err
	}
	if err := projection.WriteTransform(f, t.session.Transform()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *tuner) refresh(u calib.Update) error {
	if err := t.writeOverlay(u.Lanes); err != nil {
		return fmt.Errorf("failed to write overlay: %w", err)
	}
	if err := t.writeExtrinsic(t.extrinsicOut); err != nil {
		return fmt.Errorf("failed to write extrinsic: %w", err)
	}
	return nil
}

// run reads commands until quit or end of input. Bad commands are reported
// on out and the loop continues; output failures end it.
func (t *tuner) run(in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	prompt := func() { fmt.Fprint(out, "> ") }
	prompt()
	for sc.Scan() {
		cmd, ok, err := calib.ParseCommand(sc.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			prompt()
			continue
		}
		if !ok {
			prompt()
			continue
		}

		switch cmd.Kind {
		case calib.CmdQuit:
			return nil
		case calib.CmdHelp:
			fmt.Fprintln(out, calib.Usage)
		case calib.CmdShow:
			fmt.Fprintln(out, t.session)
		case calib.CmdSave:
			path := cmd.Path
			if path == "" {
				path = t.extrinsicOut
			} else if t.saveDir != "" {
				if err := security.ValidatePathWithinDirectory(path, t.saveDir); err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					break
				}
			}
			if err := t.writeExtrinsic(path); err != nil {
				return fmt.Errorf("failed to save extrinsic: %w", err)
			}
			fmt.Fprintf(out, "saved %s\n", path)
		case calib.CmdReset:
			u, err := t.session.Reset()
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			if err := t.refresh(u); err != nil {
				return err
			}
			fmt.Fprintln(out, t.session)
		case calib.CmdSet:
			u, err := t.session.Set(cmd.Param, cmd.Value)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				break
			}
			if err := t.refresh(u); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s = %g %s, %d lanes visible\n", cmd.Param, cmd.Value, cmd.Param.Unit(), visible(u.Lanes))
		}
		prompt()
	}
	return sc.Err()
}

func visible(lanes []projection.ProjectedLane) int {
	n := 0
	for _, l := range lanes {
		if !l.Empty() {
			n++
		}
	}
	return n
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(version.String("lanetune"))
		return
	}
	if *imagePath == "" || *recordPath == "" {
		log.Fatal("-image and -record are required")
	}

	cfg := config.EmptyConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	fsys := fsutil.OSFileSystem{}
	engine, err := cfg.Engine(fsys)
	if err != nil {
		log.Fatalf("invalid camera setup: %v", err)
	}

	imgFile, err := fsys.Open(*imagePath)
	if err != nil {
		log.Fatalf("failed to open image: %v", err)
	}
	frame, err := render.DecodeFrame(imgFile)
	imgFile.Close()
	if err != nil {
		log.Fatalf("failed to read %s: %v", *imagePath, err)
	}
	recFile, err := fsys.Open(*recordPath)
	if err != nil {
		log.Fatalf("failed to open record: %v", err)
	}
	parsed, err := lane.Parse(recFile)
	recFile.Close()
	if err != nil {
		log.Fatalf("failed to read %s: %v", *recordPath, err)
	}

	session, err := calib.NewSession(engine, parsed.Lanes, projection.Params{
		TX: *initTX, TY: *initTY, TZ: *initTZ,
		Roll: *initRoll, Pitch: *initPitch, Yaw: *initYaw,
	})
	if err != nil {
		log.Fatalf("failed to start session: %v", err)
	}

	overlay := render.Overlay{LineWidth: cfg.GetLineWidth()}
	if *lineWidth > 0 {
		overlay.LineWidth = *lineWidth
	}
	t := &tuner{
		fs:           fsys,
		session:      session,
		frame:        frame,
		overlay:      overlay,
		outPath:      *outPath,
		extrinsicOut: *extrinsicOut,
		saveDir:      filepath.Dir(*extrinsicOut),
	}
	if err := t.refresh(calib.Update{Lanes: session.Lanes()}); err != nil {
		log.Fatal(err)
	}
	fmt.Println(calib.Usage)
	fmt.Println(session)

	if err := t.run(os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
