package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/OCharnyshevich/voxel-world/internal/config"
	"github.com/OCharnyshevich/voxel-world/internal/storage"
	"github.com/OCharnyshevich/voxel-world/internal/world"
	"github.com/OCharnyshevich/voxel-world/internal/world/block"
	"github.com/OCharnyshevich/voxel-world/pkg/blockdata"
)

type options struct {
	frames int
	fps    int
	speed  float64
}

func main() {
	cfg := config.DefaultConfig()
	var (
		configPath = flag.String("config", "voxel.yaml", "config file path")
		opts       options
	)
	flag.IntVar(&opts.frames, "frames", 600, "frames to simulate (0 = until interrupted)")
	flag.IntVar(&opts.fps, "fps", 60, "simulated frames per second")
	flag.Float64Var(&opts.speed, "speed", 8, "viewer speed in blocks per second")
	flag.Int64Var(&cfg.World.Seed, "seed", cfg.World.Seed, "world seed")
	flag.IntVar(&cfg.World.Apothem, "apothem", cfg.World.Apothem, "loaded radius in chunks")
	flag.StringVar(&cfg.World.Terrain, "terrain", cfg.World.Terrain, "terrain generator (noise or flat)")
	flag.IntVar(&cfg.Generation.Workers, "workers", cfg.Generation.Workers, "chunk workers (0 = one per CPU)")
	flag.StringVar(&cfg.Persistence.Backend, "backend", cfg.Persistence.Backend, "persistence backend (file, sqlite or memory)")
	flag.StringVar(&cfg.Persistence.Dir, "save-dir", cfg.Persistence.Dir, "save directory")
	flag.StringVar(&cfg.Persistence.Compression, "compression", cfg.Persistence.Compression, "record compression (none or zstd)")
	flag.StringVar(&cfg.Blocks.Pack, "blocks", cfg.Blocks.Pack, "block pack name or YAML file")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fromFile, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	config.Merge(cfg, fromFile, explicit)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, opts, log); err != nil {
		log.Error("voxel error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, log *slog.Logger) error {
	pack, err := blockdata.Resolve(cfg.Blocks.Pack)
	if err != nil {
		return fmt.Errorf("load block pack: %w", err)
	}
	meta, err := block.NewRegistry(pack)
	if err != nil {
		return fmt.Errorf("build block registry: %w", err)
	}
	log.Info("block pack loaded", "pack", pack.Name, "blocks", meta.Count())

	store, err := storage.Open(cfg.Persistence, log.With("component", "storage"))
	if err != nil {
		return fmt.Errorf("open persistence: %w", err)
	}
	store.Start(ctx)
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Error("close persistence", "error", err)
		}
	}()

	w, err := world.New(cfg, meta, store, log)
	if err != nil {
		return fmt.Errorf("create world: %w", err)
	}
	defer w.Close()

	start := time.Now()
	viewer, err := w.Init(ctx, mgl32.Vec3{})
	if err != nil {
		return fmt.Errorf("init world: %w", err)
	}
	log.Info("world ready", "spawn", viewer, "chunks", w.Region().Len(), "elapsed", time.Since(start))

	d := &driver{w: w, store: store, log: log, viewer: viewer}
	if err := d.loop(ctx, opts); err != nil {
		return err
	}

	size, err := store.SaveSize(context.Background())
	if err != nil {
		log.Warn("measure save", "error", err)
	}
	log.Info("shutting down", "viewer", d.viewer, "save_bytes", size)
	return nil
}

// driver stands in for the render loop: it walks a viewer across the
// terrain and edits a block now and then.
type driver struct {
	w      *world.World
	store  *storage.Service
	log    *slog.Logger
	viewer mgl32.Vec3
}

func (d *driver) loop(ctx context.Context, opts options) error {
	fps := max(opts.fps, 1)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	step := float32(opts.speed) / float32(fps)
	for frame := 1; opts.frames == 0 || frame <= opts.frames; frame++ {
		select {
		case <-ctx.Done():
			d.log.Info("interrupted", "frame", frame)
			return nil
		case <-ticker.C:
		}

		d.walk(step)
		switch frame % (2 * fps) {
		case 0:
			d.dig()
		case fps:
			d.placeTorch()
		}
		d.w.Update(d.viewer)

		if frame%fps == 0 {
			d.report(ctx)
		}
	}
	return nil
}

// walk moves the viewer along +X, hovering two blocks above the ground.
func (d *driver) walk(step float32) {
	d.viewer[0] += step
	x, z := floor(d.viewer.X()), floor(d.viewer.Z())
	surface := d.w.ChunkGenerator().SurfaceAt(x, z)
	d.viewer[1] = float32(surface + 2)
}

// ground returns the highest loaded solid block under the viewer.
func (d *driver) ground() (x, y, z int, ok bool) {
	x, z = floor(d.viewer.X()), floor(d.viewer.Z())
	top := floor(d.viewer.Y())
	for y = top; y > top-32; y-- {
		b, loaded := d.w.Block(x, y, z)
		if !loaded {
			return 0, 0, 0, false
		}
		if !b.IsEmpty() {
			return x, y, z, true
		}
	}
	return 0, 0, 0, false
}

func floor(v float32) int { return int(math.Floor(float64(v))) }

func (d *driver) dig() {
	if x, y, z, ok := d.ground(); ok && d.w.RemoveBlock(x, y, z) {
		d.log.Debug("dig", "x", x, "y", y, "z", z)
	}
}

func (d *driver) placeTorch() {
	torch, ok := d.w.Meta().Index("torch")
	if !ok {
		return
	}
	if x, y, z, ok := d.ground(); ok && d.w.PlaceBlock(torch, x, y, z, mgl32.Vec3{0, -1, 0}) {
		d.log.Debug("place torch", "x", x, "y", y+1, "z", z)
	}
}

func (d *driver) report(ctx context.Context) {
	s := d.w.Stats()
	modified, err := d.store.ModifiedChunkCount(ctx)
	if err != nil {
		d.log.Warn("count modified chunks", "error", err)
	}
	d.log.Info("frame stats",
		"viewer", d.viewer,
		"loaded", s.Loaded,
		"active", s.Active,
		"pending", s.Pending,
		"meshes", s.Meshes,
		"modified_chunks", modified,
	)
}
