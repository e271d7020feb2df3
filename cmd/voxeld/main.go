package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/voxelgine/internal/api"
	"github.com/annel0/voxelgine/internal/config"
	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/metrics"
	"github.com/annel0/voxelgine/internal/observability"
	"github.com/annel0/voxelgine/internal/render"
	"github.com/annel0/voxelgine/internal/storage"
	"github.com/annel0/voxelgine/internal/world"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/go-gl/mathgl/mgl32"
)

// guardedStats отдает сводку по карте под общим с циклом кадров мьютексом
type guardedStats struct {
	mu *sync.Mutex
	m  *world.ChunkMap
}

func (g guardedStats) Stats() world.MapStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.m.Stats()
}

func main() {
	var (
		configPath = flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
		fps        = flag.Int("fps", 20, "частота headless кадров")
		regenerate = flag.Bool("regenerate", false, "сгенерировать мир заново, игнорируя сохранение")
	)
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	// === ЛОГИРОВАНИЕ ===
	if cfg.Logging.Dir != "" {
		logging.SetLogDir(cfg.Logging.Dir)
	}
	if err := logging.InitDefaultLogger("voxeld"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.GetLevel()))
	if err := logging.ConfigureComponents(cfg.Logging.GetLevel(), cfg.Logging.Components); err != nil {
		logging.Warn("⚠️ %v", err)
	}
	defer logging.CloseComponents()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *fps, *regenerate); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
	logging.Info("👋 Движок остановлен")
}

func run(ctx context.Context, cfg *config.Config, fps int, regenerate bool) error {
	logging.Info("🧊 Запуск voxelgine (headless)")

	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.GetServiceName(), cfg.Telemetry.Enabled)
	if err != nil {
		logging.Warn("трассировка отключена: %v", err)
	} else {
		defer shutdownTelemetry(context.Background())
	}

	// === РЕЕСТР БЛОКОВ ===
	var regOpts []block.Option
	models, err := block.LoadModels(cfg.Storage.GetModelsDir())
	switch {
	case err == nil:
		regOpts = append(regOpts, block.WithModels(models))
		logging.Info("загружено %d моделей блоков", len(models))
	case errors.Is(err, fs.ErrNotExist):
		logging.Debug("каталог моделей %s не найден, используются встроенные", cfg.Storage.GetModelsDir())
	default:
		return fmt.Errorf("ошибка загрузки моделей: %w", err)
	}
	reg := block.NewRegistry(regOpts...)

	// === ХРАНИЛИЩЕ ===
	dataDir := cfg.Storage.GetDataDir()
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("ошибка создания каталога данных: %w", err)
	}
	store, err := storage.OpenChunkStore(filepath.Join(dataDir, "chunks"))
	if err != nil {
		return err
	}
	defer store.Close()

	meta, err := store.EnsureWorldMeta(cfg.World.Seed)
	if err != nil {
		return err
	}

	// === КАРТА ===
	engineMetrics := metrics.NewEngineMetrics(nil)
	opts := world.OptionsFromConfig(cfg)
	opts.Observer = engineMetrics
	opts.Logger = logging.GetWorldLogger()
	m := world.NewChunkMap(reg, opts)

	if err := loadWorld(ctx, m, store, cfg, meta, regenerate); err != nil {
		return err
	}
	m.ComputeLightingContext(ctx)

	var mu sync.Mutex
	backend := render.NewMemoryBackend()

	engineMetrics.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()), guardedStats{mu: &mu, m: m}, 5*time.Second)
	defer engineMetrics.Stop()

	inspect, err := api.NewInspectServer(api.Config{
		Port:    fmt.Sprintf(":%d", cfg.Server.GetAPIPort()),
		World:   m,
		Guard:   &mu,
		WorldID: meta.ID,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := inspect.Start(); err != nil {
			logging.Error("❌ Ошибка API инспекции: %v", err)
		}
	}()

	logging.Info("✅ Мир %s готов: %d чанков", meta.ID, m.Len())

	frameLoop(ctx, m, backend, &mu, cfg, fps, store)

	// === GRACEFUL SHUTDOWN ===
	logging.Info("📡 Завершение работы...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := inspect.Stop(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки API: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if n, err := m.SaveChanged(stopCtx, store); err != nil {
		logging.Error("❌ Ошибка сохранения чанков: %v", err)
	} else {
		logging.Info("сохранено %d измененных чанков", n)
	}
	if err := saveStream(m, cfg.Storage.GetStreamPath()); err != nil {
		logging.Error("❌ Ошибка записи потока карты: %v", err)
	}
	m.Release(backend)
	return nil
}

// loadWorld восстанавливает карту из хранилища, из сжатого потока или генерирует новую
func loadWorld(ctx context.Context, m *world.ChunkMap, store *storage.ChunkStore, cfg *config.Config, meta storage.WorldMeta, regenerate bool) error {
	if !regenerate {
		n, err := m.LoadFrom(ctx, store)
		if err != nil {
			return err
		}
		if n > 0 {
			logging.Info("📦 Загружено %d чанков из хранилища", n)
			return nil
		}

		if f, err := os.Open(cfg.Storage.GetStreamPath()); err == nil {
			defer f.Close()
			if err := m.Load(f); err != nil {
				return fmt.Errorf("ошибка чтения %s: %w", cfg.Storage.GetStreamPath(), err)
			}
			logging.Info("📦 Карта загружена из %s", cfg.Storage.GetStreamPath())
			return m.SaveTo(ctx, store)
		}
	}

	gen := world.NewWorldGenerator(meta.Seed, cfg.World.GetRadius(), cfg.World.GetHeight())
	start := time.Now()
	gen.Generate(m)
	logging.Info("🌱 Сгенерирован остров: %d чанков за %v (сид %d)", m.Len(), time.Since(start), meta.Seed)
	return m.SaveTo(ctx, store)
}

// frameLoop рисует кадры в памяти, облетая остров камерой, и периодически
// сохраняет измененные чанки
func frameLoop(ctx context.Context, m *world.ChunkMap, backend *render.MemoryBackend, mu *sync.Mutex, cfg *config.Config, fps int, store *storage.ChunkStore) {
	if fps <= 0 {
		fps = 20
	}
	frames := time.NewTicker(time.Second / time.Duration(fps))
	defer frames.Stop()
	saves := time.NewTicker(time.Duration(cfg.Storage.GetSaveInterval()) * time.Second)
	defer saves.Stop()

	radius := float32(cfg.World.GetRadius()*world.ChunkSize) * 1.5
	height := float32(cfg.World.GetHeight() * world.ChunkSize)
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-frames.C:
			angle := time.Since(start).Seconds() * 0.1
			cam := world.NewCamera(
				mgl32.Vec3{radius * float32(math.Cos(angle)), height, radius * float32(math.Sin(angle))},
				mgl32.Vec3{0, height / 2, 0},
			)
			mu.Lock()
			m.Draw(backend, cam)
			m.DrawTransparent(backend, cam)
			backend.ResetFrame()
			mu.Unlock()
		case <-saves.C:
			mu.Lock()
			n, err := m.SaveChanged(ctx, store)
			mu.Unlock()
			if err != nil {
				logging.Error("❌ Ошибка автосохранения: %v", err)
			} else if n > 0 {
				logging.Debug("автосохранение: %d чанков", n)
			}
		}
	}
}

func saveStream(m *world.ChunkMap, path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
