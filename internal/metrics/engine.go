package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsProvider источник сводки по карте для периодического обновления Gauge
type StatsProvider interface {
	Stats() world.MapStats
}

// EngineMetrics Prometheus-метрики движка. Реализует world.Observer.
type EngineMetrics struct {
	lightingDuration prometheus.Histogram
	lightingChunks   prometheus.Counter
	meshRebuilds     prometheus.Counter
	meshFaces        *prometheus.CounterVec
	frames           prometheus.Counter
	drawCalls        prometheus.Counter
	visibleChunks    prometheus.Gauge
	culledChunks     prometheus.Gauge
	transparentFaces prometheus.Gauge

	loadedChunks prometheus.Gauge
	dirtyChunks  prometheus.Gauge
	nonAirBlocks prometheus.Gauge

	server *http.Server
	quit   chan struct{}
	done   chan struct{}
}

var _ world.Observer = (*EngineMetrics)(nil)

// NewEngineMetrics создаёт метрики и регистрирует их в reg.
// nil означает глобальный регистр Prometheus.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	em := &EngineMetrics{
		lightingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Name:      "lighting_duration_seconds",
			Help:      "Длительность пересчета освещения карты.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		lightingChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "lighting_chunks_total",
			Help:      "Общее число чанков, для которых пересчитан свет.",
		}),
		meshRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "mesh_rebuilds_total",
			Help:      "Число перестроений мешей чанков.",
		}),
		meshFaces: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "mesh_faces_total",
			Help:      "Число сгенерированных граней по проходам.",
		}, []string{"pass"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "frames_total",
			Help:      "Число отрисованных кадров.",
		}),
		drawCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "draw_calls_total",
			Help:      "Число вызовов отрисовки непрозрачных мешей.",
		}),
		visibleChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "visible_chunks",
			Help:      "Чанков, прошедших отсечение в последнем кадре.",
		}),
		culledChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "culled_chunks",
			Help:      "Чанков, отброшенных пирамидой видимости в последнем кадре.",
		}),
		transparentFaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "transparent_faces",
			Help:      "Полупрозрачных граней в последнем кадре.",
		}),
		loadedChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "loaded_chunks",
			Help:      "Количество загруженных чанков.",
		}),
		dirtyChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "dirty_chunks",
			Help:      "Чанков, ожидающих перестройки мешей.",
		}),
		nonAirBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "non_air_blocks",
			Help:      "Количество непустых блоков в карте.",
		}),
	}

	reg.MustRegister(
		em.lightingDuration, em.lightingChunks,
		em.meshRebuilds, em.meshFaces,
		em.frames, em.drawCalls, em.visibleChunks, em.culledChunks, em.transparentFaces,
		em.loadedChunks, em.dirtyChunks, em.nonAirBlocks,
	)
	return em
}

// LightingDone реализует world.Observer
func (em *EngineMetrics) LightingDone(chunks int, elapsed time.Duration) {
	em.lightingDuration.Observe(elapsed.Seconds())
	em.lightingChunks.Add(float64(chunks))
}

// MeshRebuilt реализует world.Observer
func (em *EngineMetrics) MeshRebuilt(opaqueFaces, transparentFaces int) {
	em.meshRebuilds.Inc()
	em.meshFaces.WithLabelValues("opaque").Add(float64(opaqueFaces))
	em.meshFaces.WithLabelValues("transparent").Add(float64(transparentFaces))
}

// FrameDrawn реализует world.Observer
func (em *EngineMetrics) FrameDrawn(stats world.DrawStats) {
	em.frames.Inc()
	em.drawCalls.Add(float64(stats.DrawCalls))
	em.visibleChunks.Set(float64(stats.Visible))
	em.culledChunks.Set(float64(stats.Culled))
	em.transparentFaces.Set(float64(stats.TransparentFaces))
}

// Update переносит сводку по карте в Gauge
func (em *EngineMetrics) Update(s world.MapStats) {
	em.loadedChunks.Set(float64(s.Chunks))
	em.dirtyChunks.Set(float64(s.DirtyChunks))
	em.nonAirBlocks.Set(float64(s.NonAirBlocks))
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине. Если provider
// не nil, сводка по карте обновляется раз в interval.
func (em *EngineMetrics) StartHTTP(addr string, provider StatsProvider, interval time.Duration) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	em.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := em.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	if provider != nil {
		em.quit = make(chan struct{})
		em.done = make(chan struct{})
		go em.loop(provider, interval)
	}
}

// Stop останавливает обновление метрик и HTTP-сервер
func (em *EngineMetrics) Stop() {
	if em.quit != nil {
		close(em.quit)
		<-em.done
		em.quit = nil
	}
	if em.server != nil {
		_ = em.server.Close()
		em.server = nil
	}
}

func (em *EngineMetrics) loop(provider StatsProvider, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(em.done)

	for {
		select {
		case <-ticker.C:
			em.Update(provider.Stats())
		case <-em.quit:
			return
		}
	}
}
