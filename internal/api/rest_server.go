package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/annel0/voxelgine/internal/logging"
	"github.com/annel0/voxelgine/internal/middleware"
	"github.com/annel0/voxelgine/internal/vec"
	"github.com/annel0/voxelgine/internal/world"
	"github.com/annel0/voxelgine/internal/world/block"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// InspectServer REST API инспекции карты чанков.
//
// Карта не потокобезопасна, поэтому каждое обращение к ней выполняется под
// Guard. Владелец карты (цикл кадров) должен брать тот же мьютекс.
type InspectServer struct {
	router     *gin.Engine
	world      *world.ChunkMap
	guard      sync.Locker
	port       string
	metrics    *ServerMetrics
	log        *logging.Logger
	httpServer *http.Server
	worldID    string
}

// Config содержит конфигурацию сервера инспекции
type Config struct {
	Port    string          // адрес для запуска сервера, например ":8090"
	World   *world.ChunkMap // инспектируемая карта
	Guard   sync.Locker     // общий с циклом кадров мьютекс; nil - собственный
	WorldID string          // идентификатор мира из хранилища

	// Registry регистр метрик HTTP; nil - глобальный
	Registry *prometheus.Registry
	// DisableRequestLog отключает построчный лог запросов
	DisableRequestLog bool
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// SetBlockRequest запрос на установку блока
type SetBlockRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block string `json:"block" binding:"required"` // имя блока или числовой ID
	// Relight пересчитать свет после изменения
	Relight bool `json:"relight"`
}

// BlockInfo описание клетки карты
type BlockInfo struct {
	Pos        vec.Vec3      `json:"pos"`
	ID         block.BlockID `json:"id"`
	Name       string        `json:"name"`
	SkyLight   int           `json:"sky_light"`
	BlockLight int           `json:"block_light"`
	Level      float32       `json:"level"`
	Color      [4]uint8      `json:"color"`
	Loaded     bool          `json:"loaded"`
}

// ChunkInfo краткое описание чанка
type ChunkInfo struct {
	Coords          vec.Vec3 `json:"coords"`
	NonAirBlocks    int      `json:"non_air_blocks"`
	Dirty           bool     `json:"dirty"`
	NeedsRelighting bool     `json:"needs_relighting"`
	Changes         int      `json:"changes"`
}

// NewInspectServer создает сервер инспекции
func NewInspectServer(config Config) (*InspectServer, error) {
	if config.World == nil {
		return nil, errors.New("не задана карта чанков")
	}
	if config.Port == "" {
		config.Port = ":8090"
	}
	if config.Guard == nil {
		config.Guard = &sync.Mutex{}
	}

	// Устанавливаем режим релиза для gin
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("inspect_api"))
	if !config.DisableRequestLog {
		router.Use(middleware.NewRequestLogger(nil).Handler())
	}
	promMw := middleware.NewPrometheusMiddleware("inspect_api", config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	s := &InspectServer{
		router:  router,
		world:   config.World,
		guard:   config.Guard,
		port:    config.Port,
		metrics: NewServerMetrics(),
		log:     logging.GetAPILogger(),
		worldID: config.WorldID,
	}
	s.setupRoutes()
	return s, nil
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (s *InspectServer) Handler() http.Handler { return s.router }

// setupRoutes настраивает маршруты REST API
func (s *InspectServer) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/stats", s.handleStats)
		api.GET("/chunks", s.handleChunks)
		api.GET("/block", s.handleGetBlock)
		api.POST("/block", s.handleSetBlock)
		api.GET("/light", s.handleLight)
		api.POST("/relight", s.handleRelight)
		api.GET("/raycast", s.handleRaycast)
		api.GET("/blocks", s.handleBlockKinds)
	}
}

func (s *InspectServer) withWorld(fn func(m *world.ChunkMap)) {
	s.guard.Lock()
	defer s.guard.Unlock()
	fn(s.world)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, GenericResponse{Success: false, Message: message})
}

// queryInt читает обязательный целочисленный параметр запроса
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("не задан параметр %s", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("параметр %s должен быть целым числом", name)
	}
	return v, nil
}

func queryFloat(c *gin.Context, name string, def float32) (float32, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		return 0, fmt.Errorf("параметр %s должен быть числом", name)
	}
	return float32(v), nil
}

func queryPos(c *gin.Context) (vec.Vec3, error) {
	var p vec.Vec3
	var err error
	if p.X, err = queryInt(c, "x"); err != nil {
		return p, err
	}
	if p.Y, err = queryInt(c, "y"); err != nil {
		return p, err
	}
	if p.Z, err = queryInt(c, "z"); err != nil {
		return p, err
	}
	return p, nil
}

// parseBlock разбирает имя блока или его числовой ID
func parseBlock(reg *block.Registry, s string) (block.BlockID, error) {
	if id, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		if id < 0 || id > 0xFFFF {
			return 0, fmt.Errorf("ID блока %d вне диапазона", id)
		}
		return block.BlockID(id), nil
	}
	for _, id := range reg.Kinds() {
		if strings.EqualFold(reg.Name(id), strings.TrimSpace(s)) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("неизвестный блок %q", s)
}

func (s *InspectServer) blockInfo(m *world.ChunkMap, pos vec.Vec3) BlockInfo {
	p := m.GetPlacedBlock(pos)
	return BlockInfo{
		Pos:        pos,
		ID:         p.ID,
		Name:       m.Registry().Name(p.ID),
		SkyLight:   p.SkyLight(),
		BlockLight: p.BlockLight(),
		Level:      m.GetLightLevel(pos),
		Color:      m.GetLightColor(pos).RGBA(),
		Loaded:     m.GetChunk(pos.ToChunkCoords()) != nil,
	}
}

// handleHealth проверка состояния сервера
func (s *InspectServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}

// handleStats возвращает сводку по карте и процессу
func (s *InspectServer) handleStats(c *gin.Context) {
	var mapStats world.MapStats
	s.withWorld(func(m *world.ChunkMap) {
		mapStats = m.Stats()
	})

	cpuPercent, _ := s.metrics.GetCPUUsage()
	stats := map[string]interface{}{
		"world": mapStats,
		"server": map[string]interface{}{
			"world_id":    s.worldID,
			"uptime":      s.metrics.GetUptime(),
			"memory_mb":   fmt.Sprintf("%.2f", s.metrics.GetMemoryUsage()),
			"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
			"server_time": time.Now().Unix(),
		},
		"memory_details": s.metrics.GetDetailedMemoryStats(),
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleChunks возвращает список загруженных чанков
func (s *InspectServer) handleChunks(c *gin.Context) {
	var chunks []ChunkInfo
	s.withWorld(func(m *world.ChunkMap) {
		for _, ch := range m.Chunks() {
			chunks = append(chunks, ChunkInfo{
				Coords:          ch.Coords,
				NonAirBlocks:    ch.NonAirBlockCount(),
				Dirty:           ch.IsDirty(),
				NeedsRelighting: ch.NeedsRelighting(),
				Changes:         ch.ChangeCounter(),
			})
		}
	})

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Список чанков получен",
		Data: map[string]interface{}{
			"chunks": chunks,
			"total":  len(chunks),
		},
	})
}

// handleGetBlock возвращает клетку по мировым координатам
func (s *InspectServer) handleGetBlock(c *gin.Context) {
	pos, err := queryPos(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var info BlockInfo
	s.withWorld(func(m *world.ChunkMap) {
		info = s.blockInfo(m, pos)
	})
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок получен", Data: info})
}

// handleSetBlock ставит блок и при необходимости пересчитывает свет
func (s *InspectServer) handleSetBlock(c *gin.Context) {
	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Неверный формат запроса")
		return
	}

	var (
		info   BlockInfo
		reqErr error
	)
	s.withWorld(func(m *world.ChunkMap) {
		id, err := parseBlock(m.Registry(), req.Block)
		if err != nil {
			reqErr = err
			return
		}
		pos := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
		m.SetBlock(pos, id)
		if req.Relight {
			m.ComputeLightingContext(c.Request.Context())
		}
		info = s.blockInfo(m, pos)
	})
	if reqErr != nil {
		badRequest(c, reqErr.Error())
		return
	}

	s.log.Info("блок %s установлен в %v", info.Name, info.Pos)
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен", Data: info})
}

// handleLight возвращает освещенность клетки
func (s *InspectServer) handleLight(c *gin.Context) {
	pos, err := queryPos(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var info BlockInfo
	s.withWorld(func(m *world.ChunkMap) {
		info = s.blockInfo(m, pos)
	})
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Освещенность получена",
		Data: gin.H{
			"pos":         info.Pos,
			"sky_light":   info.SkyLight,
			"block_light": info.BlockLight,
			"level":       info.Level,
			"color":       info.Color,
		},
	})
}

// handleRelight пересчитывает свет всей карты
func (s *InspectServer) handleRelight(c *gin.Context) {
	ctx := c.Request.Context()
	sequential := c.Query("sequential") == "true"

	start := time.Now()
	var chunks int
	s.withWorld(func(m *world.ChunkMap) {
		if sequential {
			m.ComputeLightingSequential()
		} else {
			m.ComputeLightingContext(ctx)
		}
		chunks = m.Len()
	})
	elapsed := time.Since(start)

	s.log.Info("свет пересчитан по запросу: %d чанков за %v", chunks, elapsed)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Освещение пересчитано",
		Data: gin.H{
			"chunks":     chunks,
			"elapsed_ms": elapsed.Milliseconds(),
			"sequential": sequential,
		},
	})
}

// handleRaycast трассирует луч от (ox,oy,oz) в направлении (dx,dy,dz)
func (s *InspectServer) handleRaycast(c *gin.Context) {
	var vals [7]float32
	names := [7]string{"ox", "oy", "oz", "dx", "dy", "dz", "max"}
	defaults := [7]float32{0, 0, 0, 0, 0, 0, 64}
	for i, name := range names {
		v, err := queryFloat(c, name, defaults[i])
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		vals[i] = v
	}
	origin := mgl32.Vec3{vals[0], vals[1], vals[2]}
	dir := mgl32.Vec3{vals[3], vals[4], vals[5]}
	if dir.Len() == 0 {
		badRequest(c, "направление луча не задано")
		return
	}

	var (
		hit world.RaycastHit
		ok  bool
	)
	s.withWorld(func(m *world.ChunkMap) {
		hit, ok = m.Raycast(origin, dir, vals[6])
	})
	if !ok {
		c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Луч ни во что не попал"})
		return
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Попадание", Data: hit})
}

// handleBlockKinds возвращает таблицу типов блоков
func (s *InspectServer) handleBlockKinds(c *gin.Context) {
	reg := s.world.Registry()
	kinds := make([]gin.H, 0, len(reg.Kinds()))
	for _, id := range reg.Kinds() {
		info := reg.Info(id)
		kinds = append(kinds, gin.H{
			"id":           id,
			"name":         info.Name,
			"opaque":       info.Opaque,
			"solid":        info.Solid,
			"emission":     info.Emission,
			"double_sided": info.DoubleSided,
			"custom_model": info.CustomModel,
		})
	}
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Типы блоков", Data: kinds})
}

// Start запускает REST сервер. Блокирует до остановки.
func (s *InspectServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info("🔍 API инспекции доступен по адресу %s", s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает REST сервер
func (s *InspectServer) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
