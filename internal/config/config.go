package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка.
// Нулевые значения полей означают «взять по умолчанию».
type Config struct {
	Lighting  LightingConfig  `yaml:"lighting"`
	Render    RenderConfig    `yaml:"render"`
	Storage   StorageConfig   `yaml:"storage"`
	World     WorldConfig     `yaml:"world"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type LightingConfig struct {
	SkyMultiplier *float32 `yaml:"sky_multiplier"`
	AmbientLight  *int     `yaml:"ambient_light"`
	Fullbright    bool     `yaml:"fullbright"`
	SkyScanHeight int      `yaml:"sky_scan_height"`
	Workers       int      `yaml:"workers"`
}

type RenderConfig struct {
	RenderDistance         float32 `yaml:"render_distance"`
	AOApproxDistance       int     `yaml:"ao_approx_distance"`
	ChunkTint              []int   `yaml:"chunk_tint"`
	TransparentMinCapacity int     `yaml:"transparent_min_capacity"`
}

type StorageConfig struct {
	DataDir    string `yaml:"data_dir"`
	StreamFile string `yaml:"stream_file"`
	ModelsDir  string `yaml:"models_dir"`
	// SaveInterval период сохранения измененных чанков в секундах
	SaveInterval int `yaml:"save_interval"`
}

type WorldConfig struct {
	Seed   int64 `yaml:"seed"`
	Radius int   `yaml:"radius"`
	Height int   `yaml:"height"`
}

type ServerConfig struct {
	APIPort     int `yaml:"api_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Components уровни отдельных подсистем: world, storage, render, api
	Components map[string]string `yaml:"components"`
}

// GetSkyMultiplier возвращает множитель небесного света
func (l *LightingConfig) GetSkyMultiplier() float32 {
	if l.SkyMultiplier != nil && *l.SkyMultiplier >= 0 {
		return *l.SkyMultiplier
	}
	return 1
}

// GetAmbientLight возвращает минимальную освещенность 0..15
func (l *LightingConfig) GetAmbientLight() uint8 {
	if l.AmbientLight == nil {
		return 2
	}
	v := *l.AmbientLight
	if v < 0 {
		v = 0
	}
	if v > 15 {
		v = 15
	}
	return uint8(v)
}

// GetSkyScanHeight возвращает высоту проверки открытости неба в блоках
func (l *LightingConfig) GetSkyScanHeight() int {
	return positiveOr(l.SkyScanHeight, 64)
}

// GetRenderDistance возвращает радиус отрисовки в блоках
func (r *RenderConfig) GetRenderDistance() float32 {
	if r.RenderDistance > 0 {
		return r.RenderDistance
	}
	return 256
}

// GetAOApproxDistance возвращает расстояние в чанках, дальше которого AO упрощается
func (r *RenderConfig) GetAOApproxDistance() int {
	return positiveOr(r.AOApproxDistance, 6)
}

// GetTransparentMinCapacity возвращает минимальную емкость буфера полупрозрачных граней
func (r *RenderConfig) GetTransparentMinCapacity() int {
	return positiveOr(r.TransparentMinCapacity, 6144)
}

// GetChunkTint возвращает оттенок чанков как RGBA. Альфа по умолчанию 255.
func (r *RenderConfig) GetChunkTint() [4]uint8 {
	tint := [4]uint8{255, 255, 255, 255}
	if len(r.ChunkTint) < 3 {
		return tint
	}
	for i := 0; i < len(r.ChunkTint) && i < 4; i++ {
		v := r.ChunkTint[i]
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		tint[i] = uint8(v)
	}
	return tint
}

// GetDataDir возвращает каталог данных
func (s *StorageConfig) GetDataDir() string {
	if s.DataDir != "" {
		return s.DataDir
	}
	if env := os.Getenv("VOXEL_DATA_DIR"); env != "" {
		return env
	}
	return "./data"
}

// GetStreamPath возвращает путь к файлу сжатого потока карты
func (s *StorageConfig) GetStreamPath() string {
	name := s.StreamFile
	if name == "" {
		name = "world.gz"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.GetDataDir(), name)
}

// GetModelsDir возвращает каталог JSON-моделей блоков
func (s *StorageConfig) GetModelsDir() string {
	if s.ModelsDir != "" {
		return s.ModelsDir
	}
	return "assets/models"
}

// GetSaveInterval возвращает период автосохранения в секундах
func (s *StorageConfig) GetSaveInterval() int {
	return positiveOr(s.SaveInterval, 30)
}

// GetRadius возвращает радиус острова в чанках
func (w *WorldConfig) GetRadius() int {
	return positiveOr(w.Radius, 4)
}

// GetHeight возвращает высоту мира в чанках
func (w *WorldConfig) GetHeight() int {
	return positiveOr(w.Height, 4)
}

// GetAPIPort возвращает порт API инспекции с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "VOXEL_API_PORT", 8090)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// GetServiceName возвращает имя сервиса для трассировки
func (t *TelemetryConfig) GetServiceName() string {
	if t.ServiceName != "" {
		return t.ServiceName
	}
	return "voxelgine"
}

// GetLevel возвращает уровень логирования
func (l *LoggingConfig) GetLevel() string {
	if l.Level != "" {
		return l.Level
	}
	if env := os.Getenv("VOXEL_LOG_LEVEL"); env != "" {
		return env
	}
	return "info"
}

func positiveOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан, используются дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadOrDefault читает конфигурацию; при отсутствии файла возвращает пустую
// конфигурацию, все геттеры которой дают значения по умолчанию.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg, nil
}
